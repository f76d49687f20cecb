package kernel

// Planar kernels fill a whole distance array from component planes. The
// lane kernels compute the same expressions a vector at a time; without
// native vector support they run these loops instead.

func euclidPlanar(p *EuclidPlanes, q *[3]float32, dist *[Entries]float32) {
	for i := range dist {
		dx := p.X[i] - q[0]
		dy := p.Y[i] - q[1]
		dz := p.Z[i] - q[2]
		dist[i] = float32(sq(dx)+sq(dy)) + sq(dz)
	}
}

// cie94Planar matches cie94 lane for lane. The lightness term is not
// divided because S_L is one.
func cie94Planar(p *CIE94Planes, q *[4]float32, dist *[Entries]float32) {
	for i := range dist {
		dl := p.L[i] - q[0]
		da := p.A[i] - q[1]
		db := p.B[i] - q[2]
		dc := p.C[i] - q[3]
		dh := hueDelta(sq(da), sq(db), sq(dc))
		tc := float32(dc / p.SC[i])
		th := float32(dh / p.SH[i])
		dist[i] = float32(sq(dl)+sq(tc)) + sq(th)
	}
}
