//go:build amd64 && goexperiment.simd

package kernel

import "simd/archsimd"

// The 128-bit forms are VEX encoded and need AVX; the 256-bit broadcasts
// need AVX2.
func nativeLanes() (vec4, vec8 bool) {
	return archsimd.X86.AVX(), archsimd.X86.AVX2()
}

func splat4(v float32) archsimd.Float32x4 {
	s := [4]float32{v, v, v, v}
	return archsimd.LoadFloat32x4Slice(s[:])
}

// Products are separate Mul and Add instructions, never fused, so each
// lane rounds exactly like the scalar formula.

func euclidLanes4(p *EuclidPlanes, q *[3]float32, dist *[Entries]float32) {
	if !native4 {
		euclidPlanar(p, q, dist)
		return
	}
	qx, qy, qz := splat4(q[0]), splat4(q[1]), splat4(q[2])
	for i := 0; i < Entries; i += 4 {
		dx := archsimd.LoadFloat32x4Slice(p.X[i:]).Sub(qx)
		dy := archsimd.LoadFloat32x4Slice(p.Y[i:]).Sub(qy)
		dz := archsimd.LoadFloat32x4Slice(p.Z[i:]).Sub(qz)
		dx.Mul(dx).Add(dy.Mul(dy)).Add(dz.Mul(dz)).StoreSlice(dist[i:])
	}
}

func euclidLanes8(p *EuclidPlanes, q *[3]float32, dist *[Entries]float32) {
	if !native8 {
		euclidLanes4(p, q, dist)
		return
	}
	qx := archsimd.BroadcastFloat32x8(q[0])
	qy := archsimd.BroadcastFloat32x8(q[1])
	qz := archsimd.BroadcastFloat32x8(q[2])
	for i := 0; i < Entries; i += 8 {
		dx := archsimd.LoadFloat32x8Slice(p.X[i:]).Sub(qx)
		dy := archsimd.LoadFloat32x8Slice(p.Y[i:]).Sub(qy)
		dz := archsimd.LoadFloat32x8Slice(p.Z[i:]).Sub(qz)
		dx.Mul(dx).Add(dy.Mul(dy)).Add(dz.Mul(dz)).StoreSlice(dist[i:])
	}
}

// ΔH² is clamped with Max before the root; a negative or zero value gives
// a zero hue term as in hueDelta.
func cie94Lanes4(p *CIE94Planes, q *[4]float32, dist *[Entries]float32) {
	if !native4 {
		cie94Planar(p, q, dist)
		return
	}
	ql, qa, qb, qc := splat4(q[0]), splat4(q[1]), splat4(q[2]), splat4(q[3])
	zero := splat4(0)
	for i := 0; i < Entries; i += 4 {
		dl := archsimd.LoadFloat32x4Slice(p.L[i:]).Sub(ql)
		da := archsimd.LoadFloat32x4Slice(p.A[i:]).Sub(qa)
		db := archsimd.LoadFloat32x4Slice(p.B[i:]).Sub(qb)
		dc := archsimd.LoadFloat32x4Slice(p.C[i:]).Sub(qc)
		dh := da.Mul(da).Add(db.Mul(db)).Sub(dc.Mul(dc)).Max(zero).Sqrt()
		tc := dc.Div(archsimd.LoadFloat32x4Slice(p.SC[i:]))
		th := dh.Div(archsimd.LoadFloat32x4Slice(p.SH[i:]))
		dl.Mul(dl).Add(tc.Mul(tc)).Add(th.Mul(th)).StoreSlice(dist[i:])
	}
}

func cie94Lanes8(p *CIE94Planes, q *[4]float32, dist *[Entries]float32) {
	if !native8 {
		cie94Lanes4(p, q, dist)
		return
	}
	ql := archsimd.BroadcastFloat32x8(q[0])
	qa := archsimd.BroadcastFloat32x8(q[1])
	qb := archsimd.BroadcastFloat32x8(q[2])
	qc := archsimd.BroadcastFloat32x8(q[3])
	zero := archsimd.BroadcastFloat32x8(0)
	for i := 0; i < Entries; i += 8 {
		dl := archsimd.LoadFloat32x8Slice(p.L[i:]).Sub(ql)
		da := archsimd.LoadFloat32x8Slice(p.A[i:]).Sub(qa)
		db := archsimd.LoadFloat32x8Slice(p.B[i:]).Sub(qb)
		dc := archsimd.LoadFloat32x8Slice(p.C[i:]).Sub(qc)
		dh := da.Mul(da).Add(db.Mul(db)).Sub(dc.Mul(dc)).Max(zero).Sqrt()
		tc := dc.Div(archsimd.LoadFloat32x8Slice(p.SC[i:]))
		th := dh.Div(archsimd.LoadFloat32x8Slice(p.SH[i:]))
		dl.Mul(dl).Add(tc.Mul(tc)).Add(th.Mul(th)).StoreSlice(dist[i:])
	}
}
