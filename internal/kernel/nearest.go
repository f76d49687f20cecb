package kernel

// NearestEuclid returns the index of the entry of p closest to q under
// squared Euclidean distance, together with that distance. Ties resolve to
// the lowest index.
func NearestEuclid(b Backend, p *EuclidPalette, q [3]float32) (uint8, float32) {
	if b != Vec4 && b != Vec8 {
		qv := [EuclidStride]float32{q[0], q[1], q[2], 0}
		return nearestEuclidScalar(&p.Table, &qv)
	}
	var dist [Entries]float32
	if b == Vec8 {
		euclidLanes8(&p.Planes, &q, &dist)
	} else {
		euclidLanes4(&p.Planes, &q, &dist)
	}
	return argmin(&dist)
}

// NearestCIE94 returns the index of the entry of p with the smallest ΔE94²
// from the Lab query lab, and that squared difference.
func NearestCIE94(b Backend, p *CIE94Palette, lab [3]float32) (uint8, float32) {
	qv := [4]float32{lab[0], lab[1], lab[2], Chroma(lab)}
	if b != Vec4 && b != Vec8 {
		return nearestCIE94Scalar(&p.Table, &qv)
	}
	var dist [Entries]float32
	if b == Vec8 {
		cie94Lanes8(&p.Planes, &qv, &dist)
	} else {
		cie94Lanes4(&p.Planes, &qv, &dist)
	}
	return argmin(&dist)
}

// EuclidDistance is the per-entry formula shared by every backend.
func EuclidDistance(ref, query [3]float32) float32 {
	e := [EuclidStride]float32{ref[0], ref[1], ref[2], 0}
	q := [EuclidStride]float32{query[0], query[1], query[2], 0}
	return euclid(&e, &q)
}

// CIE94Distance returns ΔE94² of query against reference ref, with the
// weights derived from the reference chroma.
func CIE94Distance(ref, query [3]float32) float32 {
	e := cie94Entry(ref)
	q := [4]float32{query[0], query[1], query[2], Chroma(query)}
	return cie94(&e, &q)
}
