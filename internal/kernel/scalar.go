package kernel

// Per-entry formulas. Every kernel evaluates exactly these operations in
// exactly this order; only the way operands are fetched differs.

func euclid(e *[EuclidStride]float32, q *[EuclidStride]float32) float32 {
	dl := e[0] - q[0]
	da := e[1] - q[1]
	db := e[2] - q[2]
	return float32(sq(dl)+sq(da)) + sq(db)
}

// cie94 returns ΔE94² for reference entry e against query q = (L, a, b, C).
func cie94(e *[CIE94Stride]float32, q *[4]float32) float32 {
	dl := e[0] - q[0]
	da := e[1] - q[1]
	db := e[2] - q[2]
	dc := e[3] - q[3]
	dh := hueDelta(sq(da), sq(db), sq(dc))
	tl := float32(dl / e[4])
	tc := float32(dc / e[5])
	th := float32(dh / e[6])
	return float32(sq(tl)+sq(tc)) + sq(th)
}

// hueDelta returns ΔH from Δa², Δb² and ΔC². Rounding can drive the
// difference slightly negative; it is clamped to zero before the root.
func hueDelta(da2, db2, dc2 float32) float32 {
	dh2 := float32(da2+db2) - dc2
	if !(dh2 > 0) {
		return 0
	}
	return sqrt32(dh2)
}

func nearestEuclidScalar(t *EuclidTable, q *[EuclidStride]float32) (uint8, float32) {
	best, bestDist := 0, euclid(t.Entry(0), q)
	for i := 1; i < Entries; i++ {
		if d := euclid(t.Entry(i), q); d < bestDist {
			best, bestDist = i, d
		}
	}
	return uint8(best), bestDist
}

func nearestCIE94Scalar(t *CIE94Table, q *[4]float32) (uint8, float32) {
	best, bestDist := 0, cie94(t.Entry(0), q)
	for i := 1; i < Entries; i++ {
		if d := cie94(t.Entry(i), q); d < bestDist {
			best, bestDist = i, d
		}
	}
	return uint8(best), bestDist
}

// argmin scans distances in index order; the lowest index wins ties.
func argmin(dist *[Entries]float32) (uint8, float32) {
	best, bestDist := 0, dist[0]
	for i := 1; i < Entries; i++ {
		if dist[i] < bestDist {
			best, bestDist = i, dist[i]
		}
	}
	return uint8(best), bestDist
}
