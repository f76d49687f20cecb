//go:build !(amd64 && goexperiment.simd)

package kernel

// Without the simd experiment there are no vector types to build on; the
// lane backends exist for conformance testing and use the planar loops.

func nativeLanes() (vec4, vec8 bool) { return false, false }

func euclidLanes4(p *EuclidPlanes, q *[3]float32, dist *[Entries]float32) {
	euclidPlanar(p, q, dist)
}

func euclidLanes8(p *EuclidPlanes, q *[3]float32, dist *[Entries]float32) {
	euclidPlanar(p, q, dist)
}

func cie94Lanes4(p *CIE94Planes, q *[4]float32, dist *[Entries]float32) {
	cie94Planar(p, q, dist)
}

func cie94Lanes8(p *CIE94Planes, q *[4]float32, dist *[Entries]float32) {
	cie94Planar(p, q, dist)
}
