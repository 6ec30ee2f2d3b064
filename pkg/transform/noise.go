package transform

import "math"

// hashNoise is the CPU backend hash: a splitmix-style integer mix over the
// pixel coordinate and the seed's bit pattern. Same (x, y, seed) always
// yields the same value in [0,1).
func hashNoise(x, y int, seed float64) float64 {
	h := uint64(uint32(x))<<32 | uint64(uint32(y))
	h ^= math.Float64bits(seed)
	h += 0x9e3779b97f4a7c15
	h = (h ^ (h >> 30)) * 0xbf58476d1ce4e5b9
	h = (h ^ (h >> 27)) * 0x94d049bb133111eb
	h ^= h >> 31
	return float64(h>>11) / float64(1<<53)
}

// shaderNoise mirrors the GPU pipeline's fract(sin(dot(coord, k))) hash.
// Deterministic for a given (x, y, seed) but numerically unrelated to
// hashNoise.
func shaderNoise(x, y int, seed float64) float64 {
	v := math.Sin(float64(x)*12.9898+float64(y)*78.233+seed*43.758) * 43758.5453
	f := v - math.Floor(v)
	if f >= 1 {
		f = 0
	}
	return f
}
