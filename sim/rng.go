package sim

import "math"

// Random is a seedable xorshift* pseudo-random generator.
//
// The sequence of NextOutput values is the reproducibility contract: two
// generators built from the same seed emit bit-for-bit identical integer
// streams. Floating-point derivatives (Gaussian, Exponential) are
// reproducible only up to the platform's log/cos implementations.
//
// Thread-safety: NOT thread-safe. Must be called from a single goroutine.
type Random struct {
	state uint64
}

// NewRandom creates a Random from a 64-bit seed. An all-zero xorshift
// state is absorbing, so seed 0 is perturbed to 1; every other seed is
// used as-is.
func NewRandom(seed uint64) *Random {
	if seed == 0 {
		seed = 1
	}
	return &Random{state: seed}
}

// NextOutput returns the next nonzero 64-bit value of the stream: three
// xorshifts followed by multiplication with an odd constant.
// https://en.wikipedia.org/wiki/Xorshift
func (r *Random) NextOutput() uint64 {
	r.state ^= r.state >> 12
	r.state ^= r.state << 25
	r.state ^= r.state >> 27
	return r.state * 2685821657736338717
}

// Uint32 returns a near-uniform integer in [0, t].
//
// The low 32 bits of the output are almost uniform:
// Pr[x=0] = (2^32-1)/(2^64-1) and Pr[x=k] = 2^32/(2^64-1) for k != 0.
// If x/2^32 is uniform on [0,1) then x/2^32*(t+1) is uniform on [0,t+1),
// so its integer part is uniform on [0,t].
func (r *Random) Uint32(t uint32) uint32 {
	x := uint32(r.NextOutput())
	return uint32((uint64(x) * (uint64(t) + 1)) >> 32)
}

// Uint32Range returns a near-uniform integer in [low, high].
// high must be >= low.
func (r *Random) Uint32Range(low, high uint32) uint32 {
	if high < low {
		panic("netsim: Uint32Range requires high >= low")
	}
	return r.Uint32(high-low) + low
}

// Int32Range returns a near-uniform integer in [low, high]. The span is
// computed in 64-bit arithmetic so that high-low may exceed MaxInt32.
// high must be >= low.
func (r *Random) Int32Range(low, high int32) int32 {
	if high < low {
		panic("netsim: Int32Range requires high >= low")
	}
	span := int64(high) - int64(low)
	return int32(int64(low) + int64(r.Uint32(uint32(span))))
}

// Bool returns a pseudo-random boolean.
func (r *Random) Bool() bool {
	return r.Uint32Range(0, 1) == 1
}

// Float64 returns a uniform value in [0, 1). NextOutput lies in
// [1, 2^64-1], so (NextOutput()-1)/(2^64-1) is below 1 in exact
// arithmetic; the few largest outputs that round to 1.0 in float64 are
// mapped to the largest float64 below 1.
func (r *Random) Float64() float64 {
	u := float64(r.NextOutput()-1) / float64(math.MaxUint64)
	if u >= 1 {
		u = math.Nextafter(1, 0)
	}
	return u
}

// Gaussian returns a normally distributed value using the Box-Muller
// transform, which is defined on (0, 1]. NextOutput never returns 0, so
// both uniforms are strictly positive and the logarithm stays finite.
func (r *Random) Gaussian(mean, standardDeviation float64) float64 {
	u1 := float64(r.NextOutput()) / float64(math.MaxUint64)
	u2 := float64(r.NextOutput()) / float64(math.MaxUint64)
	return mean + standardDeviation*math.Sqrt(-2*math.Log(u1))*math.Cos(2*math.Pi*u2)
}

// Exponential returns an exponentially distributed value with rate lambda.
// Float64 yields exactly 0 with probability 2^-64 per draw; such draws are
// redrawn so the logarithm never diverges.
func (r *Random) Exponential(lambda float64) float64 {
	uniform := r.Float64()
	for uniform == 0 {
		uniform = r.Float64()
	}
	return -math.Log(uniform) / lambda
}
