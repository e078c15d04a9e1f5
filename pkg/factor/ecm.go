package factor

import (
	"context"
	"math/big"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"
)

// The elliptic-curve tier runs Lenstra's ECM stage 1 on random Weierstrass
// curves y^2 = x^3 + ax + b modulo n. Point addition needs a modular
// inverse; when the group order modulo a hidden prime factor is smooth,
// that inverse fails and the gcd of the denominator with n exposes the
// factor. Curve parameters are sampled point-first so b never has to be
// square-rooted.

type ecmPoint struct {
	x, y *big.Int
	inf  bool
}

// ecmAdd adds two points modulo n on a curve with coefficient a. The
// second return value is a nontrivial factor of n when a slope
// denominator turned out to be non-invertible; in that case the point
// result is meaningless. A degenerate denominator (gcd == n) yields the
// point at infinity, which aborts the current curve.
func ecmAdd(n, a *big.Int, p, q ecmPoint) (ecmPoint, *big.Int) {
	if p.inf {
		return q, nil
	}
	if q.inf {
		return p, nil
	}

	var num, den *big.Int
	if p.x.Cmp(q.x) == 0 {
		sum := new(big.Int).Add(p.y, q.y)
		sum.Mod(sum, n)
		if sum.Sign() == 0 {
			return ecmPoint{inf: true}, nil
		}
		// Doubling: slope = (3x^2 + a) / (2y).
		num = new(big.Int).Mul(p.x, p.x)
		num.Mod(num, n)
		num.Mul(num, three)
		num.Add(num, a)
		num.Mod(num, n)
		den = new(big.Int).Add(p.y, p.y)
		den.Mod(den, n)
	} else {
		num = new(big.Int).Sub(q.y, p.y)
		num.Mod(num, n)
		den = new(big.Int).Sub(q.x, p.x)
		den.Mod(den, n)
	}

	inv := new(big.Int).ModInverse(den, n)
	if inv == nil {
		g := new(big.Int).GCD(nil, nil, den, n)
		if g.Cmp(one) > 0 && g.Cmp(n) < 0 {
			return ecmPoint{}, g
		}
		return ecmPoint{inf: true}, nil
	}

	slope := num.Mul(num, inv)
	slope.Mod(slope, n)

	x := new(big.Int).Mul(slope, slope)
	x.Sub(x, p.x)
	x.Sub(x, q.x)
	x.Mod(x, n)

	y := new(big.Int).Sub(p.x, x)
	y.Mul(y, slope)
	y.Sub(y, p.y)
	y.Mod(y, n)

	return ecmPoint{x: x, y: y}, nil
}

// ecmScalarMul computes k*P by double-and-add, propagating any factor
// found inside an addition.
func ecmScalarMul(n, a *big.Int, p ecmPoint, k uint64) (ecmPoint, *big.Int) {
	r := ecmPoint{inf: true}
	base := p
	for k > 0 {
		if k&1 == 1 {
			var f *big.Int
			r, f = ecmAdd(n, a, r, base)
			if f != nil {
				return ecmPoint{}, f
			}
		}
		k >>= 1
		if k > 0 {
			var f *big.Int
			base, f = ecmAdd(n, a, base, base)
			if f != nil {
				return ecmPoint{}, f
			}
		}
	}
	return r, nil
}

// ecmTrial runs stage 1 on one random curve. stop is polled between
// prime-power multiplications so workers exit promptly on timeout or
// when a sibling already succeeded.
func ecmTrial(n *big.Int, b1 uint64, primes []uint64, rnd *rand.Rand, stop func() bool) *big.Int {
	nMinusOne := new(big.Int).Sub(n, one)

	a := new(big.Int).Rand(rnd, nMinusOne)
	a.Add(a, one)
	x := new(big.Int).Rand(rnd, n)
	y := new(big.Int).Rand(rnd, n)

	// b = y^2 - x^3 - a*x, so (x, y) lies on the curve by construction.
	b := new(big.Int).Mul(y, y)
	b.Sub(b, new(big.Int).Mul(new(big.Int).Mul(x, x), x))
	b.Sub(b, new(big.Int).Mul(a, x))
	b.Mod(b, n)

	// Singular curve check via the discriminant 4a^3 + 27b^2: a shared
	// factor with n is already a win, gcd == n means resample.
	disc := new(big.Int).Exp(a, three, n)
	disc.Mul(disc, big.NewInt(4))
	bb := new(big.Int).Mul(b, b)
	bb.Mul(bb, big.NewInt(27))
	disc.Add(disc, bb)
	disc.Mod(disc, n)
	g := new(big.Int).GCD(nil, nil, disc, n)
	if g.Cmp(n) == 0 {
		return nil
	}
	if g.Cmp(one) > 0 {
		return g
	}

	p := ecmPoint{x: x, y: y}
	for i, prime := range primes {
		if prime > b1 {
			break
		}
		if i%64 == 0 && stop() {
			return nil
		}
		for pp := prime; pp <= b1; pp *= prime {
			var f *big.Int
			p, f = ecmScalarMul(n, a, p, prime)
			if f != nil {
				return f
			}
			if p.inf {
				return nil
			}
		}
	}
	return nil
}

// ecmBand runs one search tier: a fixed pool of workers, each attempting
// a capped number of random curves, sharing a single found flag so all
// workers stop as soon as one succeeds. The whole band is wrapped in a
// wall-clock timeout; workers still running at expiry are abandoned and
// their eventual output discarded.
func (e *Engine) ecmBand(ctx context.Context, n *big.Int, band Band) *big.Int {
	ctx, cancel := context.WithTimeout(ctx, band.Timeout)
	defer cancel()

	primes := primesUpTo(band.B1)

	var found atomic.Bool
	results := make(chan *big.Int, 1)

	stop := func() bool {
		return found.Load() || ctx.Err() != nil
	}

	var wg sync.WaitGroup
	for w := 0; w < band.Workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			rnd := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)))
			for i := 0; i < band.CurvesPerWorker; i++ {
				if stop() {
					return
				}
				if f := ecmTrial(n, band.B1, primes, rnd, stop); f != nil {
					found.Store(true)
					select {
					case results <- f:
					default:
					}
					return
				}
			}
		}(w)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case f := <-results:
		return f
	case <-ctx.Done():
		return nil
	case <-done:
		select {
		case f := <-results:
			return f
		default:
			return nil
		}
	}
}

// primesUpTo returns all primes <= limit via a plain sieve. Band bounds
// top out in the hundreds of thousands, so the sieve stays small.
func primesUpTo(limit uint64) []uint64 {
	if limit < 2 {
		return nil
	}
	composite := make([]bool, limit+1)
	var primes []uint64
	for i := uint64(2); i <= limit; i++ {
		if composite[i] {
			continue
		}
		primes = append(primes, i)
		for j := i * i; j <= limit; j += i {
			composite[j] = true
		}
	}
	return primes
}
