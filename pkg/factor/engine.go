package factor

import (
	"context"
	"fmt"
	"math/big"
	"time"
)

var (
	one   = big.NewInt(1)
	two   = big.NewInt(2)
	three = big.NewInt(3)
)

// LogFunc receives progress narration from the engine. A nil LogFunc is
// silent. Narration is informational only and never part of the contract.
type LogFunc func(format string, args ...any)

func (f LogFunc) printf(format string, args ...any) {
	if f != nil {
		f(format, args...)
	}
}

// Pair is a verified factorization n = P*Q with P <= Q. Absence of a
// factorization is a nil *Pair, never an error: for hard moduli, "not
// found" is the expected outcome.
type Pair struct {
	P *big.Int
	Q *big.Int
}

// Lookup is the external factor-database collaborator. Implementations
// perform a network query with their own timeout; the engine treats any
// error or nil pair as "no answer" and re-verifies the product before
// accepting one.
type Lookup interface {
	Factors(ctx context.Context, n *big.Int) (*Pair, error)
}

// Band is one elliptic-curve search tier. Larger moduli get cheaper,
// shorter-timeout bands since the success probability is already low.
type Band struct {
	MaxBits         int
	B1              uint64 // stage-1 smoothness bound
	CurvesPerWorker int
	Workers         int
	Timeout         time.Duration
}

// DefaultBands mirrors the tier parameters the engine was tuned with.
func DefaultBands() []Band {
	return []Band{
		{MaxBits: 512, B1: 100_000, CurvesPerWorker: 30, Workers: 6, Timeout: 1 * time.Second},
		{MaxBits: 1024, B1: 250_000, CurvesPerWorker: 20, Workers: 6, Timeout: 2 * time.Second},
		{MaxBits: 2048, B1: 500_000, CurvesPerWorker: 15, Workers: 4, Timeout: 3 * time.Second},
	}
}

const (
	// defaultMaxBits is the hard cutoff: larger moduli are rejected
	// immediately instead of attempting unbounded work.
	defaultMaxBits = 4096

	// trialDivisionMaxBits gates the bounded 6k±1 wheel scan.
	trialDivisionMaxBits = 100

	// pollardMaxBits gates both Pollard rho variants.
	pollardMaxBits = 300

	// lookupCeilingBits gates the external database query.
	lookupCeilingBits = 2048

	// trialDivisionBound caps the wheel scan regardless of sqrt(n).
	trialDivisionBound = 5_000_000

	rhoSeeds       = 5
	rhoMaxIter     = 2_000_000
	rhoBrentBatch  = 128
	rhoBrentMaxGCD = 2_000_000
)

// Engine is the tiered modulus factorizer. Tiers run in a fixed order and
// the first verified factor pair wins; every tier has a bounded amount of
// work so the caller always gets an answer in bounded time.
type Engine struct {
	maxBits int
	lookup  Lookup
	bands   []Band
	logf    LogFunc
}

// NewEngine creates an engine with the default tier parameters and no
// external lookup.
func NewEngine() *Engine {
	return &Engine{
		maxBits: defaultMaxBits,
		bands:   DefaultBands(),
	}
}

// WithLookup wires an external factor database into the lookup tier.
func (e *Engine) WithLookup(lookup Lookup) *Engine {
	e.lookup = lookup
	return e
}

// WithLogf sets the progress narration sink.
func (e *Engine) WithLogf(logf LogFunc) *Engine {
	e.logf = logf
	return e
}

// WithMaxBits sets the hard bit-length cutoff.
func (e *Engine) WithMaxBits(bits int) *Engine {
	e.maxBits = bits
	return e
}

// WithBands replaces the elliptic-curve search tiers.
func (e *Engine) WithBands(bands []Band) *Engine {
	e.bands = bands
	return e
}

// Factor attempts to split n into two factors. A nil pair with a nil
// error means "not found within budget"; an error is returned only for
// the contract violation n <= 1.
func (e *Engine) Factor(ctx context.Context, n *big.Int) (*Pair, error) {
	if n == nil || n.Cmp(one) <= 0 {
		return nil, fmt.Errorf("factor: modulus must be greater than 1")
	}

	bits := n.BitLen()
	if bits > e.maxBits {
		e.logf.printf("[factor] %d-bit modulus exceeds the %d-bit cutoff", bits, e.maxBits)
		return nil, nil
	}
	e.logf.printf("[factor] factoring %d-bit modulus", bits)

	// Perfect square: n = r^2. The root is returned regardless of its
	// primality; callers that need primes must re-verify.
	r := new(big.Int).Sqrt(n)
	if new(big.Int).Mul(r, r).Cmp(n) == 0 {
		e.logf.printf("[factor] perfect square, n = r^2 with r of %d bits", r.BitLen())
		return &Pair{P: r, Q: new(big.Int).Set(r)}, nil
	}

	// Trivial divisors.
	if n.Bit(0) == 0 {
		return e.verified(n, two)
	}
	if new(big.Int).Mod(n, three).Sign() == 0 {
		return e.verified(n, three)
	}

	if pair := e.lookupTier(ctx, n); pair != nil {
		return pair, nil
	}

	if bits <= trialDivisionMaxBits {
		if f := trialDivideWheel(ctx, n); f != nil {
			e.logf.printf("[factor] trial division found factor of %d bits", f.BitLen())
			return e.verified(n, f)
		}
	}

	if bits <= pollardMaxBits {
		e.logf.printf("[factor] trying Pollard rho")
		if f := pollardRho(ctx, n, rhoSeeds, rhoMaxIter); f != nil {
			e.logf.printf("[factor] Pollard rho found factor of %d bits", f.BitLen())
			return e.verified(n, f)
		}
		e.logf.printf("[factor] trying Pollard rho (Brent)")
		if f := pollardRhoBrent(ctx, n, rhoMaxIter); f != nil {
			e.logf.printf("[factor] Brent rho found factor of %d bits", f.BitLen())
			return e.verified(n, f)
		}
	}

	for _, band := range e.bands {
		if bits > band.MaxBits {
			continue
		}
		if ctx.Err() != nil {
			return nil, nil
		}
		e.logf.printf("[factor] ECM band: B1=%d, %d workers x %d curves, %s budget",
			band.B1, band.Workers, band.CurvesPerWorker, band.Timeout)
		if f := e.ecmBand(ctx, n, band); f != nil {
			e.logf.printf("[factor] ECM found factor of %d bits", f.BitLen())
			return e.verified(n, f)
		}
	}

	e.logf.printf("[factor] all tiers exhausted, giving up")
	return nil, nil
}

// lookupTier queries the external database when one is wired in. Any
// error is downgraded to "no answer"; a returned pair is accepted only
// after re-verifying the product locally.
func (e *Engine) lookupTier(ctx context.Context, n *big.Int) *Pair {
	if e.lookup == nil {
		return nil
	}
	if n.BitLen() > lookupCeilingBits || n.Cmp(big.NewInt(1000)) < 0 {
		return nil
	}

	e.logf.printf("[factor] querying external factor database")
	pair, err := e.lookup.Factors(ctx, n)
	if err != nil {
		e.logf.printf("[factor] lookup unavailable: %v", err)
		return nil
	}
	if pair == nil || pair.P == nil || pair.Q == nil {
		return nil
	}
	if pair.P.Cmp(one) <= 0 || pair.Q.Cmp(one) <= 0 {
		return nil
	}
	if new(big.Int).Mul(pair.P, pair.Q).Cmp(n) != 0 {
		e.logf.printf("[factor] lookup answer failed verification, discarding")
		return nil
	}
	e.logf.printf("[factor] lookup answer verified")
	return orderedPair(pair.P, pair.Q)
}

// verified turns a raw factor into an ordered, re-verified pair.
func (e *Engine) verified(n, f *big.Int) (*Pair, error) {
	q, rem := new(big.Int).QuoRem(n, f, new(big.Int))
	if rem.Sign() != 0 || f.Cmp(one) <= 0 || q.Cmp(one) <= 0 {
		// A tier produced garbage; treat it as not found.
		return nil, nil
	}
	return orderedPair(new(big.Int).Set(f), q), nil
}

func orderedPair(p, q *big.Int) *Pair {
	if p.Cmp(q) > 0 {
		p, q = q, p
	}
	return &Pair{P: p, Q: q}
}

// trialDivideWheel scans odd candidates with the 6k±1 wheel up to
// min(trialDivisionBound, sqrt(n)+1).
func trialDivideWheel(ctx context.Context, n *big.Int) *big.Int {
	limit := new(big.Int).Sqrt(n)
	limit.Add(limit, one)
	if limit.Cmp(big.NewInt(trialDivisionBound)) > 0 {
		limit.SetInt64(trialDivisionBound)
	}

	i := big.NewInt(5)
	iPlusTwo := new(big.Int)
	rem := new(big.Int)
	six := big.NewInt(6)
	for steps := 0; i.Cmp(limit) <= 0; steps++ {
		if steps%4096 == 0 && ctx.Err() != nil {
			return nil
		}
		if rem.Mod(n, i).Sign() == 0 {
			return new(big.Int).Set(i)
		}
		iPlusTwo.Add(i, two)
		if rem.Mod(n, iPlusTwo).Sign() == 0 {
			return new(big.Int).Set(iPlusTwo)
		}
		i.Add(i, six)
	}
	return nil
}
