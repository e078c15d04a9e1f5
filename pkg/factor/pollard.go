package factor

import (
	"context"
	"math/big"
	"math/rand"
	"time"
)

// pollardRho is the classic Floyd cycle-detection variant: iterate
// x <- x^2+1 mod n twice as fast for y and take gcd(|x-y|, n). The cycle
// length depends on the starting point, so several random seeds are tried;
// each seed's iteration count is capped to guarantee termination.
func pollardRho(ctx context.Context, n *big.Int, seeds, maxIter int) *big.Int {
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))

	nMinusTwo := new(big.Int).Sub(n, two)
	if nMinusTwo.Sign() <= 0 {
		return nil
	}

	x := new(big.Int)
	y := new(big.Int)
	diff := new(big.Int)
	g := new(big.Int)

	for seed := 0; seed < seeds; seed++ {
		x.Rand(rnd, nMinusTwo)
		x.Add(x, two)
		y.Set(x)
		g.SetInt64(1)

		for iter := 0; g.Cmp(one) == 0 && iter < maxIter; iter++ {
			if iter%4096 == 0 && ctx.Err() != nil {
				return nil
			}
			rhoStep(x, n)
			rhoStep(y, n)
			rhoStep(y, n)

			diff.Sub(x, y)
			diff.Abs(diff)
			g.GCD(nil, nil, diff, n)
			if g.Cmp(n) == 0 {
				break // cycle collapsed, try another seed
			}
		}

		if g.Cmp(one) > 0 && g.Cmp(n) < 0 {
			return new(big.Int).Set(g)
		}
	}

	return nil
}

// rhoStep applies x <- x^2 + 1 mod n in place.
func rhoStep(x, n *big.Int) {
	x.Mul(x, x)
	x.Add(x, one)
	x.Mod(x, n)
}

// pollardRhoBrent is Brent's variant: the gcd is taken over a running
// product of |x-y| terms so one gcd covers a whole batch of iterations.
// Used as a second attempt after the classic variant fails.
func pollardRhoBrent(ctx context.Context, n *big.Int, maxIter int) *big.Int {
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))

	nMinusOne := new(big.Int).Sub(n, one)
	if nMinusOne.Sign() <= 0 {
		return nil
	}

	y := new(big.Int).Rand(rnd, nMinusOne)
	y.Add(y, one)
	c := new(big.Int).Rand(rnd, nMinusOne)
	c.Add(c, one)

	x := new(big.Int)
	ys := new(big.Int)
	q := big.NewInt(1)
	g := big.NewInt(1)
	diff := new(big.Int)

	step := func(z *big.Int) {
		z.Mul(z, z)
		z.Add(z, c)
		z.Mod(z, n)
	}

	total := 0
	for r := 1; g.Cmp(one) == 0; r <<= 1 {
		x.Set(y)
		for i := 0; i < r; i++ {
			step(y)
		}

		for k := 0; k < r && g.Cmp(one) == 0; k += rhoBrentBatch {
			if ctx.Err() != nil {
				return nil
			}
			ys.Set(y)
			batch := rhoBrentBatch
			if r-k < batch {
				batch = r - k
			}
			for i := 0; i < batch; i++ {
				step(y)
				diff.Sub(x, y)
				diff.Abs(diff)
				q.Mul(q, diff)
				q.Mod(q, n)
			}
			g.GCD(nil, nil, q, n)

			total += batch
			if total > maxIter {
				return nil
			}
		}
	}

	if g.Cmp(n) == 0 {
		// The batch swallowed the factor; backtrack one step at a time
		// from the last checkpoint.
		g.SetInt64(1)
		for iter := 0; g.Cmp(one) == 0 && iter < rhoBrentMaxGCD; iter++ {
			step(ys)
			diff.Sub(x, ys)
			diff.Abs(diff)
			g.GCD(nil, nil, diff, n)
		}
	}

	if g.Cmp(one) > 0 && g.Cmp(n) < 0 {
		return new(big.Int).Set(g)
	}
	return nil
}
