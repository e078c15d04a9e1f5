package rsacrack

import (
	"fmt"
	"math/big"
)

var (
	one = big.NewInt(1)
	two = big.NewInt(2)
)

// egcd returns (g, x, y) such that a*x + b*y = g = gcd(a, b).
func egcd(a, b *big.Int) (g, x, y *big.Int) {
	x0, x1 := big.NewInt(1), big.NewInt(0)
	y0, y1 := big.NewInt(0), big.NewInt(1)
	a = new(big.Int).Set(a)
	b = new(big.Int).Set(b)

	for b.Sign() != 0 {
		q, r := new(big.Int).QuoRem(a, b, new(big.Int))
		a, b = b, r

		x0, x1 = x1, new(big.Int).Sub(x0, new(big.Int).Mul(q, x1))
		y0, y1 = y1, new(big.Int).Sub(y0, new(big.Int).Mul(q, y1))
	}

	return a, x0, y0
}

// ModInverse computes a^(-1) mod m using the extended Euclidean algorithm.
//
// It returns an error when m <= 0 or when gcd(a, m) != 1. Callers that need
// the inverse for decryption must not ignore the error: a missing inverse
// means the parameters cannot produce a correct plaintext.
func ModInverse(a, m *big.Int) (*big.Int, error) {
	if m.Sign() <= 0 {
		return nil, fmt.Errorf("modular inverse: modulus must be positive, got %s", m)
	}

	g, x, _ := egcd(new(big.Int).Mod(a, m), m)
	if g.Cmp(one) != 0 {
		return nil, fmt.Errorf("no modular inverse for %s mod %s", a, m)
	}

	x.Mod(x, m)
	return x, nil
}

// IsPerfectSquare reports whether n is a perfect square.
// The check is exact integer arithmetic, never floating-point.
func IsPerfectSquare(n *big.Int) bool {
	if n.Sign() < 0 {
		return false
	}
	r := new(big.Int).Sqrt(n)
	return new(big.Int).Mul(r, r).Cmp(n) == 0
}

// Root returns the integer k-th root of x together with an exactness flag.
// The root is the largest r with r^k <= x; exact is true when r^k == x.
// x must be non-negative and k >= 1, otherwise (nil, false) is returned.
func Root(x *big.Int, k int) (*big.Int, bool) {
	if x.Sign() < 0 || k < 1 {
		return nil, false
	}
	if k == 1 || x.Sign() == 0 || x.Cmp(one) == 0 {
		return new(big.Int).Set(x), true
	}
	if k == 2 {
		r := new(big.Int).Sqrt(x)
		return r, new(big.Int).Mul(r, r).Cmp(x) == 0
	}

	// Binary search on the root. The initial upper bound comes from the
	// bit length: r < 2^(ceil(bits/k)+1).
	bk := big.NewInt(int64(k))
	hi := new(big.Int).Lsh(one, uint(x.BitLen()/k)+1)
	lo := new(big.Int)
	for lo.Cmp(hi) < 0 {
		mid := new(big.Int).Add(lo, hi)
		mid.Add(mid, one)
		mid.Rsh(mid, 1)
		if new(big.Int).Exp(mid, bk, nil).Cmp(x) <= 0 {
			lo.Set(mid)
		} else {
			hi.Sub(mid, one)
		}
	}

	return lo, new(big.Int).Exp(lo, bk, nil).Cmp(x) == 0
}

// ComputeD derives the private exponent from the prime factors and the
// public exponent: d = e^(-1) mod phi(n). When p == q the modulus is a
// prime square and phi = p*(p-1), otherwise phi = (p-1)*(q-1).
func ComputeD(p, q, e *big.Int) (*big.Int, error) {
	if p.Sign() <= 0 || q.Sign() <= 0 {
		return nil, fmt.Errorf("compute d: p and q must be positive")
	}
	if e.Cmp(one) <= 0 {
		return nil, fmt.Errorf("compute d: e must be greater than 1, got %s", e)
	}

	var phi *big.Int
	if p.Cmp(q) == 0 {
		// n = p^2
		phi = new(big.Int).Mul(p, new(big.Int).Sub(p, one))
	} else {
		phi = new(big.Int).Mul(
			new(big.Int).Sub(p, one),
			new(big.Int).Sub(q, one),
		)
	}

	d, err := ModInverse(e, phi)
	if err != nil {
		return nil, fmt.Errorf("compute d: %w", err)
	}
	return d, nil
}
