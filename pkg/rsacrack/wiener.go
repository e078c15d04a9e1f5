package rsacrack

import "math/big"

// DefaultConvergentLimit caps the number of continued-fraction convergents
// generated for e/n. Wiener-recoverable exponents show up in the early
// convergents; the cap guarantees termination on pathological inputs.
const DefaultConvergentLimit = 100

// ExtendedConvergentLimit is the looser cap used by the composite-exponent
// attack's retry pass.
const ExtendedConvergentLimit = 500

// Convergent is one continued-fraction convergent h/k of e/n. For Wiener's
// attack, h is the candidate k in e*d - k*phi = 1 and k is the candidate d.
type Convergent struct {
	H *big.Int
	K *big.Int
}

// Convergents returns the ordered continued-fraction convergents of e/n,
// generated with the standard recurrence h_i = q_i*h_{i-1} + h_{i-2}
// (same for k), seeded with (h,k) = (1,0) and (0,1). At most max terms
// are produced; convergents with k == 0 are skipped.
func Convergents(e, n *big.Int, max int) []Convergent {
	a := new(big.Int).Set(e)
	b := new(big.Int).Set(n)

	h0, h1 := big.NewInt(1), big.NewInt(0)
	k0, k1 := big.NewInt(0), big.NewInt(1)

	var out []Convergent
	for b.Sign() != 0 && len(out) < max {
		q, r := new(big.Int).QuoRem(a, b, new(big.Int))
		a, b = b, r

		h := new(big.Int).Add(new(big.Int).Mul(q, h0), h1)
		k := new(big.Int).Add(new(big.Int).Mul(q, k0), k1)

		if k.Sign() != 0 {
			out = append(out, Convergent{H: h, K: k})
		}

		h1, h0 = h0, h
		k1, k0 = k0, k
	}

	return out
}

// RecoverD runs Wiener's continued-fraction attack on (e, n) and returns
// the private exponent, or nil when no convergent verifies. The attack
// succeeds when d is small enough that k/d appears among the convergents
// of e/n (roughly d < n^(1/4)/3).
//
// A candidate is accepted only after full self-verification: phi derived
// from the convergent must yield integer factors p, q > 1 with p*q == n.
func RecoverD(e, n *big.Int) *big.Int {
	return recoverD(e, n, DefaultConvergentLimit)
}

func recoverD(e, n *big.Int, limit int) *big.Int {
	if e.Cmp(one) <= 0 || e.Cmp(n) >= 0 {
		return nil
	}
	return convergentSearch(e, n, limit)
}

// convergentSearch is the raw convergent scan without the e < n range
// check. Double-encryption exponents routinely exceed n; the continued
// fraction of e/n still yields k/d candidates there, so the composite
// attack calls this form directly.
func convergentSearch(e, n *big.Int, limit int) *big.Int {
	for _, cv := range Convergents(e, n, limit) {
		k, d := cv.H, cv.K
		if k.Sign() == 0 || d.Sign() == 0 {
			continue
		}

		// phi = (e*d - 1) / k, only when the division is exact.
		ed1 := new(big.Int).Mul(e, d)
		ed1.Sub(ed1, one)
		phi, rem := new(big.Int).QuoRem(ed1, k, new(big.Int))
		if rem.Sign() != 0 {
			continue
		}

		if p, _ := factorsFromPhi(n, phi); p != nil {
			return new(big.Int).Set(d)
		}
	}

	return nil
}

// factorsFromPhi solves x^2 - (n - phi + 1)x + n = 0 for integer roots.
// Both roots are returned when they are integers > 1 multiplying to n,
// otherwise (nil, nil). This is the self-verification step that separates
// a true Wiener hit from an arithmetic coincidence.
func factorsFromPhi(n, phi *big.Int) (p, q *big.Int) {
	s := new(big.Int).Sub(n, phi)
	s.Add(s, one)

	disc := new(big.Int).Mul(s, s)
	disc.Sub(disc, new(big.Int).Mul(big.NewInt(4), n))
	if disc.Sign() < 0 {
		return nil, nil
	}

	root := new(big.Int).Sqrt(disc)
	if new(big.Int).Mul(root, root).Cmp(disc) != 0 {
		return nil, nil
	}

	p = new(big.Int).Add(s, root)
	p.Rsh(p, 1)
	q = new(big.Int).Sub(s, root)
	q.Rsh(q, 1)

	if p.Cmp(one) <= 0 || q.Cmp(one) <= 0 {
		return nil, nil
	}
	if new(big.Int).Mul(p, q).Cmp(n) != 0 {
		return nil, nil
	}
	return p, q
}
