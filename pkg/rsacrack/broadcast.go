package rsacrack

import (
	"fmt"
	"math/big"
)

// rootRetryOffsets are added to the CRT residue before root extraction to
// tolerate off-by-construction inputs.
var rootRetryOffsets = []int64{0, 1, -1, 2, -2}

// CRTCombine solves x = remainders[i] (mod moduli[i]) for all i and returns
// the unique solution modulo the product of the moduli. The moduli must be
// pairwise coprime; a missing inverse is reported as an error.
func CRTCombine(remainders, moduli []*big.Int) (*big.Int, error) {
	if len(remainders) == 0 || len(remainders) != len(moduli) {
		return nil, fmt.Errorf("crt: need equal non-empty remainder and modulus lists, got %d and %d", len(remainders), len(moduli))
	}

	total := big.NewInt(1)
	for _, m := range moduli {
		if m.Sign() <= 0 {
			return nil, fmt.Errorf("crt: modulus must be positive, got %s", m)
		}
		total.Mul(total, m)
	}

	x := new(big.Int)
	for i, r := range remainders {
		ni := moduli[i]
		mi := new(big.Int).Div(total, ni)

		inv, err := ModInverse(mi, ni)
		if err != nil {
			return nil, fmt.Errorf("crt: moduli not pairwise coprime: %w", err)
		}

		term := new(big.Int).Mul(r, mi)
		term.Mul(term, inv)
		x.Add(x, term)
		x.Mod(x, total)
	}

	return x, nil
}

// RecoverBroadcast runs Håstad's broadcast attack: the same plaintext m
// encrypted with the same small exponent e under at least e distinct
// moduli. The ciphertexts are CRT-combined into m^e over the product of
// the moduli, then the exact integer e-th root is taken.
//
// Returns nil when fewer than e pairs are available, the CRT system has
// no solution, or no exact root is found.
func RecoverBroadcast(e *big.Int, ciphertexts, moduli []*big.Int, logf LogFunc) *big.Int {
	if !e.IsInt64() || e.Int64() < 2 {
		return nil
	}
	k := int(e.Int64())

	count := len(ciphertexts)
	if len(moduli) < count {
		count = len(moduli)
	}
	if count < k {
		logf.printf("[hastad] need at least %d ciphertext/modulus pairs for e=%d, got %d", k, k, count)
		return nil
	}

	cs := ciphertexts[:k]
	ns := moduli[:k]
	for i := range cs {
		logf.printf("[hastad] pair %d: %d-bit modulus", i+1, ns[i].BitLen())
	}

	combined, err := CRTCombine(cs, ns)
	if err != nil {
		logf.printf("[hastad] %v", err)
		return nil
	}
	logf.printf("[hastad] CRT residue is %d bits, taking %d-th root", combined.BitLen(), k)

	for _, off := range rootRetryOffsets {
		candidate := new(big.Int).Add(combined, big.NewInt(off))
		if candidate.Sign() < 0 {
			continue
		}
		if m, exact := Root(candidate, k); exact {
			if off != 0 {
				logf.printf("[hastad] exact root found with offset %d", off)
			}
			return m
		}
	}

	logf.printf("[hastad] no exact %d-th root", k)
	return nil
}

// RecoverLowExponent attacks a single ciphertext encrypted with a very
// small exponent when m^e did not wrap the modulus: the plaintext is just
// the integer e-th root of c. Small multiples of n are added back to c to
// tolerate one or two wraps. Returns nil when e is outside [3, 100] or no
// exact root exists.
func RecoverLowExponent(e, n, c *big.Int) *big.Int {
	if !e.IsInt64() {
		return nil
	}
	k := int(e.Int64())
	if k < 3 || k > 100 {
		return nil
	}
	if n.Sign() <= 0 || c.Sign() < 0 {
		return nil
	}

	if m, exact := Root(c, k); exact {
		return m
	}

	// c + k*n for small k handles plaintexts slightly past the modulus.
	candidate := new(big.Int).Set(c)
	for i := 0; i < 1000; i++ {
		candidate.Add(candidate, n)
		if m, exact := Root(candidate, k); exact {
			return m
		}
	}

	return nil
}
