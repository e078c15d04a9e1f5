package rsacrack

import (
	"context"
	"math/big"

	"github.com/ctfkit/rsacrack/pkg/factor"
)

// hugeExponentBits marks an exponent as disproportionately large for the
// layered strategy of the composite attack.
const hugeExponentBits = 1000

// hugeExponentValue is the alternative size heuristic, 10^100.
var hugeExponentValue = new(big.Int).Exp(big.NewInt(10), big.NewInt(100), nil)

// RecoverComposite attacks a doubly-encrypted ciphertext under a single
// modulus: c = m^(e1*e2) mod n. Five strategies are cascaded, each tried
// only when the previous one fails:
//
//  1. Wiener's attack on the combined exponent e1*e2.
//  2. The convergent search with a looser cap and without the e < n
//     range check, covering combined exponents above n and expansions
//     the default cap cut short.
//  3. When one exponent is disproportionately large, peel that layer with
//     Wiener alone, then finish the intermediate ciphertext with Wiener or
//     a low-exponent root extraction.
//  4. Wiener on e1 and e2 independently, both orders.
//  5. Factor n outright and derive the exponents from phi.
//
// Returns nil only after all five strategies are exhausted.
func RecoverComposite(ctx context.Context, n, e1, e2, c *big.Int, eng *factor.Engine, logf LogFunc) *big.Int {
	if n == nil || e1 == nil || e2 == nil || c == nil {
		return nil
	}
	if n.Cmp(one) <= 0 || e1.Cmp(one) <= 0 || e2.Cmp(one) <= 0 {
		return nil
	}

	eTotal := new(big.Int).Mul(e1, e2)
	logf.printf("[composite] n=%d bits, e1=%d bits, e2=%d bits, e1*e2=%d bits",
		n.BitLen(), e1.BitLen(), e2.BitLen(), eTotal.BitLen())

	// Strategy 1: direct Wiener on the combined exponent.
	if d := RecoverD(eTotal, n); d != nil {
		logf.printf("[composite] wiener on e1*e2 found %d-bit d", d.BitLen())
		return Decrypt(c, d, n)
	}

	// Strategy 2: retry with the extended convergent cap and no range
	// check, so combined exponents above n are still searched.
	if d := convergentSearch(eTotal, n, ExtendedConvergentLimit); d != nil {
		logf.printf("[composite] extended convergent search found %d-bit d", d.BitLen())
		return Decrypt(c, d, n)
	}

	if ctx.Err() != nil {
		return nil
	}

	// Strategy 3: peel a disproportionately large exponent first.
	if m := peelHugeExponent(n, e1, e2, c, logf); m != nil {
		return m
	}

	if ctx.Err() != nil {
		return nil
	}

	// Strategy 4: individual Wiener attacks, both orders.
	for _, order := range [][2]*big.Int{{e1, e2}, {e2, e1}} {
		first, second := order[0], order[1]
		dFirst := RecoverD(first, n)
		if dFirst == nil {
			continue
		}
		logf.printf("[composite] wiener on %d-bit exponent succeeded, reducing to single layer", first.BitLen())
		intermediate := Decrypt(c, dFirst, n)
		if dSecond := RecoverD(second, n); dSecond != nil {
			return Decrypt(intermediate, dSecond, n)
		}
		if m := RecoverLowExponent(second, n, intermediate); m != nil {
			return m
		}
	}

	if ctx.Err() != nil {
		return nil
	}

	// Strategy 5: factorization fallback.
	logf.printf("[composite] falling back to factorization")
	if eng == nil {
		eng = factor.NewEngine()
	}
	pair, err := eng.Factor(ctx, n)
	if err != nil || pair == nil {
		logf.printf("[composite] factorization did not produce a pair")
		return nil
	}

	phi := new(big.Int).Mul(
		new(big.Int).Sub(pair.P, one),
		new(big.Int).Sub(pair.Q, one),
	)

	if d, err := ModInverse(eTotal, phi); err == nil {
		return Decrypt(c, d, n)
	}

	// The combined exponent may share a factor with phi even when the
	// individual exponents do not.
	d1, err1 := ModInverse(e1, phi)
	if err1 != nil {
		logf.printf("[composite] e1 not invertible mod phi")
		return nil
	}
	d2, err2 := ModInverse(e2, phi)
	if err2 != nil {
		logf.printf("[composite] e2 not invertible mod phi")
		return nil
	}
	return Decrypt(Decrypt(c, d1, n), d2, n)
}

// peelHugeExponent implements strategy 3: when one exponent dwarfs the
// other, a Wiener-recoverable d often exists for the huge one alone.
func peelHugeExponent(n, e1, e2, c *big.Int, logf LogFunc) *big.Int {
	huge, small := e1, e2
	if e2.BitLen() > e1.BitLen() {
		huge, small = e2, e1
	}
	if huge.BitLen() <= hugeExponentBits && huge.Cmp(hugeExponentValue) <= 0 {
		return nil
	}
	logf.printf("[composite] %d-bit exponent dominates, peeling that layer", huge.BitLen())

	// The huge exponent usually exceeds n, so the unguarded search form.
	dHuge := convergentSearch(huge, n, DefaultConvergentLimit)
	if dHuge == nil {
		return nil
	}

	intermediate := Decrypt(c, dHuge, n)
	if dSmall := RecoverD(small, n); dSmall != nil {
		return Decrypt(intermediate, dSmall, n)
	}
	if m := RecoverLowExponent(small, n, intermediate); m != nil {
		return m
	}
	return nil
}

// CompositeExponentAttack is the cascade wrapper around RecoverComposite.
type CompositeExponentAttack struct {
	Engine *factor.Engine
	Logf   LogFunc
}

func (CompositeExponentAttack) Name() string { return "composite-exponent" }

func (a CompositeExponentAttack) Attempt(ctx context.Context, km *KeyMaterial) *Outcome {
	if km.N == nil || km.E1 == nil || km.E2 == nil || km.C == nil {
		return nil
	}
	if m := RecoverComposite(ctx, km.N, km.E1, km.E2, km.C, a.Engine, a.Logf); m != nil {
		return &Outcome{Plaintext: m, Method: a.Name()}
	}
	return nil
}
