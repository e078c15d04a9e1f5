package rsacrack

import (
	"context"
	"math/big"

	"github.com/ctfkit/rsacrack/pkg/factor"
)

// LogFunc receives human-readable progress narration from long-running
// attacks. It is purely informational: nothing about an attack's outcome
// is communicated through it. A nil LogFunc silences narration.
type LogFunc func(format string, args ...any)

func (f LogFunc) printf(format string, args ...any) {
	if f != nil {
		f(format, args...)
	}
}

// Outcome is a successful attack result: the recovered plaintext and the
// name of the attack that produced it. Attacks that fail or do not apply
// return a nil *Outcome; there are no partial-success states.
type Outcome struct {
	Plaintext *big.Int
	Method    string
}

// Attack is one strategy in the cracking cascade. Attempt inspects the key
// material, runs when its preconditions hold, and returns nil otherwise.
// Attempt may enrich the key material with values it derives along the way
// (factors, private exponents) even when it does not finish the job itself.
// Implementations must honor ctx cancellation at reasonable boundaries.
type Attack interface {
	Name() string
	Attempt(ctx context.Context, km *KeyMaterial) *Outcome
}

// DirectDecryptAttack decrypts immediately when c, d and n are all known.
type DirectDecryptAttack struct{}

func (DirectDecryptAttack) Name() string { return "direct" }

func (a DirectDecryptAttack) Attempt(_ context.Context, km *KeyMaterial) *Outcome {
	if km.C == nil || km.D == nil || km.N == nil {
		return nil
	}
	return &Outcome{Plaintext: Decrypt(km.C, km.D, km.N), Method: a.Name()}
}

// CRTDecryptAttack decrypts from the CRT components (p, q, dp, dq).
type CRTDecryptAttack struct {
	Logf LogFunc
}

func (CRTDecryptAttack) Name() string { return "crt" }

func (a CRTDecryptAttack) Attempt(_ context.Context, km *KeyMaterial) *Outcome {
	if km.C == nil || km.P == nil || km.Q == nil || km.DP == nil || km.DQ == nil {
		return nil
	}
	m, err := DecryptCRT(km.C, km.P, km.Q, km.DP, km.DQ)
	if err != nil {
		a.Logf.printf("[crt] %v", err)
		return nil
	}
	return &Outcome{Plaintext: m, Method: a.Name()}
}

// LowExponentAttack takes the e-th root of c when e is tiny and the
// plaintext did not wrap the modulus.
type LowExponentAttack struct {
	Logf LogFunc
}

func (LowExponentAttack) Name() string { return "low-exponent" }

func (a LowExponentAttack) Attempt(_ context.Context, km *KeyMaterial) *Outcome {
	if km.E == nil || km.N == nil || km.C == nil {
		return nil
	}
	if m := RecoverLowExponent(km.E, km.N, km.C); m != nil {
		a.Logf.printf("[low-exponent] exact %s-th root found", km.E)
		return &Outcome{Plaintext: m, Method: a.Name()}
	}
	return nil
}

// BroadcastAttack applies Håstad's attack to the ciphertext/modulus pairs.
type BroadcastAttack struct {
	Logf LogFunc
}

func (BroadcastAttack) Name() string { return "hastad-broadcast" }

func (a BroadcastAttack) Attempt(_ context.Context, km *KeyMaterial) *Outcome {
	if km.E == nil || len(km.Ciphertexts) < 2 || len(km.Moduli) < 2 {
		return nil
	}
	if m := RecoverBroadcast(km.E, km.Ciphertexts, km.Moduli, a.Logf); m != nil {
		return &Outcome{Plaintext: m, Method: a.Name()}
	}
	return nil
}

// WienerAttack recovers a small private exponent from (e, n) and, when a
// ciphertext is present, decrypts it. The derived d (and the factors that
// verified it) are written back into the key material.
type WienerAttack struct {
	Logf LogFunc
}

func (WienerAttack) Name() string { return "wiener" }

func (a WienerAttack) Attempt(_ context.Context, km *KeyMaterial) *Outcome {
	if km.E == nil || km.N == nil || km.D != nil {
		return nil
	}
	d := RecoverD(km.E, km.N)
	if d == nil {
		return nil
	}
	a.Logf.printf("[wiener] recovered %d-bit private exponent", d.BitLen())
	km.D = d
	if km.C == nil {
		return nil
	}
	return &Outcome{Plaintext: Decrypt(km.C, km.D, km.N), Method: a.Name()}
}

// EvenModulusAttack handles the catastrophic case of an even modulus:
// one factor must be 2.
type EvenModulusAttack struct {
	Logf LogFunc
}

func (EvenModulusAttack) Name() string { return "even-modulus" }

func (a EvenModulusAttack) Attempt(_ context.Context, km *KeyMaterial) *Outcome {
	if km.N == nil || km.E == nil || km.C == nil || km.N.Bit(0) != 0 {
		return nil
	}

	q := new(big.Int).Rsh(km.N, 1)
	if q.Bit(0) == 0 {
		// n divisible by 4, not a semiprime with p=2.
		return nil
	}
	a.Logf.printf("[even-modulus] n is even, using p=2, q=n/2")

	phi := new(big.Int).Sub(q, one) // (2-1)*(q-1)
	d, err := ModInverse(km.E, phi)
	if err != nil {
		a.Logf.printf("[even-modulus] %v", err)
		return nil
	}

	km.P = big.NewInt(2)
	km.Q = q
	km.D = d
	return &Outcome{Plaintext: Decrypt(km.C, d, km.N), Method: a.Name()}
}

// PrimeModulusAttack handles a modulus that is itself prime (a broken key
// generator): phi = n - 1, so d follows directly.
type PrimeModulusAttack struct {
	Logf LogFunc
}

func (PrimeModulusAttack) Name() string { return "prime-modulus" }

func (a PrimeModulusAttack) Attempt(_ context.Context, km *KeyMaterial) *Outcome {
	if km.N == nil || km.E == nil || km.C == nil {
		return nil
	}
	if !km.N.ProbablyPrime(20) {
		return nil
	}
	a.Logf.printf("[prime-modulus] n is prime, deriving d from phi = n-1")

	phi := new(big.Int).Sub(km.N, one)
	d, err := ModInverse(km.E, phi)
	if err != nil {
		a.Logf.printf("[prime-modulus] %v", err)
		return nil
	}

	km.D = d
	return &Outcome{Plaintext: Decrypt(km.C, d, km.N), Method: a.Name()}
}

// FactorAttack invokes the factorization engine and, on success, derives
// the private exponent and decrypts. The factors and d are written back
// into the key material even when no ciphertext is available.
type FactorAttack struct {
	Engine *factor.Engine
	Logf   LogFunc
}

func (FactorAttack) Name() string { return "factorization" }

func (a FactorAttack) Attempt(ctx context.Context, km *KeyMaterial) *Outcome {
	if km.N == nil || km.P != nil {
		return nil
	}
	eng := a.Engine
	if eng == nil {
		eng = factor.NewEngine()
	}

	pair, err := eng.Factor(ctx, km.N)
	if err != nil {
		a.Logf.printf("[factorization] %v", err)
		return nil
	}
	if pair == nil {
		return nil
	}
	a.Logf.printf("[factorization] n = p*q with p=%d bits, q=%d bits", pair.P.BitLen(), pair.Q.BitLen())
	km.P = pair.P
	km.Q = pair.Q

	if km.E == nil {
		return nil
	}
	d, err := ComputeD(km.P, km.Q, km.E)
	if err != nil {
		a.Logf.printf("[factorization] %v", err)
		return nil
	}
	km.D = d

	if km.C == nil {
		return nil
	}
	return &Outcome{Plaintext: Decrypt(km.C, d, km.N), Method: a.Name()}
}
