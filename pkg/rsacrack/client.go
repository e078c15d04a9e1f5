package rsacrack

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ctfkit/rsacrack/pkg/factor"
)

// ErrNotRecovered is returned by Crack when every applicable attack has
// been exhausted without producing a plaintext. It is the expected common
// case for well-generated keys, not an exceptional condition.
var ErrNotRecovered = errors.New("no attack recovered the plaintext")

// Client orchestrates the attack cascade over a set of key material.
type Client struct {
	attacks []Attack
	custom  bool // attacks were installed via WithAttacks
	engine  *factor.Engine
	logf    LogFunc
}

// NewClient creates a client with the default attack order and a default
// factorization engine (no external lookup).
func NewClient() *Client {
	c := &Client{engine: factor.NewEngine()}
	c.attacks = c.defaultAttacks()
	return c
}

// WithLogf sets the progress narration sink and propagates it to the
// default attack cascade and the factorization engine.
func (c *Client) WithLogf(logf LogFunc) *Client {
	c.logf = logf
	c.engine = c.engine.WithLogf(factor.LogFunc(logf))
	if !c.custom {
		c.attacks = c.defaultAttacks()
	}
	return c
}

// WithEngine sets a custom factorization engine (e.g. one wired to an
// external factor database).
func (c *Client) WithEngine(engine *factor.Engine) *Client {
	c.engine = engine
	if !c.custom {
		c.attacks = c.defaultAttacks()
	}
	return c
}

// WithAttacks replaces the attack cascade. The attacks run in slice order
// and the first success wins. Later WithLogf/WithEngine calls leave an
// installed cascade alone.
func (c *Client) WithAttacks(attacks []Attack) *Client {
	c.attacks = attacks
	c.custom = true
	return c
}

// defaultAttacks is the documented priority order: exact, cheap attacks
// first; deterministic bounded searches next; probabilistic and
// network-backed factoring last.
func (c *Client) defaultAttacks() []Attack {
	return []Attack{
		DirectDecryptAttack{},
		CRTDecryptAttack{Logf: c.logf},
		LowExponentAttack{Logf: c.logf},
		BroadcastAttack{Logf: c.logf},
		CompositeExponentAttack{Engine: c.engine, Logf: c.logf},
		EvenModulusAttack{Logf: c.logf},
		PrimeModulusAttack{Logf: c.logf},
		WienerAttack{Logf: c.logf},
		FactorAttack{Engine: c.engine, Logf: c.logf},
	}
}

// Crack validates the key material, fills in derivable values, then runs
// the attack cascade, short-circuiting on the first success. Cancellation
// is honored at every attack boundary; an attack already in progress is
// never forcibly interrupted.
//
// The key material is enriched in place: factors or exponents derived by
// partially successful attacks remain available to the caller afterwards.
func (c *Client) Crack(ctx context.Context, km *KeyMaterial) (*Outcome, error) {
	if km == nil {
		return nil, fmt.Errorf("crack: nil key material")
	}
	if err := km.Validate(); err != nil {
		return nil, fmt.Errorf("crack: %w", err)
	}

	c.fillDerived(km)

	for _, attack := range c.attacks {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("crack: %w", err)
		}
		if outcome := attack.Attempt(ctx, km); outcome != nil {
			c.logf.printf("[+] %s attack succeeded", outcome.Method)
			return outcome, nil
		}
	}

	return nil, ErrNotRecovered
}

// fillDerived opportunistically computes missing values from the ones
// present: n from p*q, and d from (p, q, e).
func (c *Client) fillDerived(km *KeyMaterial) {
	if km.P != nil && km.Q != nil {
		if km.N == nil {
			km.N = new(big.Int).Mul(km.P, km.Q)
			c.logf.printf("[derive] n = p*q (%d bits)", km.N.BitLen())
		}
		if km.D == nil && km.E != nil {
			if d, err := ComputeD(km.P, km.Q, km.E); err == nil {
				km.D = d
				c.logf.printf("[derive] d computed from p, q, e")
			} else {
				c.logf.printf("[derive] %v", err)
			}
		}
	}

	// A lone ciphertext alongside broadcast pairs joins the pair list
	// when the primary modulus is known. A pair already in the list is
	// not added again: a repeated modulus would break the CRT step.
	if km.C != nil && km.N != nil && len(km.Ciphertexts) > 0 && len(km.Ciphertexts) == len(km.Moduli) {
		for i := range km.Moduli {
			if km.Moduli[i].Cmp(km.N) == 0 && km.Ciphertexts[i].Cmp(km.C) == 0 {
				return
			}
		}
		km.Ciphertexts = append([]*big.Int{km.C}, km.Ciphertexts...)
		km.Moduli = append([]*big.Int{km.N}, km.Moduli...)
	}
}
