package rsacrack

import (
	"fmt"
	"math/big"
	"strings"
	"unicode/utf8"
)

// KeyMaterial is the sparse set of RSA parameters known to the caller.
// Every field is optional (nil = unknown). The cracking client enriches
// it in place as attacks succeed partially, e.g. factoring fills P and Q
// before D is derived. A KeyMaterial never outlives one cracking attempt.
type KeyMaterial struct {
	E  *big.Int // public exponent
	E1 *big.Int // first exponent of a double encryption
	E2 *big.Int // second exponent of a double encryption
	N  *big.Int // modulus
	C  *big.Int // ciphertext
	P  *big.Int // first prime factor
	Q  *big.Int // second prime factor
	D  *big.Int // private exponent
	DP *big.Int // d mod (p-1)
	DQ *big.Int // d mod (q-1)

	// Ciphertexts and Moduli are aligned pairs for the broadcast attack:
	// the same plaintext encrypted under Moduli[i] yielding Ciphertexts[i].
	Ciphertexts []*big.Int
	Moduli      []*big.Int
}

// Validate checks the basic RSA range constraints on every present field:
// n, p, q positive; 1 < e < n when both are known; d positive. The derived
// invariant n == p*q is also checked when all three are present.
func (km *KeyMaterial) Validate() error {
	for _, f := range []struct {
		name string
		v    *big.Int
	}{{"n", km.N}, {"p", km.P}, {"q", km.Q}} {
		if f.v != nil && f.v.Sign() <= 0 {
			return fmt.Errorf("key material: %s must be positive, got %s", f.name, f.v)
		}
	}

	// e1 and e2 only get the lower bound: double-encryption exponents
	// larger than n are legitimate attack inputs.
	for _, f := range []struct {
		name string
		v    *big.Int
	}{{"e", km.E}, {"e1", km.E1}, {"e2", km.E2}} {
		if f.v == nil {
			continue
		}
		if f.v.Cmp(one) <= 0 {
			return fmt.Errorf("key material: %s must be greater than 1, got %s", f.name, f.v)
		}
	}
	if km.E != nil && km.N != nil && km.E.Cmp(km.N) >= 0 {
		return fmt.Errorf("key material: e must be smaller than n")
	}

	if km.D != nil && km.D.Sign() <= 0 {
		return fmt.Errorf("key material: d must be positive, got %s", km.D)
	}

	if km.N != nil && km.P != nil && km.Q != nil {
		if new(big.Int).Mul(km.P, km.Q).Cmp(km.N) != 0 {
			return fmt.Errorf("key material: n != p*q")
		}
	}

	return nil
}

// ParseBigInt parses a non-negative integer from its decimal or
// 0x-prefixed hexadecimal string form.
func ParseBigInt(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty number")
	}

	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
		base = 16
	}

	z, ok := new(big.Int).SetString(s, base)
	if !ok {
		return nil, fmt.Errorf("invalid number format: %q", s)
	}
	if z.Sign() < 0 {
		return nil, fmt.Errorf("negative value not allowed: %q", s)
	}
	return z, nil
}

// IntToBytes converts a non-negative integer to its minimal big-endian
// byte representation. Zero encodes as a single zero byte.
func IntToBytes(n *big.Int) []byte {
	if n.Sign() == 0 {
		return []byte{0}
	}
	return n.Bytes()
}

// TryDecode renders a recovered plaintext buffer as text on a best-effort
// basis: valid UTF-8 comes back stripped of surrounding whitespace,
// anything else is flagged as binary.
func TryDecode(b []byte) string {
	if utf8.Valid(b) {
		s := strings.TrimSpace(string(b))
		if s != "" && isMostlyPrintable(s) {
			return s
		}
	}
	return "<binary/non-utf8>"
}

func isMostlyPrintable(s string) bool {
	printable := 0
	total := 0
	for _, r := range s {
		total++
		if r >= 0x20 && r != 0x7f {
			printable++
		}
	}
	return total > 0 && printable*10 >= total*9
}
