package rsacrack

import (
	"fmt"
	"math/big"
)

// Decrypt performs textbook RSA decryption m = c^d mod n.
func Decrypt(c, d, n *big.Int) *big.Int {
	return new(big.Int).Exp(c, d, n)
}

// DecryptCRT decrypts a ciphertext from the CRT components of the private
// key: m1 = c^dp mod p, m2 = c^dq mod q, then the halves are recombined
// with Garner's formula m = m2 + q*((qinv*(m1-m2)) mod p).
//
// p and q must be coprime (always true for valid RSA primes); anything
// else is a contract violation reported as an error.
func DecryptCRT(c, p, q, dp, dq *big.Int) (*big.Int, error) {
	if p.Sign() <= 0 || q.Sign() <= 0 {
		return nil, fmt.Errorf("crt decrypt: p and q must be positive")
	}
	if dp.Sign() <= 0 || dq.Sign() <= 0 {
		return nil, fmt.Errorf("crt decrypt: dp and dq must be positive")
	}

	qinv, err := ModInverse(q, p)
	if err != nil {
		return nil, fmt.Errorf("crt decrypt: %w", err)
	}

	m1 := new(big.Int).Exp(c, dp, p)
	m2 := new(big.Int).Exp(c, dq, q)

	h := new(big.Int).Sub(m1, m2)
	h.Mul(h, qinv)
	h.Mod(h, p)

	m := new(big.Int).Mul(h, q)
	m.Add(m, m2)
	return m, nil
}
