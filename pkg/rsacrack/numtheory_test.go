package rsacrack

import (
	"crypto/rand"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestModInverse_RoundTrip(t *testing.T) {
	for i := 0; i < 50; i++ {
		m, err := rand.Prime(rand.Reader, 64)
		require.NoError(t, err)
		a, err := rand.Int(rand.Reader, m)
		require.NoError(t, err)
		if a.Sign() == 0 {
			continue
		}

		x, err := ModInverse(a, m)
		require.NoError(t, err)

		prod := new(big.Int).Mul(a, x)
		prod.Mod(prod, m)
		require.Equal(t, 0, prod.Cmp(one), "a*x mod m must be 1")
	}
}

func TestModInverse_NonCoprime(t *testing.T) {
	_, err := ModInverse(big.NewInt(6), big.NewInt(9))
	require.Error(t, err)
}

func TestModInverse_NonPositiveModulus(t *testing.T) {
	_, err := ModInverse(big.NewInt(3), big.NewInt(0))
	require.Error(t, err)

	_, err = ModInverse(big.NewInt(3), big.NewInt(-5))
	require.Error(t, err)
}

func TestIsPerfectSquare(t *testing.T) {
	r, err := rand.Int(rand.Reader, new(big.Int).Lsh(one, 128))
	require.NoError(t, err)

	square := new(big.Int).Mul(r, r)
	require.True(t, IsPerfectSquare(square))

	notSquare := new(big.Int).Add(square, one)
	if r.Sign() > 0 {
		require.False(t, IsPerfectSquare(notSquare))
	}
	require.False(t, IsPerfectSquare(big.NewInt(-4)))
}

func TestRoot(t *testing.T) {
	base := big.NewInt(123456789)

	for k := 2; k <= 7; k++ {
		x := new(big.Int).Exp(base, big.NewInt(int64(k)), nil)

		r, exact := Root(x, k)
		require.True(t, exact, "exact %d-th power must report exact", k)
		require.Equal(t, 0, r.Cmp(base))

		r, exact = Root(new(big.Int).Add(x, one), k)
		require.False(t, exact)
		require.Equal(t, 0, r.Cmp(base), "floor root of x^k+1 is still the base")
	}

	_, ok := Root(big.NewInt(-8), 3)
	require.False(t, ok)
}

func TestComputeD_RoundTrip(t *testing.T) {
	p, err := rand.Prime(rand.Reader, 128)
	require.NoError(t, err)
	q, err := rand.Prime(rand.Reader, 128)
	require.NoError(t, err)
	n := new(big.Int).Mul(p, q)
	e := big.NewInt(65537)

	d, err := ComputeD(p, q, e)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		m, err := rand.Int(rand.Reader, n)
		require.NoError(t, err)

		c := new(big.Int).Exp(m, e, n)
		back := new(big.Int).Exp(c, d, n)
		require.Equal(t, 0, back.Cmp(m))
	}
}

func TestComputeD_PrimeSquare(t *testing.T) {
	p, err := rand.Prime(rand.Reader, 64)
	require.NoError(t, err)
	n := new(big.Int).Mul(p, p)
	e := big.NewInt(65537)

	// phi(p^2) = p*(p-1)
	d, err := ComputeD(p, p, e)
	require.NoError(t, err)

	m := big.NewInt(123456789)
	c := new(big.Int).Exp(m, e, n)
	back := new(big.Int).Exp(c, d, n)
	require.Equal(t, 0, back.Cmp(m))
}

func TestComputeD_Invalid(t *testing.T) {
	_, err := ComputeD(big.NewInt(0), big.NewInt(5), big.NewInt(3))
	require.Error(t, err)

	_, err = ComputeD(big.NewInt(5), big.NewInt(7), big.NewInt(1))
	require.Error(t, err)

	// e shares a factor with phi = 4*6 = 24.
	_, err = ComputeD(big.NewInt(5), big.NewInt(7), big.NewInt(6))
	require.Error(t, err)
}
