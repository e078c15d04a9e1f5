package rsacrack

import (
	"crypto/rand"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

// genWienerKey builds an RSA key with a deliberately small private
// exponent, well inside the d < n^(1/4)/3 recovery bound.
func genWienerKey(t *testing.T, modBits, dBits int) (e, n, d, p, q *big.Int) {
	t.Helper()

	for attempt := 0; attempt < 50; attempt++ {
		var err error
		p, err = rand.Prime(rand.Reader, modBits/2)
		require.NoError(t, err)
		q, err = rand.Prime(rand.Reader, modBits/2)
		require.NoError(t, err)
		if p.Cmp(q) == 0 {
			continue
		}

		n = new(big.Int).Mul(p, q)
		phi := new(big.Int).Mul(
			new(big.Int).Sub(p, one),
			new(big.Int).Sub(q, one),
		)

		d, err = rand.Prime(rand.Reader, dBits)
		require.NoError(t, err)
		if new(big.Int).GCD(nil, nil, d, phi).Cmp(one) != 0 {
			continue
		}

		e, err = ModInverse(d, phi)
		if err != nil {
			continue
		}
		return e, n, d, p, q
	}

	t.Fatal("could not generate a Wiener-weak key")
	return nil, nil, nil, nil, nil
}

func TestRecoverD_SmallExponent(t *testing.T) {
	e, n, d, _, _ := genWienerKey(t, 512, 40)

	got := RecoverD(e, n)
	require.NotNil(t, got, "d well below n^(1/4)/3 must be recovered")
	require.Equal(t, 0, got.Cmp(d))
}

func TestRecoverD_LargeExponentNoFalsePositive(t *testing.T) {
	// A standard e=65537 key has d on the order of n; Wiener must fail
	// cleanly instead of reporting a coincidental convergent.
	p, err := rand.Prime(rand.Reader, 256)
	require.NoError(t, err)
	q, err := rand.Prime(rand.Reader, 256)
	require.NoError(t, err)
	n := new(big.Int).Mul(p, q)

	require.Nil(t, RecoverD(big.NewInt(65537), n))
}

func TestRecoverD_InvalidInputs(t *testing.T) {
	n := big.NewInt(3233)
	require.Nil(t, RecoverD(big.NewInt(1), n), "e must exceed 1")
	require.Nil(t, RecoverD(big.NewInt(5000), n), "e must be below n")
}

func TestConvergentSearch_ExponentAboveModulus(t *testing.T) {
	eBig, n, d := genLargeExponentKey(t, 512, 40)

	// The public entry point keeps its range check; the raw search form
	// must still recover d past it.
	require.Nil(t, RecoverD(eBig, n))

	got := convergentSearch(eBig, n, ExtendedConvergentLimit)
	require.NotNil(t, got)
	require.Equal(t, 0, got.Cmp(d))
}

func TestRecoverD_Idempotent(t *testing.T) {
	e, n, _, _, _ := genWienerKey(t, 512, 40)

	first := RecoverD(e, n)
	second := RecoverD(e, n)
	require.NotNil(t, first)
	require.NotNil(t, second)
	require.Equal(t, 0, first.Cmp(second))
}

func TestConvergents(t *testing.T) {
	// 17/12 = [1; 2, 2, 2] with convergents 1/1, 3/2, 7/5, 17/12.
	cs := Convergents(big.NewInt(17), big.NewInt(12), 10)
	require.Len(t, cs, 4)

	want := [][2]int64{{1, 1}, {3, 2}, {7, 5}, {17, 12}}
	for i, cv := range cs {
		require.Equal(t, 0, cv.H.Cmp(big.NewInt(want[i][0])))
		require.Equal(t, 0, cv.K.Cmp(big.NewInt(want[i][1])))
	}
}

func TestConvergents_Capped(t *testing.T) {
	e, n, _, _, _ := genWienerKey(t, 512, 40)
	cs := Convergents(e, n, 7)
	require.LessOrEqual(t, len(cs), 7)
}

func TestFactorsFromPhi(t *testing.T) {
	p := big.NewInt(61)
	q := big.NewInt(53)
	n := new(big.Int).Mul(p, q)
	phi := big.NewInt(60 * 52)

	gotP, gotQ := factorsFromPhi(n, phi)
	require.NotNil(t, gotP)
	require.NotNil(t, gotQ)
	require.Equal(t, 0, new(big.Int).Mul(gotP, gotQ).Cmp(n))

	wrongPhi := new(big.Int).Add(phi, one)
	gotP, gotQ = factorsFromPhi(n, wrongPhi)
	require.Nil(t, gotP)
	require.Nil(t, gotQ)
}
