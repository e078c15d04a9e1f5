package factor

import (
	"context"
	"crypto/rand"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPrimesUpTo(t *testing.T) {
	require.Equal(t, []uint64{2, 3, 5, 7, 11, 13, 17, 19, 23, 29}, primesUpTo(30))
	require.Equal(t, []uint64{2}, primesUpTo(2))
	require.Nil(t, primesUpTo(1))
}

func TestECMAdd_SurfacesFactor(t *testing.T) {
	// Doubling a point whose y shares a factor with n makes the slope
	// denominator 2y non-invertible; the gcd must surface that factor.
	n := big.NewInt(35)
	pt := ecmPoint{x: big.NewInt(1), y: big.NewInt(5)}

	_, f := ecmAdd(n, big.NewInt(1), pt, pt)
	require.NotNil(t, f)
	require.Equal(t, int64(5), f.Int64())
}

func TestECMAdd_Infinity(t *testing.T) {
	n := big.NewInt(35)
	p := ecmPoint{x: big.NewInt(3), y: big.NewInt(4)}
	q := ecmPoint{x: big.NewInt(3), y: big.NewInt(31)} // y_q = -y_p mod n

	r, f := ecmAdd(n, big.NewInt(1), p, q)
	require.Nil(t, f)
	require.True(t, r.inf)

	r, f = ecmAdd(n, big.NewInt(1), ecmPoint{inf: true}, p)
	require.Nil(t, f)
	require.Equal(t, 0, r.x.Cmp(p.x))
}

func TestECMBand_FindsSmallFactor(t *testing.T) {
	// One factor is small enough that a random curve's order is
	// B1-smooth with good probability; 160 curves make a miss vanishingly
	// unlikely.
	p, err := rand.Prime(rand.Reader, 21)
	require.NoError(t, err)
	q, err := rand.Prime(rand.Reader, 64)
	require.NoError(t, err)
	n := new(big.Int).Mul(p, q)

	band := Band{
		MaxBits:         128,
		B1:              10_000,
		CurvesPerWorker: 40,
		Workers:         4,
		Timeout:         30 * time.Second,
	}
	f := NewEngine().ecmBand(context.Background(), n, band)
	require.NotNil(t, f)
	require.Zero(t, new(big.Int).Mod(n, f).Sign())
	require.True(t, f.Cmp(one) > 0 && f.Cmp(n) < 0)
}

func TestECMBand_TimeoutReturnsNil(t *testing.T) {
	// Two large factors are far beyond stage 1 at this bound; the band
	// must give up at its deadline.
	p, err := rand.Prime(rand.Reader, 256)
	require.NoError(t, err)
	q, err := rand.Prime(rand.Reader, 256)
	require.NoError(t, err)
	n := new(big.Int).Mul(p, q)

	band := Band{
		MaxBits:         512,
		B1:              100_000,
		CurvesPerWorker: 1000,
		Workers:         2,
		Timeout:         100 * time.Millisecond,
	}
	start := time.Now()
	f := NewEngine().ecmBand(context.Background(), n, band)
	require.Nil(t, f)
	require.Less(t, time.Since(start), 5*time.Second)
}
