package factor

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPollardRho(t *testing.T) {
	p := big.NewInt(1000003)
	q := big.NewInt(1000033)
	n := new(big.Int).Mul(p, q)

	f := pollardRho(context.Background(), n, rhoSeeds, rhoMaxIter)
	require.NotNil(t, f)
	require.True(t, f.Cmp(p) == 0 || f.Cmp(q) == 0)
}

func TestPollardRhoBrent(t *testing.T) {
	p := big.NewInt(1000003)
	q := big.NewInt(1000033)
	n := new(big.Int).Mul(p, q)

	f := pollardRhoBrent(context.Background(), n, rhoMaxIter)
	require.NotNil(t, f)
	require.True(t, f.Cmp(p) == 0 || f.Cmp(q) == 0)
}

func TestPollardRho_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n := new(big.Int).Mul(mustPrime(t, 100), mustPrime(t, 100))
	require.Nil(t, pollardRho(ctx, n, rhoSeeds, rhoMaxIter))
	require.Nil(t, pollardRhoBrent(ctx, n, rhoMaxIter))
}

func TestPollardRho_TinyModulus(t *testing.T) {
	require.Nil(t, pollardRho(context.Background(), two, rhoSeeds, rhoMaxIter))
}
