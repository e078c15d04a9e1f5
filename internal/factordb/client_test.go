package factordb

import (
	"context"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	return NewClient().WithBaseURL(srv.URL), srv
}

func TestFactors_FullyFactored(t *testing.T) {
	p := big.NewInt(1000003)
	q := big.NewInt(1000033)
	n := new(big.Int).Mul(p, q)

	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, n.String(), r.URL.Query().Get("query"))
		fmt.Fprintf(w, `{"status":"FF","factors":[["%s",1],["%s",1]]}`, q, p)
	})
	defer srv.Close()

	pair, err := c.Factors(context.Background(), n)
	require.NoError(t, err)
	require.Equal(t, 0, pair.P.Cmp(p), "pair must come back ordered")
	require.Equal(t, 0, pair.Q.Cmp(q))
}

func TestFactors_PerfectSquareViaExponent(t *testing.T) {
	p := big.NewInt(1000003)
	n := new(big.Int).Mul(p, p)

	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"status":"FF","factors":[["%s",2]]}`, p)
	})
	defer srv.Close()

	pair, err := c.Factors(context.Background(), n)
	require.NoError(t, err)
	require.Equal(t, 0, pair.P.Cmp(p))
	require.Equal(t, 0, pair.Q.Cmp(p))
}

func TestFactors_UnfactoredStatuses(t *testing.T) {
	for _, status := range []string{"C", "CF", "P", "U"} {
		c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintf(w, `{"status":"%s","factors":[]}`, status)
		})
		pair, err := c.Factors(context.Background(), big.NewInt(1000003))
		srv.Close()
		require.Error(t, err, "status %s", status)
		require.Nil(t, pair)
	}
}

func TestFactors_WrongProductRejected(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"FF","factors":[["17",1],["19",1]]}`)
	})
	defer srv.Close()

	_, err := c.Factors(context.Background(), big.NewInt(1000033))
	require.Error(t, err)
}

func TestFactors_TooManyFactors(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"FF","factors":[["3",1],["5",1],["7",1]]}`)
	})
	defer srv.Close()

	_, err := c.Factors(context.Background(), big.NewInt(105))
	require.Error(t, err)
}

func TestFactors_ServerError(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down for maintenance", http.StatusBadGateway)
	})
	defer srv.Close()

	_, err := c.Factors(context.Background(), big.NewInt(1000003))
	require.Error(t, err)
}

func TestFactors_MalformedJSON(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":`)
	})
	defer srv.Close()

	_, err := c.Factors(context.Background(), big.NewInt(1000003))
	require.Error(t, err)
}

func TestFactors_ContextCancelled(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"FF","factors":[]}`)
	})
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Factors(ctx, big.NewInt(1000003))
	require.Error(t, err)
}
