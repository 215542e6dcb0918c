package valorant

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAccountLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/account/Player/JP1", r.URL.Path)
		require.Equal(t, "test-key", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": 200,
			"data": {
				"puuid": "abc-123",
				"name": "Player",
				"tag": "JP1",
				"region": "ap",
				"account_level": 42
			}
		}`))
	}))
	defer srv.Close()

	c := New("test-key", srv.URL)

	account, err := c.Account(context.Background(), "Player", "JP1")
	require.NoError(t, err)
	require.Equal(t, "abc-123", account.PUUID)
	require.Equal(t, "ap", account.Region)
	require.Equal(t, 42, account.AccountLevel)
}

func TestMMRLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v2/mmr/ap/Player/JP1", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": 200,
			"data": {
				"current_data": {
					"currenttierpatched": "Diamond 2",
					"ranking_in_tier": 61,
					"mmr_change_to_last_game": 19,
					"elo": 1761
				}
			}
		}`))
	}))
	defer srv.Close()

	c := New("test-key", srv.URL)

	mmr, err := c.MMR(context.Background(), "ap", "Player", "JP1")
	require.NoError(t, err)
	require.Equal(t, "Diamond 2", mmr.CurrentTier)
	require.Equal(t, 1761, mmr.Elo)
}

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusNotFound, ErrNotFound},
		{http.StatusTooManyRequests, ErrRateLimited},
		{http.StatusForbidden, ErrForbidden},
		{http.StatusUnauthorized, ErrForbidden},
	}

	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))

		c := New("test-key", srv.URL)
		_, err := c.Account(context.Background(), "Player", "JP1")
		require.ErrorIs(t, err, tc.want, "status %d", tc.status)

		srv.Close()
	}
}

func TestUnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New("test-key", srv.URL)
	_, err := c.Account(context.Background(), "Player", "JP1")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNotFound)
}
