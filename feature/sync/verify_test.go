package sync

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleet-sync/core/catalog"
	"fleet-sync/core/reconcile"
	"fleet-sync/feature/identity"
)

func catalogWith(t *testing.T, listingsJSON string) *catalog.Client {
	t.Helper()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet && r.URL.Path == "/vehicles" {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(listingsJSON))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(ts.Close)

	client, err := catalog.NewClient(catalog.Config{BaseURL: ts.URL})
	require.NoError(t, err)
	return client
}

func TestVerify_Clean(t *testing.T) {
	store := identity.NewMemoryStore(reconcile.Mapping{
		ExternalID:     "VIN1",
		RemoteID:       "car-1",
		LastKnownPrice: decimal.RequireFromString("90000"),
	})
	client := catalogWith(t, `[
		{"id":"car-1","externalId":"VIN1","active":true,"pricing":{"salesPrice":"90000"}}
	]`)

	result, err := Verify(context.Background(), store, client)
	require.NoError(t, err)

	assert.True(t, result.Clean())
	assert.Equal(t, 1, result.Mapped)
	assert.Equal(t, 1, result.RemoteActive)
}

func TestVerify_DetectsDrift(t *testing.T) {
	store := identity.NewMemoryStore(
		// Listing vanished on the platform.
		reconcile.Mapping{ExternalID: "VIN1", RemoteID: "car-1", LastKnownPrice: decimal.NewFromInt(100)},
		// Price changed behind our back.
		reconcile.Mapping{ExternalID: "VIN2", RemoteID: "car-2", LastKnownPrice: decimal.NewFromInt(200)},
	)
	client := catalogWith(t, `[
		{"id":"car-2","externalId":"VIN2","active":true,"pricing":{"salesPrice":"150"}},
		{"id":"car-3","externalId":"VIN3","active":true,"pricing":{"salesPrice":"300"}},
		{"id":"car-4","externalId":"VIN4","active":false,"pricing":{"salesPrice":"400"}}
	]`)

	result, err := Verify(context.Background(), store, client)
	require.NoError(t, err)

	assert.False(t, result.Clean())

	require.Len(t, result.Stale, 1)
	assert.Equal(t, "VIN1", result.Stale[0].ExternalID)

	require.Len(t, result.PriceDrift, 1)
	assert.Equal(t, "VIN2", result.PriceDrift[0].ExternalID)
	assert.Contains(t, result.PriceDrift[0].Detail, "150")

	// car-3 is live but untracked; car-4 is inactive and ignored.
	require.Len(t, result.Untracked, 1)
	assert.Equal(t, "VIN3", result.Untracked[0].ExternalID)
}

func TestVerify_ListFailure(t *testing.T) {
	store := identity.NewMemoryStore()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(ts.Close)

	client, err := catalog.NewClient(catalog.Config{BaseURL: ts.URL})
	require.NoError(t, err)

	_, err = Verify(context.Background(), store, client)
	require.Error(t, err)
}
