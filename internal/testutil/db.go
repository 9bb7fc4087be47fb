package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"it-inventory-manager/internal/log"
	"it-inventory-manager/internal/models"
	"it-inventory-manager/internal/store"

	"github.com/stretchr/testify/require"
)

// NewTestStore opens an initialized store in a fresh temporary directory.
// The store is closed when the test completes.
func NewTestStore(t *testing.T, opts ...store.Option) *store.Store {
	t.Helper()
	ctx := context.Background()

	opts = append([]store.Option{store.WithLogger(log.Discard())}, opts...)
	s, err := store.Open(ctx, DBPath(t), opts...)
	require.NoError(t, err, "open test store")

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Logf("Warning: failed to close test store: %v", err)
		}
	})

	require.NoError(t, s.Initialize(ctx), "initialize test store")
	return s
}

// DBPath returns a database file path inside the test's temporary directory.
func DBPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "inventory.db")
}

// SeedAssets inserts assets in order and returns their ids.
func SeedAssets(t *testing.T, s *store.Store, assets ...models.Asset) []int64 {
	t.Helper()
	ids := make([]int64, 0, len(assets))
	for _, a := range assets {
		id, err := s.InsertAsset(context.Background(), a)
		require.NoError(t, err, "seed asset %q", a.SerialNumber)
		ids = append(ids, id)
	}
	return ids
}

// Asset builds a complete asset whose serial number and assignee carry name.
func Asset(name string) models.Asset {
	return models.Asset{
		AssignedTo:         name,
		Brand:              "Dell",
		Model:              "XPS13",
		SerialNumber:       "SN-" + name,
		MACAddress:         "AA:BB:CC:DD:EE:FF",
		IPAddress:          "10.0.0.1",
		WarrantyExpiration: "2026-01-01",
		Notes:              "none",
	}
}
