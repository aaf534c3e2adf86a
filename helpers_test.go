package lahza

import (
	"testing"

	"github.com/poiesic/lahza/storage/badger"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *badger.Store {
	t.Helper()
	store, err := badger.NewMemoryStore()
	require.NoError(t, err)
	return store
}
