package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/tabsettle/internal/models"
	"github.com/mmynk/tabsettle/internal/storage"
	"github.com/mmynk/tabsettle/internal/storage/storetest"
)

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) storage.Store { return New() })
}

func TestStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := New()

	g := &models.Group{Name: "Flat", MemberIDs: []string{"a", "b"}}
	require.NoError(t, s.CreateGroup(ctx, g))
	g.MemberIDs[0] = "mutated"

	got, err := s.GetGroup(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got.MemberIDs)

	got.MemberIDs[1] = "mutated"
	again, err := s.GetGroup(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, again.MemberIDs)
}

func TestStoreConcurrentWrites(t *testing.T) {
	ctx := context.Background()
	s := New()
	g := &models.Group{Name: "Flat", MemberIDs: []string{"a"}}
	require.NoError(t, s.CreateGroup(ctx, g))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.CreateTransaction(ctx, &models.Transaction{
				GroupID: g.ID, Kind: models.KindPayment, PayerID: "a", PayeeID: "a", Currency: models.USD,
			})
		}()
	}
	wg.Wait()

	txs, err := s.ListActiveTransactions(ctx, g.ID)
	require.NoError(t, err)
	assert.Len(t, txs, 50)
}
