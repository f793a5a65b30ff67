// Package storetest holds behavior checks shared by every storage.Store backend.
package storetest

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/tabsettle/internal/models"
	"github.com/mmynk/tabsettle/internal/storage"
)

// Run exercises a backend. newStore must return an empty store; it is called
// once per subtest.
func Run(t *testing.T, newStore func(t *testing.T) storage.Store) {
	t.Run("groups", func(t *testing.T) { testGroups(t, newStore(t)) })
	t.Run("members", func(t *testing.T) { testMembers(t, newStore(t)) })
	t.Run("transactions", func(t *testing.T) { testTransactions(t, newStore(t)) })
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func createMembers(t *testing.T, ctx context.Context, s storage.Store, names ...string) []string {
	t.Helper()
	ids := make([]string, len(names))
	for i, name := range names {
		m := &models.Member{Name: name}
		require.NoError(t, s.CreateMember(ctx, m))
		ids[i] = m.ID
	}
	return ids
}

func testGroups(t *testing.T, s storage.Store) {
	ctx := context.Background()
	ids := createMembers(t, ctx, s, "Alice", "Bob", "Carol")

	g := &models.Group{Name: "Lisbon", Description: "trip", MemberIDs: []string{ids[1], ids[0], ids[1]}, CreatedAt: 100}
	require.NoError(t, s.CreateGroup(ctx, g))
	assert.NotEmpty(t, g.ID)
	assert.True(t, g.Active)

	got, err := s.GetGroup(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lisbon", got.Name)
	assert.Equal(t, "trip", got.Description)
	assert.Equal(t, []string{ids[1], ids[0]}, got.MemberIDs, "roster keeps first occurrences in order")
	assert.Equal(t, int64(100), got.CreatedAt)

	require.NoError(t, s.AddGroupMembers(ctx, g.ID, []string{ids[0], ids[2]}))
	got, err = s.GetGroup(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{ids[1], ids[0], ids[2]}, got.MemberIDs)

	got.Name = "Porto"
	got.MemberIDs = []string{ids[2], ids[0]}
	require.NoError(t, s.UpdateGroup(ctx, got))
	got, err = s.GetGroup(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, "Porto", got.Name)
	assert.Equal(t, []string{ids[2], ids[0]}, got.MemberIDs)

	empty := &models.Group{Name: "Empty", CreatedAt: 200}
	require.NoError(t, s.CreateGroup(ctx, empty))

	groups, err := s.ListGroups(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, empty.ID, groups[0].ID, "newest first")
	assert.Empty(t, groups[0].MemberIDs)
	assert.Equal(t, []string{ids[2], ids[0]}, groups[1].MemberIDs)

	require.NoError(t, s.DeleteGroup(ctx, g.ID))
	_, err = s.GetGroup(ctx, g.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, s.DeleteGroup(ctx, g.ID), storage.ErrNotFound)
	assert.ErrorIs(t, s.AddGroupMembers(ctx, g.ID, ids), storage.ErrNotFound)
	assert.ErrorIs(t, s.UpdateGroup(ctx, &models.Group{ID: "missing", Name: "x"}), storage.ErrNotFound)

	groups, err = s.ListGroups(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, empty.ID, groups[0].ID)
}

func testMembers(t *testing.T, s storage.Store) {
	ctx := context.Background()
	ids := createMembers(t, ctx, s, "Carol", "Alice", "Bob")

	m, err := s.GetMember(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, "Carol", m.Name)
	assert.True(t, m.Active)
	assert.NotZero(t, m.CreatedAt)

	members, err := s.ListMembers(ctx)
	require.NoError(t, err)
	require.Len(t, members, 3)
	assert.Equal(t, "Alice", members[0].Name)
	assert.Equal(t, "Bob", members[1].Name)
	assert.Equal(t, "Carol", members[2].Name)

	require.NoError(t, s.UpdateMember(ctx, &models.Member{ID: ids[0], Name: "Caroline"}))
	m, err = s.GetMember(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, "Caroline", m.Name)

	require.NoError(t, s.DeleteMember(ctx, ids[2]))
	_, err = s.GetMember(ctx, ids[2])
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, s.DeleteMember(ctx, ids[2]), storage.ErrNotFound)
	assert.ErrorIs(t, s.UpdateMember(ctx, &models.Member{ID: ids[2], Name: "x"}), storage.ErrNotFound)

	byID, err := s.GetMembersByIDs(ctx, []string{ids[0], ids[1], ids[2], "missing"})
	require.NoError(t, err)
	assert.Len(t, byID, 2)
	assert.Equal(t, "Caroline", byID[ids[0]].Name)
	assert.Equal(t, "Alice", byID[ids[1]].Name)

	byID, err = s.GetMembersByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, byID)
}

func testTransactions(t *testing.T, s storage.Store) {
	ctx := context.Background()
	ids := createMembers(t, ctx, s, "Alice", "Bob")
	g := &models.Group{Name: "Flat", MemberIDs: ids}
	require.NoError(t, s.CreateGroup(ctx, g))
	other := &models.Group{Name: "Other", MemberIDs: ids}
	require.NoError(t, s.CreateGroup(ctx, other))

	expense := &models.Transaction{
		GroupID:     g.ID,
		Kind:        models.KindExpense,
		Description: "Groceries",
		PayerID:     ids[0],
		Amount:      dec("60.50"),
		Currency:    models.USD,
		SplitMethod: models.SplitExact,
		Splits: []models.Split{
			{MemberID: ids[1], Amount: dec("40.25")},
			{MemberID: ids[0], Amount: dec("20.25")},
		},
		CreatedAt: 100,
	}
	require.NoError(t, s.CreateTransaction(ctx, expense))
	assert.NotEmpty(t, expense.ID)
	assert.True(t, expense.Active)
	assert.Equal(t, int64(100), expense.UpdatedAt)

	payment := &models.Transaction{
		GroupID:   g.ID,
		Kind:      models.KindPayment,
		PayerID:   ids[1],
		PayeeID:   ids[0],
		Amount:    dec("10"),
		Currency:  models.EUR,
		CreatedAt: 200,
	}
	require.NoError(t, s.CreateTransaction(ctx, payment))
	require.NoError(t, s.CreateTransaction(ctx, &models.Transaction{
		GroupID: other.ID, Kind: models.KindPayment, PayerID: ids[0], PayeeID: ids[1],
		Amount: dec("1"), Currency: models.USD, CreatedAt: 50,
	}))

	got, err := s.GetTransaction(ctx, expense.ID)
	require.NoError(t, err)
	assert.Equal(t, models.KindExpense, got.Kind)
	assert.Equal(t, "Groceries", got.Description)
	assert.Equal(t, models.USD, got.Currency)
	assert.Equal(t, models.SplitExact, got.SplitMethod)
	assert.True(t, got.Amount.Equal(dec("60.5")), "amount = %s", got.Amount)
	require.Len(t, got.Splits, 2)
	assert.Equal(t, ids[1], got.Splits[0].MemberID, "split order is kept")
	assert.True(t, got.Splits[0].Amount.Equal(dec("40.25")))

	txs, err := s.ListActiveTransactions(ctx, g.ID)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, expense.ID, txs[0].ID, "oldest first")
	assert.Len(t, txs[0].Splits, 2)
	assert.Equal(t, payment.ID, txs[1].ID)
	assert.Equal(t, ids[0], txs[1].PayeeID)
	assert.Empty(t, txs[1].Splits)

	update := &models.Transaction{
		ID:          expense.ID,
		Kind:        models.KindExpense,
		Description: "Groceries and wine",
		PayerID:     ids[1],
		Amount:      dec("30"),
		Currency:    models.GBP,
		SplitMethod: models.SplitEqual,
		Splits:      []models.Split{{MemberID: ids[0], Amount: dec("15")}, {MemberID: ids[1], Amount: dec("15")}},
	}
	require.NoError(t, s.UpdateTransaction(ctx, update))
	assert.Equal(t, g.ID, update.GroupID, "group is kept")
	assert.Equal(t, int64(100), update.CreatedAt)

	got, err = s.GetTransaction(ctx, expense.ID)
	require.NoError(t, err)
	assert.Equal(t, "Groceries and wine", got.Description)
	assert.Equal(t, ids[1], got.PayerID)
	assert.Equal(t, models.GBP, got.Currency)
	require.Len(t, got.Splits, 2)
	assert.Equal(t, ids[0], got.Splits[0].MemberID)
	assert.True(t, got.Splits[0].Amount.Equal(dec("15")))

	require.NoError(t, s.DeleteTransaction(ctx, payment.ID))
	_, err = s.GetTransaction(ctx, payment.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, s.DeleteTransaction(ctx, payment.ID), storage.ErrNotFound)
	assert.ErrorIs(t, s.UpdateTransaction(ctx, &models.Transaction{ID: payment.ID}), storage.ErrNotFound)

	txs, err = s.ListActiveTransactions(ctx, g.ID)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, expense.ID, txs[0].ID)

	txs, err = s.ListActiveTransactions(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, txs)
}
