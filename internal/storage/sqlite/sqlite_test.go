package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/mmynk/tabsettle/internal/models"
	"github.com/mmynk/tabsettle/internal/storage"
	"github.com/mmynk/tabsettle/internal/storage/storetest"
)

func TestSQLiteStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) storage.Store {
		store, err := Open(filepath.Join(t.TempDir(), "test.db"))
		if err != nil {
			t.Fatalf("Failed to create store: %v", err)
		}
		t.Cleanup(func() { store.Close() })
		return store
	})
}

func TestSQLiteStoreReopen(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "tabsettle.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	member := &models.Member{Name: "Alice"}
	if err := store.CreateMember(ctx, member); err != nil {
		t.Fatalf("CreateMember failed: %v", err)
	}
	group := &models.Group{Name: "Flat", MemberIDs: []string{member.ID}}
	if err := store.CreateGroup(ctx, group); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// Migrations must be a no-op on an up-to-date database.
	store, err = Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to reopen store: %v", err)
	}
	defer store.Close()

	got, err := store.GetGroup(ctx, group.ID)
	if err != nil {
		t.Fatalf("GetGroup failed: %v", err)
	}
	if len(got.MemberIDs) != 1 || got.MemberIDs[0] != member.ID {
		t.Errorf("roster mismatch: got %v, want [%s]", got.MemberIDs, member.ID)
	}
}

func TestSQLiteStoreForeignKeys(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	err = store.CreateTransaction(context.Background(), &models.Transaction{
		GroupID:  "no-such-group",
		Kind:     models.KindPayment,
		PayerID:  "a",
		PayeeID:  "b",
		Currency: models.USD,
	})
	if err == nil {
		t.Error("Expected foreign key violation for unknown group, got nil")
	}
}
