// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/tabsettle/internal/models"
)

// ErrNotFound is returned when a requested record does not exist or has been deleted.
var ErrNotFound = errors.New("not found")

// GroupStore persists groups and their rosters.
type GroupStore interface {
	// CreateGroup persists a new group. ID and CreatedAt are populated by the store.
	CreateGroup(ctx context.Context, group *models.Group) error

	// GetGroup retrieves an active group by ID.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// ListGroups returns all active groups, newest first.
	ListGroups(ctx context.Context) ([]*models.Group, error)

	// UpdateGroup replaces name, description and roster of an active group.
	UpdateGroup(ctx context.Context, group *models.Group) error

	// DeleteGroup soft-deletes a group.
	DeleteGroup(ctx context.Context, groupID string) error

	// AddGroupMembers appends member IDs to the roster, skipping ones already present.
	AddGroupMembers(ctx context.Context, groupID string, memberIDs []string) error
}

// MemberStore is the member directory.
type MemberStore interface {
	// CreateMember persists a new member. ID and CreatedAt are populated by the store.
	CreateMember(ctx context.Context, member *models.Member) error

	// GetMember retrieves an active member by ID.
	GetMember(ctx context.Context, memberID string) (*models.Member, error)

	// ListMembers returns all active members ordered by name.
	ListMembers(ctx context.Context) ([]*models.Member, error)

	// GetMembersByIDs returns the members found for ids, keyed by ID.
	// Unknown and deleted IDs are omitted.
	GetMembersByIDs(ctx context.Context, ids []string) (map[string]*models.Member, error)

	// UpdateMember renames an active member.
	UpdateMember(ctx context.Context, member *models.Member) error

	// DeleteMember soft-deletes a member.
	DeleteMember(ctx context.Context, memberID string) error
}

// TransactionStore persists expenses and payments.
type TransactionStore interface {
	// CreateTransaction persists a new transaction. ID, timestamps and Active
	// are populated by the store.
	CreateTransaction(ctx context.Context, tx *models.Transaction) error

	// GetTransaction retrieves an active transaction by ID.
	GetTransaction(ctx context.Context, txID string) (*models.Transaction, error)

	// UpdateTransaction replaces an active transaction's content and bumps UpdatedAt.
	UpdateTransaction(ctx context.Context, tx *models.Transaction) error

	// DeleteTransaction soft-deletes a transaction.
	DeleteTransaction(ctx context.Context, txID string) error

	// ListActiveTransactions returns a group's active transactions, oldest first.
	// Filtering out deleted records is the store's job; callers pass the result
	// to the calculator as-is.
	ListActiveTransactions(ctx context.Context, groupID string) ([]models.Transaction, error)
}

// Store defines the interface for all storage operations.
// This abstraction allows swapping storage backends (memory, SQLite, PostgreSQL)
// without changing the service layer.
type Store interface {
	GroupStore
	MemberStore
	TransactionStore

	// Close releases any resources held by the store.
	Close() error
}
