// Package memory provides an in-memory implementation of storage.Store.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mmynk/tabsettle/internal/models"
	"github.com/mmynk/tabsettle/internal/storage"
)

// Ensure Store implements storage.Store
var _ storage.Store = (*Store)(nil)

// Store keeps every record in maps guarded by one mutex.
// Records are copied on the way in and out so callers never share memory with the store.
type Store struct {
	mu           sync.RWMutex
	groups       map[string]*models.Group
	members      map[string]*models.Member
	transactions map[string]*models.Transaction
	seq          int64 // insertion order, breaks CreatedAt ties
	order        map[string]int64
	now          func() time.Time
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		groups:       make(map[string]*models.Group),
		members:      make(map[string]*models.Member),
		transactions: make(map[string]*models.Transaction),
		order:        make(map[string]int64),
		now:          time.Now,
	}
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

func (s *Store) nextSeq(id string) {
	s.seq++
	s.order[id] = s.seq
}

func copyGroup(g *models.Group) *models.Group {
	c := *g
	c.MemberIDs = append([]string(nil), g.MemberIDs...)
	return &c
}

func copyTransaction(t *models.Transaction) models.Transaction {
	c := *t
	c.Splits = append([]models.Split(nil), t.Splits...)
	return c
}

// CreateGroup stores a new group.
func (s *Store) CreateGroup(ctx context.Context, group *models.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt == 0 {
		group.CreatedAt = s.now().Unix()
	}
	group.Active = true
	group.MemberIDs = dedupe(group.MemberIDs)

	s.groups[group.ID] = copyGroup(group)
	s.nextSeq(group.ID)
	return nil
}

// GetGroup returns an active group.
func (s *Store) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.groups[groupID]
	if !ok || !g.Active {
		return nil, fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	return copyGroup(g), nil
}

// ListGroups returns active groups, newest first.
func (s *Store) ListGroups(ctx context.Context) ([]*models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var groups []*models.Group
	for _, g := range s.groups {
		if g.Active {
			groups = append(groups, copyGroup(g))
		}
	}
	sort.Slice(groups, func(i, j int) bool {
		return s.order[groups[i].ID] > s.order[groups[j].ID]
	})
	return groups, nil
}

// UpdateGroup replaces an active group's editable fields.
func (s *Store) UpdateGroup(ctx context.Context, group *models.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.groups[group.ID]
	if !ok || !existing.Active {
		return fmt.Errorf("group %s: %w", group.ID, storage.ErrNotFound)
	}
	existing.Name = group.Name
	existing.Description = group.Description
	existing.MemberIDs = dedupe(group.MemberIDs)
	return nil
}

// DeleteGroup marks a group inactive.
func (s *Store) DeleteGroup(ctx context.Context, groupID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groups[groupID]
	if !ok || !g.Active {
		return fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	g.Active = false
	return nil
}

// AddGroupMembers appends new member IDs to a roster.
func (s *Store) AddGroupMembers(ctx context.Context, groupID string, memberIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groups[groupID]
	if !ok || !g.Active {
		return fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	g.MemberIDs = dedupe(append(g.MemberIDs, memberIDs...))
	return nil
}

// CreateMember stores a new member.
func (s *Store) CreateMember(ctx context.Context, member *models.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if member.ID == "" {
		member.ID = uuid.New().String()
	}
	if member.CreatedAt == 0 {
		member.CreatedAt = s.now().Unix()
	}
	member.Active = true

	c := *member
	s.members[member.ID] = &c
	return nil
}

// GetMember returns an active member.
func (s *Store) GetMember(ctx context.Context, memberID string) (*models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.members[memberID]
	if !ok || !m.Active {
		return nil, fmt.Errorf("member %s: %w", memberID, storage.ErrNotFound)
	}
	c := *m
	return &c, nil
}

// ListMembers returns active members ordered by name.
func (s *Store) ListMembers(ctx context.Context) ([]*models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var members []*models.Member
	for _, m := range s.members {
		if m.Active {
			c := *m
			members = append(members, &c)
		}
	}
	sort.Slice(members, func(i, j int) bool {
		if members[i].Name == members[j].Name {
			return members[i].ID < members[j].ID
		}
		return members[i].Name < members[j].Name
	})
	return members, nil
}

// GetMembersByIDs returns the active members among ids.
func (s *Store) GetMembersByIDs(ctx context.Context, ids []string) (map[string]*models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]*models.Member, len(ids))
	for _, id := range ids {
		if m, ok := s.members[id]; ok && m.Active {
			c := *m
			out[id] = &c
		}
	}
	return out, nil
}

// UpdateMember renames an active member.
func (s *Store) UpdateMember(ctx context.Context, member *models.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.members[member.ID]
	if !ok || !m.Active {
		return fmt.Errorf("member %s: %w", member.ID, storage.ErrNotFound)
	}
	m.Name = member.Name
	return nil
}

// DeleteMember marks a member inactive.
func (s *Store) DeleteMember(ctx context.Context, memberID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.members[memberID]
	if !ok || !m.Active {
		return fmt.Errorf("member %s: %w", memberID, storage.ErrNotFound)
	}
	m.Active = false
	return nil
}

// CreateTransaction stores a new transaction.
func (s *Store) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tx.ID == "" {
		tx.ID = uuid.New().String()
	}
	now := s.now().Unix()
	if tx.CreatedAt == 0 {
		tx.CreatedAt = now
	}
	tx.UpdatedAt = tx.CreatedAt
	tx.Active = true

	c := copyTransaction(tx)
	s.transactions[tx.ID] = &c
	s.nextSeq(tx.ID)
	return nil
}

// GetTransaction returns an active transaction.
func (s *Store) GetTransaction(ctx context.Context, txID string) (*models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.transactions[txID]
	if !ok || !t.Active {
		return nil, fmt.Errorf("transaction %s: %w", txID, storage.ErrNotFound)
	}
	c := copyTransaction(t)
	return &c, nil
}

// UpdateTransaction replaces an active transaction.
func (s *Store) UpdateTransaction(ctx context.Context, tx *models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.transactions[tx.ID]
	if !ok || !existing.Active {
		return fmt.Errorf("transaction %s: %w", tx.ID, storage.ErrNotFound)
	}
	tx.GroupID = existing.GroupID
	tx.CreatedAt = existing.CreatedAt
	tx.UpdatedAt = s.now().Unix()
	tx.Active = true

	c := copyTransaction(tx)
	s.transactions[tx.ID] = &c
	return nil
}

// DeleteTransaction marks a transaction inactive.
func (s *Store) DeleteTransaction(ctx context.Context, txID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.transactions[txID]
	if !ok || !t.Active {
		return fmt.Errorf("transaction %s: %w", txID, storage.ErrNotFound)
	}
	t.Active = false
	t.UpdatedAt = s.now().Unix()
	return nil
}

// ListActiveTransactions returns a group's active transactions in insertion order.
func (s *Store) ListActiveTransactions(ctx context.Context, groupID string) ([]models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var txs []models.Transaction
	for _, t := range s.transactions {
		if t.GroupID == groupID && t.Active {
			txs = append(txs, copyTransaction(t))
		}
	}
	sort.Slice(txs, func(i, j int) bool {
		return s.order[txs[i].ID] < s.order[txs[j].ID]
	})
	return txs, nil
}

// dedupe drops repeated IDs, keeping first occurrences in order.
func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
