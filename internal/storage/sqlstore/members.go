package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mmynk/tabsettle/internal/models"
	"github.com/mmynk/tabsettle/internal/storage"
)

// CreateMember inserts a new member into the directory.
func (s *Store) CreateMember(ctx context.Context, member *models.Member) error {
	if member.ID == "" {
		member.ID = uuid.New().String()
	}
	if member.CreatedAt == 0 {
		member.CreatedAt = s.now().Unix()
	}
	member.Active = true

	_, err := s.db.ExecContext(ctx,
		s.q("INSERT INTO members (id, name, active, created_at) VALUES (?, ?, ?, ?)"),
		member.ID, member.Name, true, member.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create member: %w", err)
	}
	return nil
}

// GetMember retrieves an active member by ID.
func (s *Store) GetMember(ctx context.Context, memberID string) (*models.Member, error) {
	m := &models.Member{}
	err := s.db.QueryRowContext(ctx,
		s.q("SELECT id, name, active, created_at FROM members WHERE id = ? AND active = TRUE"),
		memberID,
	).Scan(&m.ID, &m.Name, &m.Active, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("member %s: %w", memberID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return m, nil
}

// ListMembers returns all active members ordered by name.
func (s *Store) ListMembers(ctx context.Context) ([]*models.Member, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, active, created_at FROM members WHERE active = TRUE ORDER BY name, id",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	return scanMembers(rows)
}

// GetMembersByIDs retrieves multiple active members by their IDs.
// Members that don't exist are omitted from the result.
func (s *Store) GetMembersByIDs(ctx context.Context, ids []string) (map[string]*models.Member, error) {
	out := make(map[string]*models.Member, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := s.db.QueryContext(ctx,
		s.q("SELECT id, name, active, created_at FROM members WHERE active = TRUE AND id IN ("+placeholders(len(ids))+")"),
		stringArgs(ids)...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get members by IDs: %w", err)
	}
	members, err := scanMembers(rows)
	if err != nil {
		return nil, err
	}
	for _, m := range members {
		out[m.ID] = m
	}
	return out, nil
}

// UpdateMember renames an active member.
func (s *Store) UpdateMember(ctx context.Context, member *models.Member) error {
	result, err := s.db.ExecContext(ctx,
		s.q("UPDATE members SET name = ? WHERE id = ? AND active = TRUE"),
		member.Name, member.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update member: %w", err)
	}
	return requireAffected(result, "member", member.ID)
}

// DeleteMember soft-deletes a member.
func (s *Store) DeleteMember(ctx context.Context, memberID string) error {
	result, err := s.db.ExecContext(ctx,
		s.q("UPDATE members SET active = FALSE WHERE id = ? AND active = TRUE"),
		memberID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete member: %w", err)
	}
	return requireAffected(result, "member", memberID)
}

func scanMembers(rows *sql.Rows) ([]*models.Member, error) {
	defer rows.Close()

	var members []*models.Member
	for rows.Next() {
		m := &models.Member{}
		if err := rows.Scan(&m.ID, &m.Name, &m.Active, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}
	return members, nil
}
