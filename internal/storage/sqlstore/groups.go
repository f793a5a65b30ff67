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

// CreateGroup persists a new group and its roster.
func (s *Store) CreateGroup(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt == 0 {
		group.CreatedAt = s.now().Unix()
	}
	group.Active = true

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		s.q("INSERT INTO expense_groups (id, name, description, active, created_at) VALUES (?, ?, ?, ?, ?)"),
		group.ID, group.Name, group.Description, true, group.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert group: %w", err)
	}

	group.MemberIDs, err = s.appendMembers(ctx, tx, group.ID, nil, group.MemberIDs)
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetGroup retrieves an active group with its roster.
func (s *Store) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	group := &models.Group{}
	err := s.db.QueryRowContext(ctx,
		s.q("SELECT id, name, description, active, created_at FROM expense_groups WHERE id = ? AND active = TRUE"),
		groupID,
	).Scan(&group.ID, &group.Name, &group.Description, &group.Active, &group.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	group.MemberIDs, err = s.roster(ctx, s.db, groupID)
	if err != nil {
		return nil, err
	}
	return group, nil
}

// ListGroups returns all active groups, newest first.
func (s *Store) ListGroups(ctx context.Context) ([]*models.Group, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, description, active, created_at FROM expense_groups WHERE active = TRUE ORDER BY created_at DESC, id",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var groups []*models.Group
	for rows.Next() {
		g := &models.Group{}
		if err := rows.Scan(&g.ID, &g.Name, &g.Description, &g.Active, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate groups: %w", err)
	}

	for _, g := range groups {
		if g.MemberIDs, err = s.roster(ctx, s.db, g.ID); err != nil {
			return nil, err
		}
	}
	return groups, nil
}

// UpdateGroup replaces name, description and roster.
func (s *Store) UpdateGroup(ctx context.Context, group *models.Group) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		s.q("UPDATE expense_groups SET name = ?, description = ? WHERE id = ? AND active = TRUE"),
		group.Name, group.Description, group.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update group: %w", err)
	}
	if err := requireAffected(result, "group", group.ID); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, s.q("DELETE FROM group_members WHERE group_id = ?"), group.ID); err != nil {
		return fmt.Errorf("failed to clear group members: %w", err)
	}
	group.MemberIDs, err = s.appendMembers(ctx, tx, group.ID, nil, group.MemberIDs)
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DeleteGroup soft-deletes a group.
func (s *Store) DeleteGroup(ctx context.Context, groupID string) error {
	result, err := s.db.ExecContext(ctx,
		s.q("UPDATE expense_groups SET active = FALSE WHERE id = ? AND active = TRUE"),
		groupID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	return requireAffected(result, "group", groupID)
}

// AddGroupMembers appends member IDs not yet on the roster.
func (s *Store) AddGroupMembers(ctx context.Context, groupID string, memberIDs []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx,
		s.q("SELECT 1 FROM expense_groups WHERE id = ? AND active = TRUE"), groupID,
	).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to check group existence: %w", err)
	}

	current, err := s.roster(ctx, tx, groupID)
	if err != nil {
		return err
	}
	if _, err := s.appendMembers(ctx, tx, groupID, current, memberIDs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// roster loads a group's member IDs in roster order.
func (s *Store) roster(ctx context.Context, db querier, groupID string) ([]string, error) {
	rows, err := db.QueryContext(ctx,
		s.q("SELECT member_id FROM group_members WHERE group_id = ? ORDER BY position"),
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get group members: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan group member: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate group members: %w", err)
	}
	return ids, nil
}

// appendMembers inserts the IDs of add missing from current after it and returns
// the resulting roster.
func (s *Store) appendMembers(ctx context.Context, tx *sql.Tx, groupID string, current, add []string) ([]string, error) {
	seen := make(map[string]bool, len(current)+len(add))
	for _, id := range current {
		seen[id] = true
	}
	roster := append([]string(nil), current...)

	for _, id := range add {
		if seen[id] {
			continue
		}
		seen[id] = true
		_, err := tx.ExecContext(ctx,
			s.q("INSERT INTO group_members (group_id, member_id, position) VALUES (?, ?, ?)"),
			groupID, id, len(roster),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert group member: %w", err)
		}
		roster = append(roster, id)
	}
	return roster, nil
}

// requireAffected maps an update that touched no row to storage.ErrNotFound.
func requireAffected(result sql.Result, kind, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, storage.ErrNotFound)
	}
	return nil
}
