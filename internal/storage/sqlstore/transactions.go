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

const transactionColumns = "id, group_id, kind, description, payer_id, payee_id, amount, currency, split_method, active, created_at, updated_at"

// CreateTransaction persists a new transaction with its splits.
func (s *Store) CreateTransaction(ctx context.Context, t *models.Transaction) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.CreatedAt == 0 {
		t.CreatedAt = s.now().Unix()
	}
	t.UpdatedAt = t.CreatedAt
	t.Active = true

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		s.q("INSERT INTO transactions ("+transactionColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"),
		t.ID, t.GroupID, string(t.Kind), t.Description, t.PayerID, t.PayeeID,
		t.Amount, string(t.Currency), string(t.SplitMethod), true, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	if err := s.insertSplits(ctx, tx, t); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetTransaction retrieves an active transaction by ID.
func (s *Store) GetTransaction(ctx context.Context, txID string) (*models.Transaction, error) {
	row := s.db.QueryRowContext(ctx,
		s.q("SELECT "+transactionColumns+" FROM transactions WHERE id = ? AND active = TRUE"),
		txID,
	)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction %s: %w", txID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		s.q("SELECT transaction_id, member_id, amount FROM transaction_splits WHERE transaction_id = ? ORDER BY position"),
		txID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get splits: %w", err)
	}
	splits, err := scanSplits(rows)
	if err != nil {
		return nil, err
	}
	t.Splits = splits[txID]
	return t, nil
}

// UpdateTransaction replaces an active transaction's content and splits.
// GroupID and CreatedAt are kept from the stored record.
func (s *Store) UpdateTransaction(ctx context.Context, t *models.Transaction) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx,
		s.q("SELECT group_id, created_at FROM transactions WHERE id = ? AND active = TRUE"),
		t.ID,
	).Scan(&t.GroupID, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("transaction %s: %w", t.ID, storage.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to check transaction existence: %w", err)
	}
	t.UpdatedAt = s.now().Unix()
	t.Active = true

	_, err = tx.ExecContext(ctx,
		s.q(`UPDATE transactions
		 SET kind = ?, description = ?, payer_id = ?, payee_id = ?, amount = ?, currency = ?, split_method = ?, updated_at = ?
		 WHERE id = ?`),
		string(t.Kind), t.Description, t.PayerID, t.PayeeID, t.Amount, string(t.Currency),
		string(t.SplitMethod), t.UpdatedAt, t.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}

	if _, err := tx.ExecContext(ctx, s.q("DELETE FROM transaction_splits WHERE transaction_id = ?"), t.ID); err != nil {
		return fmt.Errorf("failed to delete splits: %w", err)
	}
	if err := s.insertSplits(ctx, tx, t); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DeleteTransaction soft-deletes a transaction.
func (s *Store) DeleteTransaction(ctx context.Context, txID string) error {
	result, err := s.db.ExecContext(ctx,
		s.q("UPDATE transactions SET active = FALSE, updated_at = ? WHERE id = ? AND active = TRUE"),
		s.now().Unix(), txID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	return requireAffected(result, "transaction", txID)
}

// ListActiveTransactions returns a group's active transactions, oldest first.
func (s *Store) ListActiveTransactions(ctx context.Context, groupID string) ([]models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		s.q("SELECT "+transactionColumns+" FROM transactions WHERE group_id = ? AND active = TRUE ORDER BY created_at, id"),
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	var txs []models.Transaction
	func() {
		defer rows.Close()
		for rows.Next() {
			var t *models.Transaction
			if t, err = scanTransaction(rows); err != nil {
				err = fmt.Errorf("failed to scan transaction: %w", err)
				return
			}
			txs = append(txs, *t)
		}
		if rerr := rows.Err(); rerr != nil {
			err = fmt.Errorf("failed to iterate transactions: %w", rerr)
		}
	}()
	if err != nil {
		return nil, err
	}
	if len(txs) == 0 {
		return nil, nil
	}

	splitRows, err := s.db.QueryContext(ctx,
		s.q(`SELECT ts.transaction_id, ts.member_id, ts.amount
		 FROM transaction_splits ts
		 JOIN transactions t ON t.id = ts.transaction_id
		 WHERE t.group_id = ? AND t.active = TRUE
		 ORDER BY ts.transaction_id, ts.position`),
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list splits: %w", err)
	}
	splits, err := scanSplits(splitRows)
	if err != nil {
		return nil, err
	}
	for i := range txs {
		txs[i].Splits = splits[txs[i].ID]
	}
	return txs, nil
}

func (s *Store) insertSplits(ctx context.Context, tx *sql.Tx, t *models.Transaction) error {
	for i, split := range t.Splits {
		_, err := tx.ExecContext(ctx,
			s.q("INSERT INTO transaction_splits (transaction_id, position, member_id, amount) VALUES (?, ?, ?, ?)"),
			t.ID, i, split.MemberID, split.Amount,
		)
		if err != nil {
			return fmt.Errorf("failed to insert split: %w", err)
		}
	}
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	t := &models.Transaction{}
	var kind, currency, method string
	err := row.Scan(&t.ID, &t.GroupID, &kind, &t.Description, &t.PayerID, &t.PayeeID,
		&t.Amount, &currency, &method, &t.Active, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.Kind = models.TransactionKind(kind)
	t.Currency = models.Currency(currency)
	t.SplitMethod = models.SplitMethod(method)
	return t, nil
}

// scanSplits groups split rows by transaction ID, preserving row order.
func scanSplits(rows *sql.Rows) (map[string][]models.Split, error) {
	defer rows.Close()

	out := make(map[string][]models.Split)
	for rows.Next() {
		var txID string
		var split models.Split
		if err := rows.Scan(&txID, &split.MemberID, &split.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan split: %w", err)
		}
		out[txID] = append(out[txID], split)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate splits: %w", err)
	}
	return out, nil
}
