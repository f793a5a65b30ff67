package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	"github.com/mmynk/tabsettle/internal/api"
	"github.com/mmynk/tabsettle/internal/api/apiconnect"
	"github.com/mmynk/tabsettle/internal/calculator"
	"github.com/mmynk/tabsettle/internal/events"
	"github.com/mmynk/tabsettle/internal/models"
	"github.com/mmynk/tabsettle/internal/storage"
	"github.com/mmynk/tabsettle/internal/validation"
)

var _ apiconnect.LedgerServiceHandler = (*LedgerService)(nil)

// LedgerService implements the Connect LedgerService: it records expenses and
// payments and computes who owes whom.
type LedgerService struct {
	store     storage.Store
	validator *validation.Validator
	options
}

// NewLedgerService creates a new LedgerService with the given storage backend.
func NewLedgerService(store storage.Store, opts ...Option) *LedgerService {
	return &LedgerService{
		store:     store,
		validator: validation.New(),
		options:   newOptions(opts),
	}
}

// RecordExpense records an expense split equally or by exact amounts.
func (s *LedgerService) RecordExpense(ctx context.Context, req *connect.Request[api.RecordExpenseRequest]) (*connect.Response[api.RecordExpenseResponse], error) {
	slog.Info("RecordExpense request received",
		"group_id", req.Msg.GroupID,
		"amount", req.Msg.Amount,
		"currency", req.Msg.Currency,
		"split_method", req.Msg.SplitMethod,
	)
	if err := s.validator.Struct(req.Msg); err != nil {
		return nil, toConnectError(err)
	}
	currency, err := parseCurrency(req.Msg.Currency)
	if err != nil {
		return nil, err
	}
	group, err := s.store.GetGroup(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(err)
	}

	tx := &models.Transaction{
		GroupID:     group.ID,
		Kind:        models.KindExpense,
		Description: req.Msg.Description,
		PayerID:     req.Msg.PayerID,
		Amount:      req.Msg.Amount,
		Currency:    currency,
		SplitMethod: models.SplitMethod(req.Msg.SplitMethod),
	}
	tx.Splits, err = buildSplits(tx.SplitMethod, tx.Amount, currency, req.Msg.ParticipantIDs, req.Msg.Splits, group)
	if err != nil {
		return nil, toConnectError(err)
	}

	if err := s.record(ctx, tx, group); err != nil {
		return nil, err
	}
	return connect.NewResponse(&api.RecordExpenseResponse{Transaction: toAPITransaction(tx)}), nil
}

// RecordPayment records a direct transfer between two members.
func (s *LedgerService) RecordPayment(ctx context.Context, req *connect.Request[api.RecordPaymentRequest]) (*connect.Response[api.RecordPaymentResponse], error) {
	slog.Info("RecordPayment request received",
		"group_id", req.Msg.GroupID,
		"amount", req.Msg.Amount,
		"currency", req.Msg.Currency,
	)
	if err := s.validator.Struct(req.Msg); err != nil {
		return nil, toConnectError(err)
	}
	currency, err := parseCurrency(req.Msg.Currency)
	if err != nil {
		return nil, err
	}
	group, err := s.store.GetGroup(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(err)
	}

	tx := &models.Transaction{
		GroupID:     group.ID,
		Kind:        models.KindPayment,
		Description: req.Msg.Description,
		PayerID:     req.Msg.PayerID,
		PayeeID:     req.Msg.PayeeID,
		Amount:      req.Msg.Amount,
		Currency:    currency,
	}
	if err := s.record(ctx, tx, group); err != nil {
		return nil, err
	}
	return connect.NewResponse(&api.RecordPaymentResponse{Transaction: toAPITransaction(tx)}), nil
}

// record validates and persists a new transaction.
func (s *LedgerService) record(ctx context.Context, tx *models.Transaction, group *models.Group) error {
	if err := s.validator.Transaction(tx, group); err != nil {
		slog.Warn("Transaction rejected", "group_id", group.ID, "error", err)
		return toConnectError(err)
	}
	if err := s.store.CreateTransaction(ctx, tx); err != nil {
		slog.Error("CreateTransaction failed", "group_id", group.ID, "error", err)
		return toConnectError(err)
	}
	s.invalidate(ctx, group.ID)
	s.publish(ctx, events.NewTransactionEvent(events.TransactionRecorded, tx, s.now()))

	slog.Info("Transaction recorded",
		"transaction_id", tx.ID,
		"group_id", group.ID,
		"kind", tx.Kind,
	)
	return nil
}

// GetTransaction retrieves an active transaction.
func (s *LedgerService) GetTransaction(ctx context.Context, req *connect.Request[api.GetTransactionRequest]) (*connect.Response[api.GetTransactionResponse], error) {
	if err := s.validator.Struct(req.Msg); err != nil {
		return nil, toConnectError(err)
	}
	tx, err := s.store.GetTransaction(ctx, req.Msg.TransactionID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.GetTransactionResponse{Transaction: toAPITransaction(tx)}), nil
}

// ListTransactions returns a group's active transactions, oldest first.
func (s *LedgerService) ListTransactions(ctx context.Context, req *connect.Request[api.ListTransactionsRequest]) (*connect.Response[api.ListTransactionsResponse], error) {
	if err := s.validator.Struct(req.Msg); err != nil {
		return nil, toConnectError(err)
	}
	if _, err := s.store.GetGroup(ctx, req.Msg.GroupID); err != nil {
		return nil, toConnectError(err)
	}
	txs, err := s.store.ListActiveTransactions(ctx, req.Msg.GroupID)
	if err != nil {
		slog.Error("ListTransactions failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	out := make([]*api.Transaction, len(txs))
	for i := range txs {
		out[i] = toAPITransaction(&txs[i])
	}
	return connect.NewResponse(&api.ListTransactionsResponse{Transactions: out}), nil
}

// UpdateTransaction replaces a transaction's content, keeping its kind and group.
func (s *LedgerService) UpdateTransaction(ctx context.Context, req *connect.Request[api.UpdateTransactionRequest]) (*connect.Response[api.UpdateTransactionResponse], error) {
	slog.Info("UpdateTransaction request received", "transaction_id", req.Msg.TransactionID)
	if err := s.validator.Struct(req.Msg); err != nil {
		return nil, toConnectError(err)
	}
	currency, err := parseCurrency(req.Msg.Currency)
	if err != nil {
		return nil, err
	}
	existing, err := s.store.GetTransaction(ctx, req.Msg.TransactionID)
	if err != nil {
		return nil, toConnectError(err)
	}
	group, err := s.store.GetGroup(ctx, existing.GroupID)
	if err != nil {
		return nil, toConnectError(err)
	}

	tx := &models.Transaction{
		ID:          existing.ID,
		GroupID:     existing.GroupID,
		Kind:        existing.Kind,
		Description: req.Msg.Description,
		PayerID:     req.Msg.PayerID,
		Amount:      req.Msg.Amount,
		Currency:    currency,
	}
	if tx.IsExpense() {
		tx.SplitMethod = models.SplitMethod(req.Msg.SplitMethod)
		if tx.SplitMethod == "" {
			tx.SplitMethod = existing.SplitMethod
		}
		tx.Splits, err = buildSplits(tx.SplitMethod, tx.Amount, currency, req.Msg.ParticipantIDs, req.Msg.Splits, group)
		if err != nil {
			return nil, toConnectError(err)
		}
	} else {
		tx.PayeeID = req.Msg.PayeeID
	}

	if err := s.validator.Transaction(tx, group); err != nil {
		return nil, toConnectError(err)
	}
	if err := s.store.UpdateTransaction(ctx, tx); err != nil {
		slog.Error("UpdateTransaction failed", "transaction_id", tx.ID, "error", err)
		return nil, toConnectError(err)
	}
	s.invalidate(ctx, tx.GroupID)
	s.publish(ctx, events.NewTransactionEvent(events.TransactionUpdated, tx, s.now()))

	slog.Info("Transaction updated", "transaction_id", tx.ID)
	return connect.NewResponse(&api.UpdateTransactionResponse{Transaction: toAPITransaction(tx)}), nil
}

// DeleteTransaction soft-deletes a transaction; it no longer counts towards balances.
func (s *LedgerService) DeleteTransaction(ctx context.Context, req *connect.Request[api.DeleteTransactionRequest]) (*connect.Response[api.DeleteTransactionResponse], error) {
	if err := s.validator.Struct(req.Msg); err != nil {
		return nil, toConnectError(err)
	}
	tx, err := s.store.GetTransaction(ctx, req.Msg.TransactionID)
	if err != nil {
		return nil, toConnectError(err)
	}
	if err := s.store.DeleteTransaction(ctx, tx.ID); err != nil {
		slog.Error("DeleteTransaction failed", "transaction_id", tx.ID, "error", err)
		return nil, toConnectError(err)
	}
	s.invalidate(ctx, tx.GroupID)
	s.publish(ctx, events.NewTransactionEvent(events.TransactionDeleted, tx, s.now()))

	slog.Info("Transaction deleted", "transaction_id", tx.ID)
	return connect.NewResponse(&api.DeleteTransactionResponse{}), nil
}

func parseCurrency(code string) (models.Currency, error) {
	c, err := models.ParseCurrency(code)
	if err != nil {
		return "", invalidArgument("currency", err.Error())
	}
	return c, nil
}

// buildSplits produces an expense's splits. EQUAL divides amount among
// participants, defaulting to the whole roster; EXACT takes splits as given.
func buildSplits(method models.SplitMethod, amount decimal.Decimal, currency models.Currency, participants []string, splits []api.Split, group *models.Group) ([]models.Split, error) {
	switch method {
	case models.SplitEqual:
		if len(splits) > 0 {
			return nil, invalidArgument("splits", "not allowed with split method EQUAL")
		}
		if len(participants) == 0 {
			participants = group.MemberIDs
		}
		if len(participants) == 0 {
			return nil, invalidArgument("participant_ids", "group has no members")
		}
		// SplitEqually rounds to minor units; reject what it would change.
		if err := validation.Amount("amount", amount, currency); err != nil {
			return nil, err
		}
		return calculator.SplitEqually(amount, currency, participants)
	case models.SplitExact:
		if len(participants) > 0 {
			return nil, invalidArgument("participant_ids", "not allowed with split method EXACT")
		}
		return toModelSplits(splits), nil
	}
	return nil, invalidArgument("split_method", "must be EQUAL or EXACT")
}
