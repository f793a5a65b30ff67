package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"connectrpc.com/connect"
	"golang.org/x/sync/errgroup"

	"github.com/mmynk/tabsettle/internal/api"
	"github.com/mmynk/tabsettle/internal/calculator"
	"github.com/mmynk/tabsettle/internal/models"
	"github.com/mmynk/tabsettle/internal/report"
)

// GetGroupSummary computes every member's balance and the transfers that
// settle the group. Results are cached until the group's next write.
func (s *LedgerService) GetGroupSummary(ctx context.Context, req *connect.Request[api.GetGroupSummaryRequest]) (*connect.Response[api.GetGroupSummaryResponse], error) {
	if err := s.validator.Struct(req.Msg); err != nil {
		return nil, toConnectError(err)
	}
	groupID := req.Msg.GroupID

	if summary, ok := s.cachedSummary(ctx, groupID); ok {
		slog.Debug("GetGroupSummary served from cache", "group_id", groupID)
		return connect.NewResponse(summary), nil
	}

	// Taken before the snapshot: a write committed after this point advances
	// the generation and keeps this summary out of the cache.
	generation, genErr := s.cache.Generation(ctx, groupID)
	if genErr != nil {
		slog.Warn("Summary cache generation lookup failed", "group_id", groupID, "error", genErr)
	}

	group, txs, err := s.snapshot(ctx, groupID)
	if err != nil {
		return nil, toConnectError(err)
	}
	names, err := s.memberNames(ctx, group.MemberIDs)
	if err != nil {
		return nil, toConnectError(err)
	}

	summary, err := s.summarize(group, txs, names)
	if err != nil {
		slog.Error("GetGroupSummary failed", "group_id", groupID, "error", err)
		return nil, err
	}

	if genErr == nil {
		s.storeSummary(ctx, groupID, generation, summary)
	}

	slog.Info("GetGroupSummary successful",
		"group_id", groupID,
		"balances", len(summary.Balances),
		"settlements", len(summary.Settlements),
	)
	return connect.NewResponse(summary), nil
}

// snapshot loads the roster and the active transactions concurrently.
func (s *LedgerService) snapshot(ctx context.Context, groupID string) (*models.Group, []models.Transaction, error) {
	var (
		group *models.Group
		txs   []models.Transaction
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		group, err = s.store.GetGroup(gctx, groupID)
		return err
	})
	g.Go(func() error {
		var err error
		txs, err = s.store.ListActiveTransactions(gctx, groupID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return group, txs, nil
}

func (s *LedgerService) memberNames(ctx context.Context, ids []string) (report.Names, error) {
	members, err := s.store.GetMembersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	names := make(report.Names, len(members))
	for id, m := range members {
		names[id] = m.Name
	}
	return names, nil
}

// summarize runs the engine over a snapshot. Stored data the engine rejects
// is reported as FailedPrecondition.
func (s *LedgerService) summarize(group *models.Group, txs []models.Transaction, names report.Names) (*api.GetGroupSummaryResponse, error) {
	var opts []calculator.AggregateOption
	if s.includePayments {
		opts = append(opts, calculator.WithPayments())
	}

	balances, err := calculator.Aggregate(group.MemberIDs, txs, opts...)
	if err != nil {
		s.metrics.EngineFailure(failureReason(err))
		return nil, connect.NewError(connect.CodeFailedPrecondition, err)
	}
	settlements := calculator.Plan(balances)
	s.metrics.ObservePlan(len(settlements))

	summary := &api.GetGroupSummaryResponse{
		GroupID:        group.ID,
		Balances:       make([]*api.Balance, len(balances)),
		Settlements:    make([]*api.Settlement, len(settlements)),
		Lines:          report.Lines(names, balances, settlements),
		AlreadySettled: len(settlements) == 0,
	}
	for i, b := range balances {
		summary.Balances[i] = toAPIBalance(names, b)
	}
	for i, st := range settlements {
		summary.Settlements[i] = toAPISettlement(names, st)
	}
	return summary, nil
}

func (s *LedgerService) storeSummary(ctx context.Context, groupID string, generation int64, summary *api.GetGroupSummaryResponse) {
	data, err := json.Marshal(summary)
	if err != nil {
		slog.Warn("Failed to encode summary for cache", "group_id", groupID, "error", err)
		return
	}
	stored, err := s.cache.Set(ctx, groupID, generation, data)
	if err != nil {
		slog.Warn("Failed to cache summary", "group_id", groupID, "error", err)
		return
	}
	if !stored {
		slog.Debug("Summary not cached, group changed while computing", "group_id", groupID)
	}
}

func (s *LedgerService) cachedSummary(ctx context.Context, groupID string) (*api.GetGroupSummaryResponse, bool) {
	data, ok, err := s.cache.Get(ctx, groupID)
	if err != nil {
		slog.Warn("Summary cache lookup failed", "group_id", groupID, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var summary api.GetGroupSummaryResponse
	if err := json.Unmarshal(data, &summary); err != nil {
		slog.Warn("Discarding undecodable cached summary", "group_id", groupID, "error", err)
		return nil, false
	}
	return &summary, true
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, calculator.ErrUnknownMember):
		return "unknown_member"
	case errors.Is(err, calculator.ErrNegativeAmount):
		return "negative_amount"
	case errors.Is(err, calculator.ErrInvalidSplitTotal):
		return "invalid_split_total"
	default:
		return "other"
	}
}
