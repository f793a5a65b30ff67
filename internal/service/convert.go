package service

import (
	"github.com/mmynk/tabsettle/internal/api"
	"github.com/mmynk/tabsettle/internal/calculator"
	"github.com/mmynk/tabsettle/internal/models"
	"github.com/mmynk/tabsettle/internal/report"
)

func toAPIGroup(g *models.Group) *api.Group {
	return &api.Group{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		MemberIDs:   append([]string{}, g.MemberIDs...),
		CreatedAt:   g.CreatedAt,
	}
}

func toAPIMember(m *models.Member) *api.Member {
	return &api.Member{ID: m.ID, Name: m.Name, CreatedAt: m.CreatedAt}
}

func toAPITransaction(t *models.Transaction) *api.Transaction {
	out := &api.Transaction{
		ID:          t.ID,
		GroupID:     t.GroupID,
		Kind:        string(t.Kind),
		Description: t.Description,
		PayerID:     t.PayerID,
		PayeeID:     t.PayeeID,
		Amount:      t.Amount,
		Currency:    string(t.Currency),
		SplitMethod: string(t.SplitMethod),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	for _, s := range t.Splits {
		out.Splits = append(out.Splits, api.Split{MemberID: s.MemberID, Amount: s.Amount})
	}
	return out
}

func toModelSplits(splits []api.Split) []models.Split {
	if len(splits) == 0 {
		return nil
	}
	out := make([]models.Split, len(splits))
	for i, s := range splits {
		out[i] = models.Split{MemberID: s.MemberID, Amount: s.Amount}
	}
	return out
}

func toAPIBalance(names report.Names, b calculator.MemberBalance) *api.Balance {
	return &api.Balance{
		MemberID:   b.MemberID,
		MemberName: names.Name(b.MemberID),
		Currency:   string(b.Currency),
		Spent:      b.Spent,
		Owed:       b.Owed,
		Net:        b.Net,
	}
}

func toAPISettlement(names report.Names, s calculator.Settlement) *api.Settlement {
	return &api.Settlement{
		FromMemberID: s.From,
		FromName:     names.Name(s.From),
		ToMemberID:   s.To,
		ToName:       names.Name(s.To),
		Amount:       s.Amount,
		Currency:     string(s.Currency),
	}
}
