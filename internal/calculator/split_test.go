package calculator

import (
	"errors"
	"testing"

	"github.com/mmynk/tabsettle/internal/models"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestSplitEqually(t *testing.T) {
	tests := []struct {
		name         string
		amount       decimal.Decimal
		currency     models.Currency
		members      []string
		wantErr      error
		wantAnyErr   bool
		validateFunc func(t *testing.T, splits []models.Split)
	}{
		{
			name:     "even three-way split",
			amount:   dec("90"),
			currency: models.USD,
			members:  []string{"A", "B", "C"},
			validateFunc: func(t *testing.T, splits []models.Split) {
				for _, s := range splits {
					if !s.Amount.Equal(dec("30")) {
						t.Errorf("%s share = %s, want 30", s.MemberID, s.Amount)
					}
				}
			},
		},
		{
			name:     "leftover cent goes to first member",
			amount:   dec("100"),
			currency: models.EUR,
			members:  []string{"A", "B", "C"},
			validateFunc: func(t *testing.T, splits []models.Split) {
				want := []string{"33.34", "33.33", "33.33"}
				for i, s := range splits {
					if !s.Amount.Equal(dec(want[i])) {
						t.Errorf("%s share = %s, want %s", s.MemberID, s.Amount, want[i])
					}
				}
			},
		},
		{
			name:     "two leftover cents",
			amount:   dec("0.05"),
			currency: models.GBP,
			members:  []string{"A", "B", "C"},
			validateFunc: func(t *testing.T, splits []models.Split) {
				want := []string{"0.02", "0.02", "0.01"}
				for i, s := range splits {
					if !s.Amount.Equal(dec(want[i])) {
						t.Errorf("%s share = %s, want %s", s.MemberID, s.Amount, want[i])
					}
				}
			},
		},
		{
			name:     "zero-decimal currency splits in whole units",
			amount:   dec("10000"),
			currency: models.KRW,
			members:  []string{"A", "B", "C"},
			validateFunc: func(t *testing.T, splits []models.Split) {
				want := []string{"3334", "3333", "3333"}
				for i, s := range splits {
					if !s.Amount.Equal(dec(want[i])) {
						t.Errorf("%s share = %s, want %s", s.MemberID, s.Amount, want[i])
					}
				}
			},
		},
		{
			name:     "zero amount",
			amount:   decimal.Zero,
			currency: models.USD,
			members:  []string{"A", "B"},
			validateFunc: func(t *testing.T, splits []models.Split) {
				for _, s := range splits {
					if !s.Amount.IsZero() {
						t.Errorf("%s share = %s, want 0", s.MemberID, s.Amount)
					}
				}
			},
		},
		{
			name:       "no participants should error",
			amount:     dec("10"),
			currency:   models.USD,
			members:    nil,
			wantAnyErr: true,
		},
		{
			name:     "negative amount should error",
			amount:   dec("-10"),
			currency: models.USD,
			members:  []string{"A"},
			wantErr:  ErrNegativeAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			splits, err := SplitEqually(tt.amount, tt.currency, tt.members)
			if tt.wantErr != nil || tt.wantAnyErr {
				if err == nil {
					t.Fatalf("SplitEqually() expected error, got nil")
				}
				if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
					t.Fatalf("SplitEqually() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("SplitEqually() unexpected error: %v", err)
			}
			if len(splits) != len(tt.members) {
				t.Fatalf("got %d splits, want %d", len(splits), len(tt.members))
			}
			if total := SplitTotal(splits); !total.Equal(tt.amount) {
				t.Errorf("splits sum to %s, want %s", total, tt.amount)
			}
			if tt.validateFunc != nil {
				tt.validateFunc(t, splits)
			}
		})
	}
}
