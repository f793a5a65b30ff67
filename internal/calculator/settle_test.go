package calculator

import (
	"fmt"
	"math/rand"
	"reflect"
	"testing"

	"github.com/mmynk/tabsettle/internal/models"
	"github.com/shopspring/decimal"
)

type wantSettlement struct {
	from, to string
	amount   string
	currency models.Currency
}

func checkSettlements(t *testing.T, got []Settlement, want []wantSettlement) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d settlements, want %d: %+v", len(got), len(want), got)
	}
	for i, w := range want {
		g := got[i]
		if g.From != w.from || g.To != w.to || g.Currency != w.currency || !g.Amount.Equal(dec(w.amount)) {
			t.Errorf("settlement[%d] = %s->%s %s %s, want %s->%s %s %s",
				i, g.From, g.To, g.Amount, g.Currency, w.from, w.to, w.amount, w.currency)
		}
	}
}

func balance(member string, currency models.Currency, net string) MemberBalance {
	return MemberBalance{MemberID: member, Currency: currency, Net: dec(net)}
}

func TestPlan(t *testing.T) {
	tests := []struct {
		name     string
		balances []MemberBalance
		want     []wantSettlement
	}{
		{
			name:     "no balances",
			balances: nil,
			want:     nil,
		},
		{
			name: "single creditor",
			balances: []MemberBalance{
				balance("A", models.USD, "-60"),
				balance("B", models.USD, "30"),
				balance("C", models.USD, "30"),
			},
			want: []wantSettlement{
				{"B", "A", "30", models.USD},
				{"C", "A", "30", models.USD},
			},
		},
		{
			name: "unequal split",
			balances: []MemberBalance{
				balance("A", models.EUR, "-50"),
				balance("B", models.EUR, "30"),
				balance("C", models.EUR, "20"),
			},
			want: []wantSettlement{
				{"B", "A", "30", models.EUR},
				{"C", "A", "20", models.EUR},
			},
		},
		{
			name: "largest debtor matched with largest creditor",
			balances: []MemberBalance{
				balance("A", models.USD, "10"),
				balance("B", models.USD, "-25"),
				balance("C", models.USD, "40"),
				balance("D", models.USD, "-25"),
			},
			want: []wantSettlement{
				{"C", "B", "25", models.USD},
				{"C", "D", "15", models.USD},
				{"A", "D", "10", models.USD},
			},
		},
		{
			name: "ties keep input order",
			balances: []MemberBalance{
				balance("A", models.USD, "-20"),
				balance("B", models.USD, "10"),
				balance("C", models.USD, "10"),
			},
			want: []wantSettlement{
				{"B", "A", "10", models.USD},
				{"C", "A", "10", models.USD},
			},
		},
		{
			name: "zero balances never settle",
			balances: []MemberBalance{
				balance("A", models.USD, "0"),
				balance("B", models.USD, "0"),
			},
			want: nil,
		},
		{
			name: "only debtors means nothing to settle",
			balances: []MemberBalance{
				balance("A", models.USD, "5"),
			},
			want: nil,
		},
		{
			name: "currencies settle independently in code order",
			balances: []MemberBalance{
				balance("A", models.USD, "-40"),
				balance("A", models.GBP, "15"),
				balance("B", models.USD, "20"),
				balance("B", models.GBP, "-15"),
				balance("C", models.USD, "20"),
			},
			want: []wantSettlement{
				{"A", "B", "15", models.GBP},
				{"B", "A", "20", models.USD},
				{"C", "A", "20", models.USD},
			},
		},
		{
			name: "fractional cents settle exactly",
			balances: []MemberBalance{
				balance("A", models.USD, "-0.3"),
				balance("B", models.USD, "0.1"),
				balance("C", models.USD, "0.2"),
			},
			want: []wantSettlement{
				{"C", "A", "0.2", models.USD},
				{"B", "A", "0.1", models.USD},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkSettlements(t, Plan(tt.balances), tt.want)
		})
	}
}

func TestPlan_DoesNotMutateInput(t *testing.T) {
	balances := []MemberBalance{
		balance("A", models.USD, "-60"),
		balance("B", models.USD, "30"),
		balance("C", models.USD, "30"),
	}
	before := make([]MemberBalance, len(balances))
	copy(before, balances)

	Plan(balances)

	for i := range balances {
		if balances[i].MemberID != before[i].MemberID || !balances[i].Net.Equal(before[i].Net) {
			t.Errorf("balance[%d] changed from %+v to %+v", i, before[i], balances[i])
		}
	}
}

// randomExpenses builds expenses whose splits always sum to the amount.
func randomExpenses(rng *rand.Rand, members []string, n int) []models.Transaction {
	currencies := []models.Currency{models.USD, models.EUR, models.KRW}
	txs := make([]models.Transaction, 0, n)
	for i := 0; i < n; i++ {
		currency := currencies[rng.Intn(len(currencies))]
		amount := decimal.New(rng.Int63n(100000), -currency.MinorUnits())

		participants := make([]string, 0, len(members))
		for _, m := range members {
			if rng.Intn(2) == 0 {
				participants = append(participants, m)
			}
		}
		if len(participants) == 0 {
			participants = append(participants, members[0])
		}
		splits, err := SplitEqually(amount, currency, participants)
		if err != nil {
			panic(err)
		}
		txs = append(txs, models.Transaction{
			ID:       fmt.Sprintf("t%d", i),
			Kind:     models.KindExpense,
			PayerID:  members[rng.Intn(len(members))],
			Amount:   amount,
			Currency: currency,
			Splits:   splits,
			Active:   true,
		})
	}
	return txs
}

func TestEngineProperties(t *testing.T) {
	members := []string{"A", "B", "C", "D", "E", "F"}
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 50; round++ {
		txs := randomExpenses(rng, members, 1+rng.Intn(20))

		balances, err := Aggregate(members, txs)
		if err != nil {
			t.Fatalf("round %d: Aggregate() unexpected error: %v", round, err)
		}
		settlements := Plan(balances)

		// Zero-sum per currency.
		sums := make(map[models.Currency]decimal.Decimal)
		debtors := make(map[models.Currency]int)
		creditors := make(map[models.Currency]int)
		remaining := make(map[string]decimal.Decimal)
		for _, b := range balances {
			sums[b.Currency] = sums[b.Currency].Add(b.Net)
			switch b.Net.Sign() {
			case 1:
				debtors[b.Currency]++
			case -1:
				creditors[b.Currency]++
			}
			remaining[b.MemberID+"/"+string(b.Currency)] = b.Net
		}
		for c, sum := range sums {
			if !sum.IsZero() {
				t.Errorf("round %d: %s balances sum to %s, want 0", round, c, sum)
			}
		}

		// Applying every settlement drives every balance to zero.
		perCurrency := make(map[models.Currency]int)
		for _, s := range settlements {
			if !s.Amount.IsPositive() {
				t.Errorf("round %d: non-positive settlement %+v", round, s)
			}
			perCurrency[s.Currency]++
			from := s.From + "/" + string(s.Currency)
			to := s.To + "/" + string(s.Currency)
			remaining[from] = remaining[from].Sub(s.Amount)
			remaining[to] = remaining[to].Add(s.Amount)
		}
		for key, r := range remaining {
			if !r.IsZero() {
				t.Errorf("round %d: %s left with %s after settling", round, key, r)
			}
		}

		// Greedy bound.
		for c, n := range perCurrency {
			if bound := debtors[c] + creditors[c] - 1; n > bound {
				t.Errorf("round %d: %s produced %d settlements, bound is %d", round, c, n, bound)
			}
		}

		// Idempotence.
		again, err := Aggregate(members, txs)
		if err != nil {
			t.Fatalf("round %d: second Aggregate() unexpected error: %v", round, err)
		}
		if !reflect.DeepEqual(balances, again) {
			t.Errorf("round %d: Aggregate() not idempotent", round)
		}
		if !reflect.DeepEqual(settlements, Plan(again)) {
			t.Errorf("round %d: Plan() not idempotent", round)
		}
	}
}

func TestEngineExamples(t *testing.T) {
	roster := []string{"A", "B", "C"}

	t.Run("no activity", func(t *testing.T) {
		balances, err := Aggregate(roster, nil)
		if err != nil {
			t.Fatalf("Aggregate() unexpected error: %v", err)
		}
		if len(balances) != 0 {
			t.Errorf("expected no balances, got %+v", balances)
		}
		if settlements := Plan(balances); len(settlements) != 0 {
			t.Errorf("expected no settlements, got %+v", settlements)
		}
	})

	t.Run("multi-currency never crosses currencies", func(t *testing.T) {
		balances, err := Aggregate(roster, []models.Transaction{
			expense("t1", "A", "90", models.USD, split("A", "30"), split("B", "30"), split("C", "30")),
			expense("t2", "B", "40", models.GBP, split("A", "20"), split("B", "20")),
		})
		if err != nil {
			t.Fatalf("Aggregate() unexpected error: %v", err)
		}
		checkSettlements(t, Plan(balances), []wantSettlement{
			{"A", "B", "20", models.GBP},
			{"B", "A", "30", models.USD},
			{"C", "A", "30", models.USD},
		})
	})
}
