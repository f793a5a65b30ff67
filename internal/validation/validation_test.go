package validation

import (
	"testing"

	"github.com/mmynk/tabsettle/internal/calculator"
	"github.com/mmynk/tabsettle/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGroup() *models.Group {
	return &models.Group{ID: "g1", Name: "Flat", MemberIDs: []string{"A", "B", "C"}, Active: true}
}

func validExpense() *models.Transaction {
	return &models.Transaction{
		GroupID:     "g1",
		Kind:        models.KindExpense,
		Description: "Groceries",
		PayerID:     "A",
		Amount:      decimal.RequireFromString("90"),
		Currency:    models.USD,
		SplitMethod: models.SplitExact,
		Splits: []models.Split{
			{MemberID: "A", Amount: decimal.RequireFromString("30")},
			{MemberID: "B", Amount: decimal.RequireFromString("30")},
			{MemberID: "C", Amount: decimal.RequireFromString("30")},
		},
	}
}

func validPayment() *models.Transaction {
	return &models.Transaction{
		GroupID:  "g1",
		Kind:     models.KindPayment,
		PayerID:  "B",
		PayeeID:  "A",
		Amount:   decimal.RequireFromString("30"),
		Currency: models.USD,
	}
}

func TestTransaction_Valid(t *testing.T) {
	v := New()
	assert.NoError(t, v.Transaction(validExpense(), testGroup()))
	assert.NoError(t, v.Transaction(validPayment(), testGroup()))
}

func TestTransaction_Rejections(t *testing.T) {
	tests := []struct {
		name      string
		tx        func() *models.Transaction
		wantErr   error
		wantField string
	}{
		{
			name: "split total mismatch",
			tx: func() *models.Transaction {
				tx := validExpense()
				tx.Splits[2].Amount = decimal.RequireFromString("29.99")
				return tx
			},
			wantErr:   calculator.ErrInvalidSplitTotal,
			wantField: "splits",
		},
		{
			name: "negative amount",
			tx: func() *models.Transaction {
				tx := validExpense()
				tx.Amount = decimal.RequireFromString("-90")
				return tx
			},
			wantErr:   calculator.ErrNegativeAmount,
			wantField: "amount",
		},
		{
			name: "negative split",
			tx: func() *models.Transaction {
				tx := validExpense()
				tx.Splits[0].Amount = decimal.RequireFromString("-30")
				tx.Splits[1].Amount = decimal.RequireFromString("90")
				return tx
			},
			wantErr:   calculator.ErrNegativeAmount,
			wantField: "splits[0].amount",
		},
		{
			name: "amount finer than currency",
			tx: func() *models.Transaction {
				tx := validExpense()
				tx.Amount = decimal.RequireFromString("90.005")
				return tx
			},
			wantErr:   ErrInvalid,
			wantField: "amount",
		},
		{
			name: "split finer than currency",
			tx: func() *models.Transaction {
				tx := validExpense()
				tx.Splits[0].Amount = decimal.RequireFromString("30.005")
				tx.Splits[1].Amount = decimal.RequireFromString("29.995")
				return tx
			},
			wantErr:   ErrInvalid,
			wantField: "splits[0].amount",
		},
		{
			name: "payer outside roster",
			tx: func() *models.Transaction {
				tx := validExpense()
				tx.PayerID = "Z"
				return tx
			},
			wantErr:   calculator.ErrUnknownMember,
			wantField: "payer_id",
		},
		{
			name: "split member outside roster",
			tx: func() *models.Transaction {
				tx := validExpense()
				tx.Splits[1].MemberID = "Z"
				return tx
			},
			wantErr:   calculator.ErrUnknownMember,
			wantField: "splits[1].member_id",
		},
		{
			name: "duplicate split member",
			tx: func() *models.Transaction {
				tx := validExpense()
				tx.Splits[1].MemberID = "A"
				return tx
			},
			wantErr:   ErrInvalid,
			wantField: "splits[1].member_id",
		},
		{
			name: "no splits",
			tx: func() *models.Transaction {
				tx := validExpense()
				tx.Splits = nil
				return tx
			},
			wantErr:   ErrInvalid,
			wantField: "splits",
		},
		{
			name: "unsupported currency",
			tx: func() *models.Transaction {
				tx := validExpense()
				tx.Currency = "XYZ"
				return tx
			},
			wantErr:   ErrInvalid,
			wantField: "currency",
		},
		{
			name: "unknown kind",
			tx: func() *models.Transaction {
				tx := validExpense()
				tx.Kind = "REFUND"
				return tx
			},
			wantErr:   ErrInvalid,
			wantField: "kind",
		},
		{
			name: "missing payer",
			tx: func() *models.Transaction {
				tx := validExpense()
				tx.PayerID = ""
				return tx
			},
			wantErr:   ErrInvalid,
			wantField: "payer_id",
		},
		{
			name: "other group",
			tx: func() *models.Transaction {
				tx := validExpense()
				tx.GroupID = "g2"
				return tx
			},
			wantErr:   ErrInvalid,
			wantField: "group_id",
		},
		{
			name: "payment to self",
			tx: func() *models.Transaction {
				tx := validPayment()
				tx.PayeeID = tx.PayerID
				return tx
			},
			wantErr:   ErrInvalid,
			wantField: "payee_id",
		},
		{
			name: "payment without payee",
			tx: func() *models.Transaction {
				tx := validPayment()
				tx.PayeeID = ""
				return tx
			},
			wantErr:   ErrInvalid,
			wantField: "payee_id",
		},
		{
			name: "payment payee outside roster",
			tx: func() *models.Transaction {
				tx := validPayment()
				tx.PayeeID = "Z"
				return tx
			},
			wantErr:   calculator.ErrUnknownMember,
			wantField: "payee_id",
		},
		{
			name: "zero payment",
			tx: func() *models.Transaction {
				tx := validPayment()
				tx.Amount = decimal.Zero
				return tx
			},
			wantErr:   ErrInvalid,
			wantField: "amount",
		},
	}

	v := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Transaction(tt.tx(), testGroup())
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)

			var verr *Error
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantField, verr.Field)
		})
	}
}

func TestAmount(t *testing.T) {
	tests := []struct {
		amount   string
		currency models.Currency
		wantErr  error
	}{
		{"10.01", models.USD, nil},
		{"10.010", models.USD, nil},
		{"10", models.USD, nil},
		{"0", models.EUR, nil},
		{"10.005", models.USD, ErrInvalid},
		{"1500", models.KRW, nil},
		{"1500.5", models.KRW, ErrInvalid},
		{"-1", models.USD, calculator.ErrNegativeAmount},
	}

	for _, tt := range tests {
		t.Run(tt.amount+" "+tt.currency.String(), func(t *testing.T) {
			err := Amount("amount", decimal.RequireFromString(tt.amount), tt.currency)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			var verr *Error
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, "amount", verr.Field)
		})
	}
}

func TestStruct(t *testing.T) {
	type member struct {
		ID string `json:"member_id" validate:"required"`
	}
	type request struct {
		Name    string   `json:"name" validate:"required,max=5"`
		Members []member `json:"members" validate:"dive"`
	}

	v := New()
	assert.NoError(t, v.Struct(&request{Name: "Flat", Members: []member{{ID: "a"}}}))

	tests := []struct {
		name      string
		req       request
		wantField string
	}{
		{"missing name", request{}, "name"},
		{"name too long", request{Name: "Roommates"}, "name"},
		{"nested field", request{Name: "Flat", Members: []member{{ID: "a"}, {}}}, "members[1].member_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(&tt.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalid)

			var verr *Error
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantField, verr.Field)
		})
	}
}
