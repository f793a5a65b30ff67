// Package api defines the request and response messages of the tabsettle
// Connect services. Messages are plain structs carried as JSON.
package api

import "github.com/shopspring/decimal"

// Group is a roster of members sharing expenses.
type Group struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	MemberIDs   []string `json:"member_ids"`
	CreatedAt   int64    `json:"created_at"`
}

// Member is a member directory entry.
type Member struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt int64  `json:"created_at"`
}

// Split is one member's share of an expense.
type Split struct {
	MemberID string          `json:"member_id" validate:"required"`
	Amount   decimal.Decimal `json:"amount"`
}

// Transaction is a recorded expense or payment.
type Transaction struct {
	ID          string          `json:"id"`
	GroupID     string          `json:"group_id"`
	Kind        string          `json:"kind"`
	Description string          `json:"description,omitempty"`
	PayerID     string          `json:"payer_id"`
	PayeeID     string          `json:"payee_id,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	SplitMethod string          `json:"split_method,omitempty"`
	Splits      []Split         `json:"splits,omitempty"`
	CreatedAt   int64           `json:"created_at"`
	UpdatedAt   int64           `json:"updated_at"`
}

// Balance is one member's net position in one currency.
// Positive Net means the member owes, negative means they are owed.
type Balance struct {
	MemberID   string          `json:"member_id"`
	MemberName string          `json:"member_name"`
	Currency   string          `json:"currency"`
	Spent      decimal.Decimal `json:"spent"`
	Owed       decimal.Decimal `json:"owed"`
	Net        decimal.Decimal `json:"net"`
}

// Settlement instructs FromMemberID to pay ToMemberID.
type Settlement struct {
	FromMemberID string          `json:"from_member_id"`
	FromName     string          `json:"from_name"`
	ToMemberID   string          `json:"to_member_id"`
	ToName       string          `json:"to_name"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
}

// GroupService messages.

type CreateGroupRequest struct {
	Name        string   `json:"name" validate:"required,max=100"`
	Description string   `json:"description" validate:"max=500"`
	MemberIDs   []string `json:"member_ids" validate:"dive,required"`
}

type CreateGroupResponse struct {
	Group *Group `json:"group"`
}

type GetGroupRequest struct {
	GroupID string `json:"group_id" validate:"required"`
}

type GetGroupResponse struct {
	Group   *Group    `json:"group"`
	Members []*Member `json:"members"`
}

type ListGroupsRequest struct{}

type ListGroupsResponse struct {
	Groups []*Group `json:"groups"`
}

type UpdateGroupRequest struct {
	GroupID     string   `json:"group_id" validate:"required"`
	Name        string   `json:"name" validate:"required,max=100"`
	Description string   `json:"description" validate:"max=500"`
	MemberIDs   []string `json:"member_ids" validate:"dive,required"`
}

type UpdateGroupResponse struct {
	Group *Group `json:"group"`
}

type DeleteGroupRequest struct {
	GroupID string `json:"group_id" validate:"required"`
}

type DeleteGroupResponse struct{}

type AddMembersRequest struct {
	GroupID   string   `json:"group_id" validate:"required"`
	MemberIDs []string `json:"member_ids" validate:"required,min=1,dive,required"`
}

type AddMembersResponse struct {
	Group *Group `json:"group"`
}

type CreateMemberRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type CreateMemberResponse struct {
	Member *Member `json:"member"`
}

type ListMembersRequest struct{}

type ListMembersResponse struct {
	Members []*Member `json:"members"`
}

type UpdateMemberRequest struct {
	MemberID string `json:"member_id" validate:"required"`
	Name     string `json:"name" validate:"required,max=100"`
}

type UpdateMemberResponse struct {
	Member *Member `json:"member"`
}

type DeleteMemberRequest struct {
	MemberID string `json:"member_id" validate:"required"`
}

type DeleteMemberResponse struct{}

// LedgerService messages.

// RecordExpenseRequest records an expense. With split method EQUAL the amount
// is divided among ParticipantIDs, or the whole roster when that is empty.
// With EXACT, Splits are taken as given.
type RecordExpenseRequest struct {
	GroupID        string          `json:"group_id" validate:"required"`
	Description    string          `json:"description"`
	PayerID        string          `json:"payer_id" validate:"required"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency" validate:"required"`
	SplitMethod    string          `json:"split_method" validate:"required,oneof=EQUAL EXACT"`
	ParticipantIDs []string        `json:"participant_ids,omitempty"`
	Splits         []Split         `json:"splits,omitempty"`
}

type RecordExpenseResponse struct {
	Transaction *Transaction `json:"transaction"`
}

type RecordPaymentRequest struct {
	GroupID     string          `json:"group_id" validate:"required"`
	Description string          `json:"description"`
	PayerID     string          `json:"payer_id" validate:"required"`
	PayeeID     string          `json:"payee_id" validate:"required"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency" validate:"required"`
}

type RecordPaymentResponse struct {
	Transaction *Transaction `json:"transaction"`
}

type GetTransactionRequest struct {
	TransactionID string `json:"transaction_id" validate:"required"`
}

type GetTransactionResponse struct {
	Transaction *Transaction `json:"transaction"`
}

type ListTransactionsRequest struct {
	GroupID string `json:"group_id" validate:"required"`
}

type ListTransactionsResponse struct {
	Transactions []*Transaction `json:"transactions"`
}

// UpdateTransactionRequest replaces a transaction's content. The kind cannot
// change; split fields are only read for expenses and PayeeID only for payments.
type UpdateTransactionRequest struct {
	TransactionID  string          `json:"transaction_id" validate:"required"`
	Description    string          `json:"description"`
	PayerID        string          `json:"payer_id" validate:"required"`
	PayeeID        string          `json:"payee_id,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency" validate:"required"`
	SplitMethod    string          `json:"split_method,omitempty" validate:"omitempty,oneof=EQUAL EXACT"`
	ParticipantIDs []string        `json:"participant_ids,omitempty"`
	Splits         []Split         `json:"splits,omitempty"`
}

type UpdateTransactionResponse struct {
	Transaction *Transaction `json:"transaction"`
}

type DeleteTransactionRequest struct {
	TransactionID string `json:"transaction_id" validate:"required"`
}

type DeleteTransactionResponse struct{}

type GetGroupSummaryRequest struct {
	GroupID string `json:"group_id" validate:"required"`
}

// GetGroupSummaryResponse carries a group's balances and the transfers that
// settle them. Lines is the human-readable rendering of both.
type GetGroupSummaryResponse struct {
	GroupID        string        `json:"group_id"`
	Balances       []*Balance    `json:"balances"`
	Settlements    []*Settlement `json:"settlements"`
	Lines          []string      `json:"lines"`
	AlreadySettled bool          `json:"already_settled"`
}
