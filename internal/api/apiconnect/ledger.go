package apiconnect

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/tabsettle/internal/api"
)

// LedgerServiceName is the fully-qualified name of the LedgerService service.
const LedgerServiceName = "tabsettle.v1.LedgerService"

const (
	LedgerServiceRecordExpenseProcedure     = "/tabsettle.v1.LedgerService/RecordExpense"
	LedgerServiceRecordPaymentProcedure     = "/tabsettle.v1.LedgerService/RecordPayment"
	LedgerServiceGetTransactionProcedure    = "/tabsettle.v1.LedgerService/GetTransaction"
	LedgerServiceListTransactionsProcedure  = "/tabsettle.v1.LedgerService/ListTransactions"
	LedgerServiceUpdateTransactionProcedure = "/tabsettle.v1.LedgerService/UpdateTransaction"
	LedgerServiceDeleteTransactionProcedure = "/tabsettle.v1.LedgerService/DeleteTransaction"
	LedgerServiceGetGroupSummaryProcedure   = "/tabsettle.v1.LedgerService/GetGroupSummary"
)

// LedgerServiceHandler records transactions and computes settlements.
type LedgerServiceHandler interface {
	RecordExpense(context.Context, *connect.Request[api.RecordExpenseRequest]) (*connect.Response[api.RecordExpenseResponse], error)
	RecordPayment(context.Context, *connect.Request[api.RecordPaymentRequest]) (*connect.Response[api.RecordPaymentResponse], error)
	GetTransaction(context.Context, *connect.Request[api.GetTransactionRequest]) (*connect.Response[api.GetTransactionResponse], error)
	ListTransactions(context.Context, *connect.Request[api.ListTransactionsRequest]) (*connect.Response[api.ListTransactionsResponse], error)
	UpdateTransaction(context.Context, *connect.Request[api.UpdateTransactionRequest]) (*connect.Response[api.UpdateTransactionResponse], error)
	DeleteTransaction(context.Context, *connect.Request[api.DeleteTransactionRequest]) (*connect.Response[api.DeleteTransactionResponse], error)
	GetGroupSummary(context.Context, *connect.Request[api.GetGroupSummaryRequest]) (*connect.Response[api.GetGroupSummaryResponse], error)
}

// NewLedgerServiceHandler builds an HTTP handler from the service implementation.
// It returns the path on which to mount the handler and the handler itself.
func NewLedgerServiceHandler(svc LedgerServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append(opts, WithJSON())
	routes := map[string]http.Handler{
		LedgerServiceRecordExpenseProcedure:     connect.NewUnaryHandler(LedgerServiceRecordExpenseProcedure, svc.RecordExpense, opts...),
		LedgerServiceRecordPaymentProcedure:     connect.NewUnaryHandler(LedgerServiceRecordPaymentProcedure, svc.RecordPayment, opts...),
		LedgerServiceGetTransactionProcedure:    connect.NewUnaryHandler(LedgerServiceGetTransactionProcedure, svc.GetTransaction, opts...),
		LedgerServiceListTransactionsProcedure:  connect.NewUnaryHandler(LedgerServiceListTransactionsProcedure, svc.ListTransactions, opts...),
		LedgerServiceUpdateTransactionProcedure: connect.NewUnaryHandler(LedgerServiceUpdateTransactionProcedure, svc.UpdateTransaction, opts...),
		LedgerServiceDeleteTransactionProcedure: connect.NewUnaryHandler(LedgerServiceDeleteTransactionProcedure, svc.DeleteTransaction, opts...),
		LedgerServiceGetGroupSummaryProcedure:   connect.NewUnaryHandler(LedgerServiceGetGroupSummaryProcedure, svc.GetGroupSummary, opts...),
	}
	return "/" + LedgerServiceName + "/", route(routes)
}

// LedgerServiceClient is a client for the LedgerService service.
type LedgerServiceClient interface {
	LedgerServiceHandler
}

type ledgerServiceClient struct {
	recordExpense     *connect.Client[api.RecordExpenseRequest, api.RecordExpenseResponse]
	recordPayment     *connect.Client[api.RecordPaymentRequest, api.RecordPaymentResponse]
	getTransaction    *connect.Client[api.GetTransactionRequest, api.GetTransactionResponse]
	listTransactions  *connect.Client[api.ListTransactionsRequest, api.ListTransactionsResponse]
	updateTransaction *connect.Client[api.UpdateTransactionRequest, api.UpdateTransactionResponse]
	deleteTransaction *connect.Client[api.DeleteTransactionRequest, api.DeleteTransactionResponse]
	getGroupSummary   *connect.Client[api.GetGroupSummaryRequest, api.GetGroupSummaryResponse]
}

// NewLedgerServiceClient constructs a client for the LedgerService service.
func NewLedgerServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) LedgerServiceClient {
	opts = append(opts, WithJSON())
	return &ledgerServiceClient{
		recordExpense:     connect.NewClient[api.RecordExpenseRequest, api.RecordExpenseResponse](httpClient, baseURL+LedgerServiceRecordExpenseProcedure, opts...),
		recordPayment:     connect.NewClient[api.RecordPaymentRequest, api.RecordPaymentResponse](httpClient, baseURL+LedgerServiceRecordPaymentProcedure, opts...),
		getTransaction:    connect.NewClient[api.GetTransactionRequest, api.GetTransactionResponse](httpClient, baseURL+LedgerServiceGetTransactionProcedure, opts...),
		listTransactions:  connect.NewClient[api.ListTransactionsRequest, api.ListTransactionsResponse](httpClient, baseURL+LedgerServiceListTransactionsProcedure, opts...),
		updateTransaction: connect.NewClient[api.UpdateTransactionRequest, api.UpdateTransactionResponse](httpClient, baseURL+LedgerServiceUpdateTransactionProcedure, opts...),
		deleteTransaction: connect.NewClient[api.DeleteTransactionRequest, api.DeleteTransactionResponse](httpClient, baseURL+LedgerServiceDeleteTransactionProcedure, opts...),
		getGroupSummary:   connect.NewClient[api.GetGroupSummaryRequest, api.GetGroupSummaryResponse](httpClient, baseURL+LedgerServiceGetGroupSummaryProcedure, opts...),
	}
}

func (c *ledgerServiceClient) RecordExpense(ctx context.Context, req *connect.Request[api.RecordExpenseRequest]) (*connect.Response[api.RecordExpenseResponse], error) {
	return c.recordExpense.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) RecordPayment(ctx context.Context, req *connect.Request[api.RecordPaymentRequest]) (*connect.Response[api.RecordPaymentResponse], error) {
	return c.recordPayment.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) GetTransaction(ctx context.Context, req *connect.Request[api.GetTransactionRequest]) (*connect.Response[api.GetTransactionResponse], error) {
	return c.getTransaction.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) ListTransactions(ctx context.Context, req *connect.Request[api.ListTransactionsRequest]) (*connect.Response[api.ListTransactionsResponse], error) {
	return c.listTransactions.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) UpdateTransaction(ctx context.Context, req *connect.Request[api.UpdateTransactionRequest]) (*connect.Response[api.UpdateTransactionResponse], error) {
	return c.updateTransaction.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) DeleteTransaction(ctx context.Context, req *connect.Request[api.DeleteTransactionRequest]) (*connect.Response[api.DeleteTransactionResponse], error) {
	return c.deleteTransaction.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) GetGroupSummary(ctx context.Context, req *connect.Request[api.GetGroupSummaryRequest]) (*connect.Response[api.GetGroupSummaryResponse], error) {
	return c.getGroupSummary.CallUnary(ctx, req)
}
