package api

import (
	"context"
	"net/url"

	"finboss/internal/core"
)

const (
	PathLogin             = "/api/v1/auth/login"
	PathRegister          = "/api/v1/auth/register"
	PathProfile           = "/api/v1/auth/profile"
	PathTransactions      = "/api/v1/transactions"
	PathCategoryAnalytics = "/api/v1/transactions/analytics/category"
)

// TransactionPath returns the resource path for one transaction.
func TransactionPath(id string) string {
	return PathTransactions + "/" + url.PathEscape(id)
}

func (c *Client) Login(ctx context.Context, req core.LoginRequest) (core.Envelope[core.AuthResponse], error) {
	return Post[core.LoginRequest, core.Envelope[core.AuthResponse]](ctx, c, PathLogin, req)
}

func (c *Client) Register(ctx context.Context, req core.RegisterRequest) (core.Envelope[core.AuthResponse], error) {
	return Post[core.RegisterRequest, core.Envelope[core.AuthResponse]](ctx, c, PathRegister, req)
}

func (c *Client) Profile(ctx context.Context) (core.Envelope[core.User], error) {
	return Get[core.Envelope[core.User]](ctx, c, PathProfile)
}

func (c *Client) ListTransactions(ctx context.Context) (core.Envelope[[]core.Transaction], error) {
	return Get[core.Envelope[[]core.Transaction]](ctx, c, PathTransactions)
}

func (c *Client) CreateTransaction(ctx context.Context, req core.CreateTransactionRequest) (core.Envelope[core.Transaction], error) {
	return Post[core.CreateTransactionRequest, core.Envelope[core.Transaction]](ctx, c, PathTransactions, req)
}

func (c *Client) GetTransaction(ctx context.Context, id string) (core.Envelope[core.Transaction], error) {
	return Get[core.Envelope[core.Transaction]](ctx, c, TransactionPath(id))
}

func (c *Client) UpdateTransaction(ctx context.Context, id string, req core.UpdateTransactionRequest) (core.Envelope[core.Transaction], error) {
	return Put[core.UpdateTransactionRequest, core.Envelope[core.Transaction]](ctx, c, TransactionPath(id), req)
}

func (c *Client) DeleteTransaction(ctx context.Context, id string) (core.Envelope[map[string]string], error) {
	return Delete[core.Envelope[map[string]string]](ctx, c, TransactionPath(id))
}

func (c *Client) CategoryBreakdown(ctx context.Context) (core.Envelope[[]core.CategoryBreakdown], error) {
	return Get[core.Envelope[[]core.CategoryBreakdown]](ctx, c, PathCategoryAnalytics)
}
