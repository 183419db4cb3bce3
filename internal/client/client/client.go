package client

import (
	"context"

	"github.com/dmitrijs2005/cardkeeper/internal/client/signing"
)

// Client is the remote API contract consumed by the session gate, the
// stores and the CLI.
type Client interface {
	ResolveSession(ctx context.Context, token string) (*UserProfile, error)
	Login(ctx context.Context, creds Credentials) (*LoginResult, error)
	Logout(ctx context.Context) error
	Ping(ctx context.Context) error

	ListCards(ctx context.Context, page, limit int) (*ListResponse[Card], error)
	ListTransactions(ctx context.Context, page, limit int) (*ListResponse[Transaction], error)
	ListInvoices(ctx context.Context, page, limit int) (*ListResponse[Invoice], error)
	Balance(ctx context.Context) (*Balance, error)
	Renewal(ctx context.Context) (*RenewalInfo, error)
	UnreadCount(ctx context.Context) (int, error)

	// Sensitive mutations; the outcome reports whether they left signed.
	FreezeCard(ctx context.Context, id string) (signing.Outcome, error)
	DeleteCard(ctx context.Context, id string) (signing.Outcome, error)
}
