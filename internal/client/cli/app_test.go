package cli

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/cardkeeper/internal/client/apierr"
	"github.com/dmitrijs2005/cardkeeper/internal/client/client"
	"github.com/dmitrijs2005/cardkeeper/internal/client/config"
	"github.com/dmitrijs2005/cardkeeper/internal/client/renewal"
	"github.com/dmitrijs2005/cardkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/cardkeeper/internal/client/signing"
	"github.com/dmitrijs2005/cardkeeper/internal/common"
	"github.com/dmitrijs2005/cardkeeper/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	User       *client.UserProfile
	ResolveErr error
	LoginErr   error
	Cards      []client.Card
	ListErr    error
	Txs        []client.Transaction
	Invoices   []client.Invoice
	Bal        *client.Balance
	RenewalRes *client.RenewalInfo
	Unread     int
	Outcome    signing.Outcome
	MutateErr  error
	PingErr    error

	LastToken   string
	LastCreds   client.Credentials
	LastFrozen  string
	LastDeleted string
	ListCalls   int
}

func (f *fakeClient) ResolveSession(_ context.Context, token string) (*client.UserProfile, error) {
	f.LastToken = token
	return f.User, f.ResolveErr
}

func (f *fakeClient) Login(_ context.Context, creds client.Credentials) (*client.LoginResult, error) {
	f.LastCreds = creds
	if f.LoginErr != nil {
		return nil, f.LoginErr
	}
	return &client.LoginResult{Token: "tok", SigningSecret: "sek", User: *f.User}, nil
}

func (f *fakeClient) Logout(context.Context) error { return nil }
func (f *fakeClient) Ping(context.Context) error   { return f.PingErr }

func (f *fakeClient) ListCards(context.Context, int, int) (*client.ListResponse[client.Card], error) {
	f.ListCalls++
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	return &client.ListResponse[client.Card]{Items: f.Cards}, nil
}

func (f *fakeClient) ListTransactions(context.Context, int, int) (*client.ListResponse[client.Transaction], error) {
	return &client.ListResponse[client.Transaction]{Items: f.Txs}, nil
}

func (f *fakeClient) ListInvoices(context.Context, int, int) (*client.ListResponse[client.Invoice], error) {
	return &client.ListResponse[client.Invoice]{Items: f.Invoices}, nil
}

func (f *fakeClient) Balance(context.Context) (*client.Balance, error) { return f.Bal, nil }

func (f *fakeClient) Renewal(context.Context) (*client.RenewalInfo, error) { return f.RenewalRes, nil }

func (f *fakeClient) UnreadCount(context.Context) (int, error) { return f.Unread, nil }

func (f *fakeClient) FreezeCard(_ context.Context, id string) (signing.Outcome, error) {
	f.LastFrozen = id
	return f.Outcome, f.MutateErr
}

func (f *fakeClient) DeleteCard(_ context.Context, id string) (signing.Outcome, error) {
	f.LastDeleted = id
	return f.Outcome, f.MutateErr
}

func newTestApp(t *testing.T, api *fakeClient, input string) (*App, *bytes.Buffer, metadata.Repository) {
	t.Helper()
	db, err := client.InitDatabase(context.Background(), ":memory:")
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.PageSize = 2

	repo := metadata.NewSQLiteStore(db)
	out := &bytes.Buffer{}
	a := newApp(cfg, api, repo, logging.Nop(), strings.NewReader(input), out)
	a.db = db
	t.Cleanup(a.Close)

	origTerm := isTerminal
	isTerminal = func(int) bool { return false }
	t.Cleanup(func() { isTerminal = origTerm })

	return a, out, repo
}

func sampleCards() []client.Card {
	return []client.Card{
		{ID: "c1", Label: "Ads", Last4: "4242", Status: "active", Balance: 1520.75, Currency: "USD"},
		{ID: "c2", Label: "Hosting", Last4: "1111", Status: "active", Balance: 10, Currency: "USD"},
		{ID: "c3", Label: "Travel", Last4: "9999", Status: "frozen", Balance: 0, Currency: "EUR"},
	}
}

func signedIn(t *testing.T, api *fakeClient) (*App, *bytes.Buffer) {
	t.Helper()
	a, out, _ := newTestApp(t, api, "ann@example.com\npw\n")
	require.NoError(t, a.Login(context.Background()))
	out.Reset()
	return a, out
}

func TestProtectedCommandRedirectsWhenSignedOut(t *testing.T) {
	api := &fakeClient{Cards: sampleCards()}
	a, out, _ := newTestApp(t, api, "")

	require.NoError(t, a.Cards(context.Background()))
	assert.Contains(t, out.String(), "Please sign in first")
	assert.Zero(t, api.ListCalls)
	assert.False(t, a.isLoggedIn())
}

func TestLoginStoresCredentialAndRedirectsSecondLogin(t *testing.T) {
	api := &fakeClient{User: &client.UserProfile{ID: "u1", Email: "ann@example.com"}}
	a, out, repo := newTestApp(t, api, " ann@example.com \npw\n")
	ctx := context.Background()

	require.NoError(t, a.Login(ctx))
	assert.Contains(t, out.String(), "Signed in as ann@example.com.")
	assert.Equal(t, "ann@example.com", api.LastCreds.Email)
	assert.Equal(t, "pw", api.LastCreds.Password)
	assert.True(t, a.isLoggedIn())

	tok, err := repo.Get(ctx, common.AuthTokenKey)
	require.NoError(t, err)
	assert.Equal(t, []byte("tok"), tok)

	out.Reset()
	require.NoError(t, a.Login(ctx))
	assert.Contains(t, out.String(), "Already signed in as ann@example.com.")
}

func TestLoginRejected(t *testing.T) {
	api := &fakeClient{LoginErr: &apierr.ServerError{StatusCode: http.StatusUnauthorized, Message: "Invalid email or password"}}
	a, out, _ := newTestApp(t, api, "ann@example.com\nbad\n")

	require.Error(t, a.Login(context.Background()))
	assert.Contains(t, out.String(), "Invalid email or password")
	assert.False(t, a.isLoggedIn())
}

func TestCardsListSearchSortPage(t *testing.T) {
	api := &fakeClient{User: &client.UserProfile{ID: "u1", Email: "ann@example.com"}, Cards: sampleCards()}
	a, out := signedIn(t, api)
	ctx := context.Background()

	require.NoError(t, a.Cards(ctx))
	s := out.String()
	assert.Contains(t, s, "LABEL")
	assert.Contains(t, s, "1,520.75 USD")
	assert.Contains(t, s, "Page 1 of 2, 1-2 of 3 cards")
	assert.NotContains(t, s, "Travel")

	out.Reset()
	require.NoError(t, a.Next(ctx))
	assert.Contains(t, out.String(), "Travel")
	assert.Contains(t, out.String(), "Page 2 of 2")

	out.Reset()
	require.NoError(t, a.Search(ctx, "HOST"))
	assert.Contains(t, out.String(), "Hosting")
	assert.Contains(t, out.String(), "Page 1 of 1, 1-1 of 1 cards")

	out.Reset()
	require.NoError(t, a.Search(ctx, "nothing-like-this"))
	assert.Contains(t, out.String(), `No cards match "nothing-like-this".`)

	require.NoError(t, a.Search(ctx, ""))
	out.Reset()
	require.NoError(t, a.Sort(ctx, "balance"))
	lines := strings.Split(out.String(), "\n")
	require.GreaterOrEqual(t, len(lines), 3)
	assert.Contains(t, lines[0], "BALANCE ^")
	assert.Contains(t, lines[1], "Travel")

	out.Reset()
	require.NoError(t, a.Sort(ctx, "password"))
	assert.Contains(t, out.String(), `Unknown field "password".`)

	out.Reset()
	require.NoError(t, a.Page(ctx, 7))
	assert.Contains(t, out.String(), "Page 2 of 2")
	assert.Contains(t, a.getStatus(), "cards")
}

func TestListFailureShowsNormalizedMessage(t *testing.T) {
	api := &fakeClient{User: &client.UserProfile{ID: "u1"}, ListErr: fmt.Errorf("%w: GET /api/cards: dial tcp", client.ErrUnavailable)}
	a, out := signedIn(t, api)

	require.Error(t, a.Cards(context.Background()))
	assert.Contains(t, out.String(), apierr.FallbackMessage)
}

func TestDeleteCardSignedAndClampsPage(t *testing.T) {
	api := &fakeClient{User: &client.UserProfile{ID: "u1"}, Cards: sampleCards(), Outcome: signing.OutcomeSigned}
	a, out := signedIn(t, api)
	ctx := context.Background()

	require.NoError(t, a.Cards(ctx))
	require.NoError(t, a.Page(ctx, 2))
	out.Reset()

	require.NoError(t, a.Delete(ctx, "c3"))
	s := out.String()
	assert.Equal(t, "c3", api.LastDeleted)
	assert.Contains(t, s, "Card c3 deleted.")
	assert.NotContains(t, s, "unsigned")
	assert.Contains(t, s, "Page 1 of 1, 1-2 of 2 cards")
}

func TestFreezeUnsignedWarns(t *testing.T) {
	api := &fakeClient{User: &client.UserProfile{ID: "u1"}, Outcome: signing.OutcomeUnsigned}
	a, out := signedIn(t, api)

	require.NoError(t, a.Freeze(context.Background(), "c1"))
	assert.Equal(t, "c1", api.LastFrozen)
	assert.Contains(t, out.String(), "sent unsigned")
	assert.Contains(t, out.String(), "Card c1 frozen.")
}

func TestFreezeRejected(t *testing.T) {
	api := &fakeClient{
		User:      &client.UserProfile{ID: "u1"},
		Outcome:   signing.OutcomeSigned,
		MutateErr: &apierr.ServerError{StatusCode: http.StatusConflict, Message: "Card is already frozen"},
	}
	a, out := signedIn(t, api)

	require.Error(t, a.Freeze(context.Background(), "c3"))
	assert.Contains(t, out.String(), "Card is already frozen")
}

func TestListCommandsWithoutView(t *testing.T) {
	api := &fakeClient{User: &client.UserProfile{ID: "u1"}}
	a, out := signedIn(t, api)

	require.NoError(t, a.Next(context.Background()))
	assert.Contains(t, out.String(), "Open a list first")
}

func TestTransactionsAndInvoices(t *testing.T) {
	api := &fakeClient{
		User: &client.UserProfile{ID: "u1"},
		Txs: []client.Transaction{
			{ID: "t1", Merchant: "Coffee", Amount: 3.5, Currency: "USD", CreatedAt: time.Date(2025, 1, 2, 12, 0, 0, 0, time.UTC)},
		},
		Invoices: []client.Invoice{{ID: "i1", Number: "INV-001", Amount: 99, Currency: "USD"}},
	}
	a, out := signedIn(t, api)
	ctx := context.Background()

	require.NoError(t, a.Transactions(ctx))
	assert.Contains(t, out.String(), "Coffee")
	assert.Contains(t, out.String(), "3.50 USD")

	out.Reset()
	require.NoError(t, a.Invoices(ctx))
	assert.Contains(t, out.String(), "INV-001")
	assert.Contains(t, a.getStatus(), "invoices")
}

func TestBalance(t *testing.T) {
	api := &fakeClient{User: &client.UserProfile{ID: "u1"}, Bal: &client.Balance{Available: 1520.75, Currency: "USD"}}
	a, out := signedIn(t, api)

	require.NoError(t, a.Balance(context.Background()))
	assert.Contains(t, out.String(), "Available balance: 1,520.75 USD")
}

func TestRenewalAndDismiss(t *testing.T) {
	now := time.Date(2025, 1, 26, 9, 0, 0, 0, time.Local)
	api := &fakeClient{
		User:       &client.UserProfile{ID: "u1"},
		RenewalRes: &client.RenewalInfo{NextRenewalDate: time.Date(2025, 2, 1, 0, 0, 0, 0, time.Local), SufficientBalance: false},
	}
	a, out, repo := newTestApp(t, api, "ann@example.com\npw\n")
	a.renewal = renewal.NewWidget(api, renewal.NewDismissals(repo, logging.Nop()), logging.Nop(), func() time.Time { return now })
	ctx := context.Background()
	require.NoError(t, a.Login(ctx))
	out.Reset()

	require.NoError(t, a.Renewal(ctx))
	assert.Contains(t, out.String(), "too low for the renewal on February 1")

	out.Reset()
	require.NoError(t, a.Dismiss(ctx))
	assert.Contains(t, out.String(), "Renewal notice hidden until February 25.")

	out.Reset()
	require.NoError(t, a.Renewal(ctx))
	assert.Contains(t, out.String(), "No renewal notice.")
}

func TestLogoutUnmountsViewAndSignsOut(t *testing.T) {
	api := &fakeClient{User: &client.UserProfile{ID: "u1", Email: "ann@example.com"}, Cards: sampleCards()}
	a, out := signedIn(t, api)
	ctx := context.Background()

	require.NoError(t, a.Cards(ctx))
	require.NotNil(t, a.currentView())

	out.Reset()
	require.NoError(t, a.Logout(ctx))
	assert.Contains(t, out.String(), "Signed out.")
	assert.Nil(t, a.currentView())
	assert.Equal(t, "(signed out)", a.getStatus())

	out.Reset()
	require.NoError(t, a.Cards(ctx))
	assert.Contains(t, out.String(), "Please sign in first")
}

func TestRetryAfterTransportFailure(t *testing.T) {
	api := &fakeClient{User: &client.UserProfile{ID: "u1", Email: "ann@example.com"}, Cards: sampleCards()}
	a, out, repo := newTestApp(t, api, "")
	ctx := context.Background()
	require.NoError(t, repo.Set(ctx, common.AuthTokenKey, []byte("tok")))

	api.ResolveErr = fmt.Errorf("%w: dial tcp", client.ErrUnavailable)
	require.NoError(t, a.Cards(ctx))
	assert.Contains(t, out.String(), apierr.FallbackMessage+" Type 'retry' to try again.")
	assert.Equal(t, "(offline)", a.getStatus())

	api.ResolveErr = nil
	out.Reset()
	require.NoError(t, a.Retry(ctx))
	assert.Contains(t, out.String(), "Signed in as ann@example.com.")
	assert.Equal(t, "tok", api.LastToken)

	out.Reset()
	require.NoError(t, a.Cards(ctx))
	assert.Contains(t, out.String(), "Ads")
}

func TestGetStatusShowsUnread(t *testing.T) {
	api := &fakeClient{User: &client.UserProfile{ID: "u1", Email: "ann@example.com"}, Unread: 4}
	a, _ := signedIn(t, api)

	a.unread.Poll(context.Background())
	assert.Equal(t, "(ann@example.com 4 unread)", a.getStatus())
}

func TestDismissRefusedBeforeNoticeIsShown(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.Local)
	api := &fakeClient{
		User:       &client.UserProfile{ID: "u1"},
		RenewalRes: &client.RenewalInfo{NextRenewalDate: time.Date(2025, 4, 1, 0, 0, 0, 0, time.Local), SufficientBalance: true},
	}
	a, out, repo := newTestApp(t, api, "ann@example.com\npw\n")
	a.renewal = renewal.NewWidget(api, renewal.NewDismissals(repo, logging.Nop()), logging.Nop(), func() time.Time { return now })
	ctx := context.Background()
	require.NoError(t, a.Login(ctx))
	out.Reset()

	require.Error(t, a.Dismiss(ctx))
	assert.Contains(t, out.String(), renewal.NothingToDismiss)

	raw, err := repo.Get(ctx, common.RenewalNoticeDismissedUntil)
	require.NoError(t, err)
	assert.Nil(t, raw)
}

func TestFreezeKeepsListState(t *testing.T) {
	api := &fakeClient{User: &client.UserProfile{ID: "u1"}, Cards: sampleCards(), Outcome: signing.OutcomeSigned}
	a, out := signedIn(t, api)
	ctx := context.Background()

	require.NoError(t, a.Cards(ctx))
	require.NoError(t, a.Sort(ctx, "balance"))
	require.NoError(t, a.Sort(ctx, "balance"))
	require.NoError(t, a.Page(ctx, 2))
	view := a.currentView()

	api.Cards[1].Status = "frozen"
	out.Reset()
	require.NoError(t, a.Freeze(ctx, "c2"))

	s := out.String()
	assert.Contains(t, s, "Card c2 frozen.")
	assert.Contains(t, s, "BALANCE v")
	assert.Contains(t, s, "Page 2 of 2, 3-3 of 3 cards")
	assert.Contains(t, s, "Travel")
	assert.Same(t, view, a.currentView())
	assert.Equal(t, 2, api.ListCalls)
}

func TestPingWorksSignedOut(t *testing.T) {
	api := &fakeClient{}
	a, out, _ := newTestApp(t, api, "")
	ctx := context.Background()

	require.NoError(t, a.Ping(ctx))
	assert.Contains(t, out.String(), "API is reachable.")

	api.PingErr = fmt.Errorf("%w: GET /api/health: dial tcp", client.ErrUnavailable)
	out.Reset()
	require.Error(t, a.Ping(ctx))
	assert.Contains(t, out.String(), apierr.FallbackMessage)
}

func TestNewAPISelectsTransport(t *testing.T) {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	engine := signing.NewEngine(signing.StaticSecret(""), logging.Nop())
	token := func() string { return "" }

	api, err := newAPI(cfg, engine, token)
	require.NoError(t, err)
	assert.IsType(t, &client.HTTPClient{}, api)

	cfg.GRPCAddress = "127.0.0.1:9090"
	api, err = newAPI(cfg, engine, token)
	require.NoError(t, err)
	g, ok := api.(*client.GRPCClient)
	require.True(t, ok)
	assert.NoError(t, g.Close())
}
