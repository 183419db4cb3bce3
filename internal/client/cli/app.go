package cli

import (
	"bufio"
	"context"
	"database/sql"
	"io"
	"os"
	"sync"

	"github.com/dmitrijs2005/cardkeeper/internal/client/client"
	"github.com/dmitrijs2005/cardkeeper/internal/client/config"
	"github.com/dmitrijs2005/cardkeeper/internal/client/renewal"
	"github.com/dmitrijs2005/cardkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/cardkeeper/internal/client/session"
	"github.com/dmitrijs2005/cardkeeper/internal/client/signing"
	"github.com/dmitrijs2005/cardkeeper/internal/client/store"
	"github.com/dmitrijs2005/cardkeeper/internal/logging"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	_ "modernc.org/sqlite"
)

type App struct {
	config  *config.Config
	db      *sql.DB
	api     client.Client
	gate    *session.Gate
	renewal *renewal.Widget
	balance *store.Store[*client.Balance]
	unread  *store.CountPoller
	log     logging.Logger
	printer *message.Printer
	out     io.Writer
	reader  *bufio.Reader

	mu   sync.Mutex
	view listView
}

// NewApp opens the local store and wires the API client, the session gate
// and the signing engine. One gate serves every command group.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	db, err := client.InitDatabase(ctx, c.StorePath)
	if err != nil {
		log.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	var a *App
	engine := signing.NewEngine(func() string {
		if s := a.gate.SigningSecret(); s != "" {
			return s
		}
		return c.SigningSecret
	}, log)

	api, err := newAPI(c, engine, func() string { return a.gate.Token() })
	if err != nil {
		log.Error(ctx, "error creating API client", "error", err)
		_ = db.Close()
		return nil, err
	}

	a = newApp(c, api, metadata.NewSQLiteStore(db), log, os.Stdin, os.Stdout)
	a.db = db
	return a, nil
}

// newAPI picks the transport: gRPC when an address is configured, HTTP
// otherwise. Both sign sensitive mutations with engine.
func newAPI(c *config.Config, engine *signing.Engine, token client.TokenFunc) (client.Client, error) {
	if c.GRPCAddress != "" {
		return client.NewGRPCClient(c.GRPCAddress,
			client.WithGRPCTimeout(c.RequestTimeout),
			client.WithGRPCToken(token),
			client.WithGRPCSigner(engine),
		)
	}
	return client.NewHTTPClient(c.APIBaseURL,
		client.WithTimeout(c.RequestTimeout),
		client.WithToken(token),
		client.WithSigner(engine),
	), nil
}

func newApp(c *config.Config, api client.Client, repo metadata.Repository, log logging.Logger, in io.Reader, out io.Writer) *App {
	creds := session.NewCredentialStore(repo, c.CredentialPassphrase)

	a := &App{
		config:  c,
		api:     api,
		gate:    session.NewGate(api, creds, log),
		renewal: renewal.NewWidget(api, renewal.NewDismissals(repo, log), log, nil),
		log:     log,
		printer: message.NewPrinter(language.English),
		out:     out,
		reader:  bufio.NewReader(in),
	}
	a.balance = store.New[*client.Balance]("balance", a.api.Balance, log)
	a.unread = store.NewCountPoller(a.fetchUnread, c.UnreadPollInterval, log)
	a.unread.OnChange(func(n int) {
		a.log.Info(context.Background(), "unread notifications changed", "count", n)
	})

	// views hold data of the signed-in user only
	a.gate.Subscribe(func(s session.Session) {
		if s.Status != session.StatusAuthenticated && s.Status != session.StatusChecking {
			a.unmountView()
		}
	})
	return a
}

// Run resolves the session, starts the unread watcher and serves the REPL
// until the user exits or input ends.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer a.Close()

	go a.unread.Run(ctx)

	a.Root(ctx)
}

func (a *App) Close() {
	a.unmountView()
	a.balance.Unmount()
	if cl, ok := a.api.(io.Closer); ok {
		if err := cl.Close(); err != nil {
			a.log.Warn(context.Background(), "closing API client", "error", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Warn(context.Background(), "closing store", "error", err)
		}
	}
}

// fetchUnread polls only for a signed-in session.
func (a *App) fetchUnread(ctx context.Context) (int, error) {
	if a.gate.Snapshot().Status != session.StatusAuthenticated {
		return 0, nil
	}
	return a.api.UnreadCount(ctx)
}

func (a *App) mountView(v listView) {
	a.mu.Lock()
	old := a.view
	a.view = v
	a.mu.Unlock()
	if old != nil {
		old.unmount()
	}
}

func (a *App) unmountView() {
	a.mountView(nil)
}

func (a *App) currentView() listView {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.view
}
