package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/cardkeeper/internal/client/apierr"
	"github.com/dmitrijs2005/cardkeeper/internal/client/client"
	"github.com/dmitrijs2005/cardkeeper/internal/common"
	"github.com/dmitrijs2005/cardkeeper/internal/logging"
	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

const checkKey = "check"

// API is the part of the remote API the gate talks to.
type API interface {
	ResolveSession(ctx context.Context, token string) (*client.UserProfile, error)
	Login(ctx context.Context, creds client.Credentials) (*client.LoginResult, error)
	Logout(ctx context.Context) error
}

// Credentials persists the bearer credential and signing secret.
type Credentials interface {
	Token(ctx context.Context) (string, error)
	SigningSecret(ctx context.Context) (string, error)
	Save(ctx context.Context, token, secret string) error
	Clear(ctx context.Context) error
}

// Gate resolves and gates the session for the whole process.
type Gate struct {
	api    API
	creds  Credentials
	log    logging.Logger
	now    func() time.Time
	tracer trace.Tracer

	group    singleflight.Group
	inFlight atomic.Int32

	mu     sync.RWMutex
	state  Session
	gen    uint64
	token  string
	secret string
	subs   map[int]func(Session)
	nextID int
}

type Option func(*Gate)

// WithClock overrides the time source used for token expiry.
func WithClock(now func() time.Time) Option {
	return func(g *Gate) { g.now = now }
}

func NewGate(api API, creds Credentials, log logging.Logger, opts ...Option) *Gate {
	g := &Gate{
		api:    api,
		creds:  creds,
		log:    log.With("component", "session"),
		now:    time.Now,
		tracer: otel.Tracer("github.com/dmitrijs2005/cardkeeper/internal/client/session"),
		subs:   make(map[int]func(Session)),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Snapshot returns a copy of the current session.
func (g *Gate) Snapshot() Session {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state.clone()
}

// IsLoading is true while a check, sign-in or sign-out is in flight.
func (g *Gate) IsLoading() bool {
	return g.inFlight.Load() > 0
}

// Token is the bearer credential of the resolved session, or "".
func (g *Gate) Token() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.token
}

// SigningSecret is the signing secret of the resolved session, or "".
func (g *Gate) SigningSecret() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.secret
}

// Subscribe registers fn for state changes and returns its cancel func.
// fn runs on the goroutine that changed the state.
func (g *Gate) Subscribe(fn func(Session)) func() {
	g.mu.Lock()
	id := g.nextID
	g.nextID++
	g.subs[id] = fn
	g.mu.Unlock()

	return func() {
		g.mu.Lock()
		delete(g.subs, id)
		g.mu.Unlock()
	}
}

// Guard is the single entry check of every command group: it resolves the
// session when needed and applies rule.
func (g *Gate) Guard(ctx context.Context, rule Rule) (Decision, error) {
	s := g.Snapshot()
	var err error
	if !s.Resolved() {
		s, err = g.CheckAuth(ctx)
	}
	return Decide(s, rule), err
}

// CheckAuth resolves the session. Concurrent callers share one resolution.
// The returned error is the cause of a StatusError session.
func (g *Gate) CheckAuth(ctx context.Context) (Session, error) {
	v, err, shared := g.group.Do(checkKey, func() (any, error) {
		return g.check(context.WithoutCancel(ctx))
	})
	if shared {
		g.log.Debug(ctx, "joined in-flight session check")
	}
	s, _ := v.(Session)
	return s.clone(), err
}

func (g *Gate) check(ctx context.Context) (Session, error) {
	ctx, span := g.tracer.Start(ctx, "session.check")
	defer span.End()

	g.inFlight.Add(1)
	defer g.inFlight.Add(-1)

	gen := g.begin()

	token, err := g.creds.Token(ctx)
	switch {
	case errors.Is(err, common.ErrInvalidToken):
		g.log.Warn(ctx, "stored credential unreadable, discarding", "error", err)
		return g.signedOut(ctx, gen), nil
	case err != nil:
		return g.failed(ctx, gen, err), err
	case token == "":
		return g.settle(gen, Session{Status: StatusUnauthenticated}, "", ""), nil
	}

	if g.expired(token) {
		g.log.Info(ctx, "stored credential expired")
		return g.signedOut(ctx, gen), nil
	}

	user, err := g.api.ResolveSession(ctx, token)
	if err != nil {
		if apierr.IsUnauthorized(err) {
			g.log.Info(ctx, "credential rejected by server")
			return g.signedOut(ctx, gen), nil
		}
		return g.failed(ctx, gen, err), err
	}
	if user == nil {
		err = errors.New("session response without user")
		return g.failed(ctx, gen, err), err
	}

	secret, err := g.creds.SigningSecret(ctx)
	if err != nil {
		g.log.Warn(ctx, "signing secret unavailable", "error", err)
		secret = ""
	}

	span.SetAttributes(attribute.String("session.status", StatusAuthenticated.String()))
	return g.settle(gen, Session{User: user, Status: StatusAuthenticated}, token, secret), nil
}

// Login signs in and stores the issued credential.
func (g *Gate) Login(ctx context.Context, creds client.Credentials) (Session, error) {
	creds.Email = strings.TrimSpace(creds.Email)
	if creds.Email == "" {
		return g.Snapshot(), apierr.Validation("email", "Email is required.")
	}
	if creds.Password == "" {
		return g.Snapshot(), apierr.Validation("password", "Password is required.")
	}

	g.inFlight.Add(1)
	defer g.inFlight.Add(-1)

	res, err := g.api.Login(ctx, creds)
	if err != nil {
		return g.Snapshot(), err
	}
	if err := g.creds.Save(ctx, res.Token, res.SigningSecret); err != nil {
		return g.Snapshot(), err
	}

	g.mu.Lock()
	g.gen++
	gen := g.gen
	g.mu.Unlock()

	user := res.User
	g.log.Info(ctx, "signed in", "user", user.ID)
	return g.settle(gen, Session{User: &user, Status: StatusAuthenticated}, res.Token, res.SigningSecret), nil
}

// Logout signs out. The remote call is best effort; local credentials are
// always removed and the session returns to StatusUnknown.
func (g *Gate) Logout(ctx context.Context) error {
	g.inFlight.Add(1)
	defer g.inFlight.Add(-1)

	if g.Token() != "" {
		apierr.Report(ctx, g.log, apierr.Background(g.api.Logout(ctx)))
	}

	err := g.creds.Clear(ctx)

	g.mu.Lock()
	g.gen++
	g.token, g.secret = "", ""
	g.state = Session{Status: StatusUnknown}
	subs := g.subscribers()
	g.mu.Unlock()

	notify(subs, Session{Status: StatusUnknown})
	g.log.Info(ctx, "signed out")
	return err
}

// begin marks a new check and returns its generation.
func (g *Gate) begin() uint64 {
	g.mu.Lock()
	g.gen++
	gen := g.gen
	g.state = Session{Status: StatusChecking}
	subs := g.subscribers()
	g.mu.Unlock()

	notify(subs, Session{Status: StatusChecking})
	return gen
}

// settle writes the outcome of operation gen unless a later transition
// superseded it, and returns the state in effect.
func (g *Gate) settle(gen uint64, s Session, token, secret string) Session {
	g.mu.Lock()
	if gen != g.gen {
		cur := g.state.clone()
		g.mu.Unlock()
		return cur
	}
	g.state = s
	g.token, g.secret = token, secret
	subs := g.subscribers()
	g.mu.Unlock()

	notify(subs, s.clone())
	return s.clone()
}

func (g *Gate) signedOut(ctx context.Context, gen uint64) Session {
	if err := g.creds.Clear(ctx); err != nil {
		g.log.Warn(ctx, "failed to delete stored credential", "error", err)
	}
	return g.settle(gen, Session{Status: StatusUnauthenticated}, "", "")
}

func (g *Gate) failed(ctx context.Context, gen uint64, err error) Session {
	g.log.Warn(ctx, "session check failed", "error", err)
	return g.settle(gen, Session{Status: StatusError, LastError: apierr.Normalize(err)}, "", "")
}

// expired reports whether token is a JWT whose exp claim has passed. The
// signature is not verified; opaque tokens are never considered expired.
func (g *Gate) expired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !g.now().Before(exp.Time)
}

// subscribers must be called with g.mu held.
func (g *Gate) subscribers() []func(Session) {
	out := make([]func(Session), 0, len(g.subs))
	for _, fn := range g.subs {
		out = append(out, fn)
	}
	return out
}

func notify(subs []func(Session), s Session) {
	for _, fn := range subs {
		fn(s.clone())
	}
}
