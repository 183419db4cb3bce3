// Package signing signs sensitive mutating requests so the API can check
// their authenticity and reject replays.
//
// Every call produces a fresh timestamp (epoch seconds) and a fresh 16-byte
// random nonce. The canonical payload
//
//	{"method":"POST","url":"/api/cards/c1/freeze","body":{},"timestamp":1700000000,"nonce":"…"}
//
// is serialized with sorted body keys and no HTML escaping, then
// HMAC-SHA256'd with the session's signing secret. Signature, timestamp and
// nonce travel as the signature, timestamp and nonce headers (or gRPC
// metadata).
//
// Without a secret the engine does not invent a signature: the request goes
// out unsigned and the outcome says so.
package signing

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/cardkeeper/internal/common"
	"github.com/dmitrijs2005/cardkeeper/internal/logging"
)

// NonceSize is the number of random bytes in a nonce (32 hex characters).
const NonceSize = 16

// Outcome tells the caller whether a request left signed.
type Outcome int

const (
	OutcomeUnsigned Outcome = iota
	OutcomeSigned
)

func (o Outcome) String() string {
	if o == OutcomeSigned {
		return "signed"
	}
	return "unsigned"
}

// Envelope is one signed request. It is built per call and never reused.
type Envelope struct {
	Method    string
	Target    string
	Body      any
	Timestamp int64
	Nonce     string
	Signature string
}

// SecretFunc returns the current signing secret; empty means none.
type SecretFunc func() string

// Engine signs requests with the secret returned by its SecretFunc.
type Engine struct {
	secret SecretFunc
	log    logging.Logger
	now    func() time.Time
	nonce  func() (string, error)
}

type Option func(*Engine)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithNonceSource overrides nonce generation.
func WithNonceSource(fn func() (string, error)) Option {
	return func(e *Engine) { e.nonce = fn }
}

func NewEngine(secret SecretFunc, log logging.Logger, opts ...Option) *Engine {
	e := &Engine{
		secret: secret,
		log:    log,
		now:    time.Now,
		nonce:  func() (string, error) { return common.MakeRandHexString(NonceSize) },
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.secret == nil {
		e.secret = func() string { return "" }
	}
	return e
}

// StaticSecret is a SecretFunc for a fixed secret.
func StaticSecret(s string) SecretFunc {
	return func() string { return s }
}

// Sign builds a signed envelope for method, target and body. A nil body is
// signed as {}. With no secret configured it returns OutcomeUnsigned and an
// envelope without timestamp, nonce or signature.
func (e *Engine) Sign(ctx context.Context, method, target string, body any) (Envelope, Outcome, error) {
	env := Envelope{Method: strings.ToUpper(method), Target: target, Body: body}

	secret := e.secret()
	if secret == "" {
		e.log.Warn(ctx, "sensitive request sent unsigned", "method", env.Method, "target", target, "reason", common.ErrNoSigningSecret.Error())
		return env, OutcomeUnsigned, nil
	}

	nonce, err := e.nonce()
	if err != nil {
		return Envelope{}, OutcomeUnsigned, fmt.Errorf("generate nonce: %w", err)
	}
	env.Nonce = nonce
	env.Timestamp = e.now().Unix()

	sig, err := computeSignature(secret, env)
	if err != nil {
		return Envelope{}, OutcomeUnsigned, err
	}
	env.Signature = sig

	return env, OutcomeSigned, nil
}

// Headers returns the header values to attach for env.
func (env Envelope) Headers() map[string]string {
	return map[string]string{
		common.SignatureHeaderName: env.Signature,
		common.TimestampHeaderName: strconv.FormatInt(env.Timestamp, 10),
		common.NonceHeaderName:     env.Nonce,
	}
}

// Verify recomputes the signature of env with secret and compares it in
// constant time. Freshness of the timestamp and uniqueness of the nonce are
// the verifier's business.
func Verify(secret string, env Envelope) bool {
	if secret == "" || env.Signature == "" {
		return false
	}
	expected, err := computeSignature(secret, env)
	if err != nil {
		return false
	}
	a, err1 := hex.DecodeString(expected)
	b, err2 := hex.DecodeString(env.Signature)
	if err1 != nil || err2 != nil {
		return false
	}
	return hmac.Equal(a, b)
}

type canonicalPayload struct {
	Method    string          `json:"method"`
	URL       string          `json:"url"`
	Body      json.RawMessage `json:"body"`
	Timestamp int64           `json:"timestamp"`
	Nonce     string          `json:"nonce"`
}

// CanonicalPayload returns the exact bytes that are signed for env.
func CanonicalPayload(env Envelope) ([]byte, error) {
	body, err := canonicalBody(env.Body)
	if err != nil {
		return nil, err
	}
	return marshalNoEscape(canonicalPayload{
		Method:    strings.ToUpper(env.Method),
		URL:       env.Target,
		Body:      body,
		Timestamp: env.Timestamp,
		Nonce:     env.Nonce,
	})
}

func computeSignature(secret string, env Envelope) (string, error) {
	payload, err := CanonicalPayload(env)
	if err != nil {
		return "", fmt.Errorf("canonical payload: %w", err)
	}
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// canonicalBody re-encodes body through a generic value so that map keys
// come out sorted whatever Go type the caller used. Raw JSON bytes are
// decoded first; bytes that are not JSON are signed as a JSON string.
func canonicalBody(body any) (json.RawMessage, error) {
	var raw []byte
	switch b := body.(type) {
	case nil:
		return json.RawMessage(`{}`), nil
	case json.RawMessage:
		raw = b
	case []byte:
		raw = b
	default:
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode body: %w", err)
		}
		raw = encoded
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		return json.RawMessage(`{}`), nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return marshalNoEscape(string(raw))
	}
	if generic == nil {
		return json.RawMessage(`{}`), nil
	}
	return marshalNoEscape(generic)
}

func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
