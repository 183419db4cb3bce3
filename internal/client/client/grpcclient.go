package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/cardkeeper/internal/client/signing"
	"github.com/dmitrijs2005/cardkeeper/internal/common"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// Full method names of the gRPC account service. Requests and replies are
// google.protobuf.Struct messages shaped like the JSON API bodies.
const (
	grpcService = "/cardkeeper.v1.AccountService/"

	MethodGetSession       = grpcService + "GetSession"
	MethodLogin            = grpcService + "Login"
	MethodLogout           = grpcService + "Logout"
	MethodPing             = grpcService + "Ping"
	MethodListCards        = grpcService + "ListCards"
	MethodListTransactions = grpcService + "ListTransactions"
	MethodListInvoices     = grpcService + "ListInvoices"
	MethodGetBalance       = grpcService + "GetBalance"
	MethodGetRenewal       = grpcService + "GetRenewal"
	MethodGetUnreadCount   = grpcService + "GetUnreadCount"
	MethodFreezeCard       = grpcService + "FreezeCard"
	MethodDeleteCard       = grpcService + "DeleteCard"
)

// SignedMethods are the sensitive mutations covered by the signing interceptor.
var SignedMethods = []string{MethodFreezeCard, MethodDeleteCard}

var (
	authorizationKey = strings.ToLower(common.AuthorizationHeaderName)
	requestIDKey     = strings.ToLower(common.RequestIDHeaderName)
)

// GRPCClient implements Client over gRPC.
type GRPCClient struct {
	target   string
	conn     *grpc.ClientConn
	timeout  time.Duration
	token    TokenFunc
	signer   *signing.Engine
	dialOpts []grpc.DialOption
	tracer   trace.Tracer
}

type GRPCOption func(*GRPCClient)

// WithGRPCTimeout bounds every call; zero disables the bound.
func WithGRPCTimeout(d time.Duration) GRPCOption {
	return func(c *GRPCClient) { c.timeout = d }
}

func WithGRPCToken(fn TokenFunc) GRPCOption {
	return func(c *GRPCClient) { c.token = fn }
}

// WithGRPCSigner installs the signing interceptor for SignedMethods.
func WithGRPCSigner(e *signing.Engine) GRPCOption {
	return func(c *GRPCClient) { c.signer = e }
}

// WithDialOptions appends options to the connection setup.
func WithDialOptions(opts ...grpc.DialOption) GRPCOption {
	return func(c *GRPCClient) { c.dialOpts = append(c.dialOpts, opts...) }
}

func NewGRPCClient(target string, opts ...GRPCOption) (*GRPCClient, error) {
	c := &GRPCClient{
		target:  target,
		timeout: 10 * time.Second,
		token:   func() string { return "" },
		tracer:  otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}

	interceptors := []grpc.UnaryClientInterceptor{c.metadataInterceptor}
	if c.signer != nil {
		interceptors = append(interceptors, c.signer.UnaryClientInterceptor(SignedMethods...))
	}

	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithChainUnaryInterceptor(interceptors...),
	}, c.dialOpts...)

	conn, err := grpc.NewClient(target, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("grpc client %s: %w", target, err)
	}
	c.conn = conn
	return c, nil
}

func (c *GRPCClient) Close() error {
	return c.conn.Close()
}

func withBearer(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	md.Set(authorizationKey, "Bearer "+token)
	return metadata.NewOutgoingContext(ctx, md)
}

// metadataInterceptor adds the request id and, unless the call already
// carries one, the bearer credential.
func (c *GRPCClient) metadataInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if len(md.Get(authorizationKey)) == 0 {
		if token := c.token(); token != "" {
			md.Set(authorizationKey, "Bearer "+token)
		}
	}
	md.Set(requestIDKey, "req_"+uuid.NewString())

	return invoker(metadata.NewOutgoingContext(ctx, md), method, req, reply, cc, opts...)
}

func (c *GRPCClient) ResolveSession(ctx context.Context, token string) (*UserProfile, error) {
	if token == "" {
		return nil, ErrNoToken
	}
	var out struct {
		User UserProfile `json:"user"`
	}
	if err := c.call(withBearer(ctx, token), MethodGetSession, nil, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

func (c *GRPCClient) Login(ctx context.Context, creds Credentials) (*LoginResult, error) {
	var out LoginResult
	if err := c.call(ctx, MethodLogin, creds, &out); err != nil {
		return nil, err
	}
	if out.Token == "" {
		return nil, status.Error(codes.Internal, "Sign-in response did not include a session.")
	}
	return &out, nil
}

func (c *GRPCClient) Logout(ctx context.Context) error {
	return c.call(ctx, MethodLogout, nil, nil)
}

func (c *GRPCClient) Ping(ctx context.Context) error {
	var out struct {
		Status string `json:"status"`
	}
	if err := c.call(ctx, MethodPing, nil, &out); err != nil {
		return err
	}
	if !strings.EqualFold(out.Status, "ok") {
		return ErrUnavailable
	}
	return nil
}

func (c *GRPCClient) ListCards(ctx context.Context, page, limit int) (*ListResponse[Card], error) {
	return listRPC[Card](ctx, c, MethodListCards, page, limit)
}

func (c *GRPCClient) ListTransactions(ctx context.Context, page, limit int) (*ListResponse[Transaction], error) {
	return listRPC[Transaction](ctx, c, MethodListTransactions, page, limit)
}

func (c *GRPCClient) ListInvoices(ctx context.Context, page, limit int) (*ListResponse[Invoice], error) {
	return listRPC[Invoice](ctx, c, MethodListInvoices, page, limit)
}

func (c *GRPCClient) Balance(ctx context.Context) (*Balance, error) {
	var out Balance
	if err := c.call(ctx, MethodGetBalance, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *GRPCClient) Renewal(ctx context.Context) (*RenewalInfo, error) {
	var out RenewalInfo
	if err := c.call(ctx, MethodGetRenewal, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *GRPCClient) UnreadCount(ctx context.Context) (int, error) {
	var out struct {
		Count int `json:"count"`
	}
	if err := c.call(ctx, MethodGetUnreadCount, nil, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

func (c *GRPCClient) FreezeCard(ctx context.Context, id string) (signing.Outcome, error) {
	return c.mutate(ctx, MethodFreezeCard, id)
}

func (c *GRPCClient) DeleteCard(ctx context.Context, id string) (signing.Outcome, error) {
	return c.mutate(ctx, MethodDeleteCard, id)
}

func (c *GRPCClient) mutate(ctx context.Context, method, id string) (signing.Outcome, error) {
	outcome := signing.OutcomeUnsigned
	err := c.call(signing.WithOutcome(ctx, &outcome), method, map[string]any{"id": id}, nil)
	return outcome, err
}

func listRPC[T any](ctx context.Context, c *GRPCClient, method string, page, limit int) (*ListResponse[T], error) {
	req := map[string]any{}
	if page > 0 {
		req["page"] = page
	}
	if limit > 0 {
		req["limit"] = limit
	}

	var out ListResponse[T]
	if err := c.call(ctx, method, req, &out); err != nil {
		return nil, err
	}
	if out.Items == nil {
		out.Items = []T{}
	}
	return &out, nil
}

// call sends in as a Struct and decodes the reply into out (when non-nil).
func (c *GRPCClient) call(ctx context.Context, method string, in, out any) (err error) {
	ctx, span := c.tracer.Start(ctx, "rpc "+method, trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("rpc.method", method)))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
		}
		span.End()
	}()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := toStruct(in)
	if err != nil {
		return fmt.Errorf("encode %s: %w", method, err)
	}

	reply := &structpb.Struct{}
	if err := c.conn.Invoke(ctx, method, req, reply); err != nil {
		return c.mapError(method, err)
	}

	if out == nil {
		return nil
	}
	b, err := protojson.Marshal(reply)
	if err != nil {
		return fmt.Errorf("decode %s: %w", method, err)
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("decode %s: %w", method, err)
	}
	return nil
}

// mapError wraps transport-level codes with ErrUnavailable. Rejections are
// returned as status errors so their message reaches the user.
func (c *GRPCClient) mapError(method string, err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return fmt.Errorf("%w: %s: %w", ErrUnavailable, method, err)
	}
	switch st.Code() {
	case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled:
		return fmt.Errorf("%w: %s: %w", ErrUnavailable, method, err)
	default:
		return err
	}
}

func toStruct(v any) (*structpb.Struct, error) {
	if v == nil {
		return &structpb.Struct{}, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return structpb.NewStruct(m)
}
