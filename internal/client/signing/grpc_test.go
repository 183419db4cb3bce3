package signing

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/cardkeeper/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"
)

const freezeMethod = "/cardkeeper.v1.CardService/FreezeCard"

func captureInvoker(got *metadata.MD) grpc.UnaryInvoker {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		md, _ := metadata.FromOutgoingContext(ctx)
		*got = md
		return nil
	}
}

func TestUnaryClientInterceptor_SignsSensitiveMethods(t *testing.T) {
	e := NewEngine(StaticSecret("k"), logging.Nop(), WithClock(fixedClock(1700000000)), WithNonceSource(fixedNonce("feed")))
	ic := e.UnaryClientInterceptor(freezeMethod)

	req, err := structpb.NewStruct(map[string]any{"card_id": "c1", "reason": "lost"})
	require.NoError(t, err)

	var md metadata.MD
	require.NoError(t, ic(context.Background(), freezeMethod, req, nil, nil, captureInvoker(&md)))

	require.Equal(t, []string{"1700000000"}, md.Get("timestamp"))
	require.Equal(t, []string{"feed"}, md.Get("nonce"))
	require.Len(t, md.Get("signature"), 1)

	env := Envelope{
		Method:    "POST",
		Target:    freezeMethod,
		Body:      map[string]any{"card_id": "c1", "reason": "lost"},
		Timestamp: 1700000000,
		Nonce:     "feed",
		Signature: md.Get("signature")[0],
	}
	assert.True(t, Verify("k", env))
}

func TestUnaryClientInterceptor_PassesThroughOtherMethods(t *testing.T) {
	e := NewEngine(StaticSecret("k"), logging.Nop())
	ic := e.UnaryClientInterceptor(freezeMethod)

	var md metadata.MD
	require.NoError(t, ic(context.Background(), "/cardkeeper.v1.CardService/ListCards", &structpb.Struct{}, nil, nil, captureInvoker(&md)))

	assert.Empty(t, md.Get("signature"))
}

func TestUnaryClientInterceptor_UnsignedWithoutSecret(t *testing.T) {
	e := NewEngine(StaticSecret(""), logging.Nop())
	ic := e.UnaryClientInterceptor(freezeMethod)

	var md metadata.MD
	require.NoError(t, ic(context.Background(), freezeMethod, &structpb.Struct{}, nil, nil, captureInvoker(&md)))

	assert.Empty(t, md.Get("signature"))
}

func TestUnaryClientInterceptor_ReportsOutcome(t *testing.T) {
	ic := NewEngine(StaticSecret("k"), logging.Nop()).UnaryClientInterceptor(freezeMethod)

	outcome := OutcomeUnsigned
	ctx := WithOutcome(context.Background(), &outcome)
	var md metadata.MD
	require.NoError(t, ic(ctx, freezeMethod, &structpb.Struct{}, nil, nil, captureInvoker(&md)))
	assert.Equal(t, OutcomeSigned, outcome)

	ic = NewEngine(StaticSecret(""), logging.Nop()).UnaryClientInterceptor(freezeMethod)
	outcome = OutcomeSigned
	require.NoError(t, ic(ctx, freezeMethod, &structpb.Struct{}, nil, nil, captureInvoker(&md)))
	assert.Equal(t, OutcomeUnsigned, outcome)
}
