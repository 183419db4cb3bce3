package signing

import (
	"context"
	"fmt"
	"net/http"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

type outcomeKey struct{}

// WithOutcome returns a context under which UnaryClientInterceptor stores
// the outcome of a signed call into o.
func WithOutcome(ctx context.Context, o *Outcome) context.Context {
	return context.WithValue(ctx, outcomeKey{}, o)
}

// UnaryClientInterceptor signs the listed full gRPC method names
// ("/pkg.Service/Method"). The body is the protojson form of the request
// message; the values go to outgoing metadata under the same names as the
// HTTP headers. Other methods pass through unchanged.
func (e *Engine) UnaryClientInterceptor(methods ...string) grpc.UnaryClientInterceptor {
	sensitive := make(map[string]struct{}, len(methods))
	for _, m := range methods {
		sensitive[m] = struct{}{}
	}

	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		if _, ok := sensitive[method]; !ok {
			return invoker(ctx, method, req, reply, cc, opts...)
		}

		var body any
		if msg, ok := req.(proto.Message); ok && msg != nil {
			b, err := protojson.Marshal(msg)
			if err != nil {
				return fmt.Errorf("encode %s request: %w", method, err)
			}
			body = b
		}

		env, outcome, err := e.Sign(ctx, http.MethodPost, method, body)
		if err != nil {
			return err
		}
		if p, ok := ctx.Value(outcomeKey{}).(*Outcome); ok && p != nil {
			*p = outcome
		}
		if outcome == OutcomeSigned {
			kv := make([]string, 0, 6)
			for k, v := range env.Headers() {
				kv = append(kv, k, v)
			}
			ctx = metadata.AppendToOutgoingContext(ctx, kv...)
		}

		return invoker(ctx, method, req, reply, cc, opts...)
	}
}
