// Package client contains the client-side building blocks for talking to
// the cardkeeper account API.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic API contract (see the Client interface): session
//     resolution, login/logout, list resources (cards, transactions,
//     invoices), balance, renewal notice data, signed card mutations and the
//     unread notification counter.
//  2. A concrete HTTP/JSON implementation (see HTTPClient) that injects the
//     bearer credential and a request id, signs sensitive mutations through
//     a signing.Engine, and turns error responses into *apierr.ServerError.
//  3. A gRPC implementation (see GRPCClient) carrying the same bodies as
//     google.protobuf.Struct messages. Its dial options install an
//     interceptor adding the bearer credential and request id, and the
//     signing.Engine interceptor for SignedMethods.
//  4. Local persistence bootstrap (InitDatabase, RunMigrations) wiring an
//     SQLite database and applying the embedded goose migrations.
//
// # Error Handling
//
// Transport failures wrap ErrUnavailable; rejections are *apierr.ServerError
// over HTTP and gRPC status errors over gRPC.
// Callers turn either into user-facing text with apierr.Normalize.
//
// All operations accept context.Context and honor cancellation/timeouts.
package client
