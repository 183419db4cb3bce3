// Package apierr turns every failure the client can observe into one
// taxonomy and one user-facing message.
//
// # Taxonomy
//
//   - KindTransport: no usable response reached the client (network error,
//     timeout, undecodable body).
//   - KindServerRejection: the API answered with an error envelope or a
//     gRPC status carrying a message.
//   - KindValidation: client-side input checks (see Validation).
//   - KindSilentBackground: failures of best-effort background calls (see
//     Background); they are logged and never shown.
//
// # Precedence
//
// Normalize returns the server-declared message when there is one and the
// fixed FallbackMessage otherwise. It never panics. Stores and commands
// must not extract messages from errors themselves; they call Normalize or
// Report.
package apierr
