// Package cli provides the interactive cardkeeper command-line client.
//
// It wires configuration, the local store, the API client and a REPL. The
// REPL has two command groups: the auth-only group (login) and the
// protected group (cards, transactions, invoices, balance, renewal and
// card mutations). Every command of a group enters through the shared
// session gate with the group's rule, so the session is resolved once per
// process and the redirect policy lives in one place.
//
// Lists are fetched once and then searched, sorted and paged locally.
// Freezing or deleting a card is a signed request; when no signing secret
// is available the user is warned that it went out unsigned.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
