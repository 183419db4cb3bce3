// Package common contains shared constants and sentinel errors used across
// cardkeeper components.
package common

// Header and metadata names carried on outbound API requests.
const (
	AuthorizationHeaderName = "Authorization"
	RequestIDHeaderName     = "X-Request-Id"

	SignatureHeaderName = "signature"
	TimestampHeaderName = "timestamp"
	NonceHeaderName     = "nonce"
)

// Keys of the durable local key/value store.
const (
	AuthTokenKey                = "auth_token"
	SigningSecretKey            = "signing_secret"
	CredentialSaltKey           = "credential_salt"
	RenewalNoticeDismissedUntil = "renewal_notice_dismissed_until"
)
