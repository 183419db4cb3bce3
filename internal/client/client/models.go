package client

import "time"

// UserProfile is the identity returned by session resolution.
type UserProfile struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Credentials are the sign-in inputs.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult carries the bearer credential and the per-session signing
// secret issued at sign-in.
type LoginResult struct {
	Token         string      `json:"token"`
	SigningSecret string      `json:"signingSecret"`
	User          UserProfile `json:"user"`
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// ListResponse is the {items[], pagination} envelope of list resources.
type ListResponse[T any] struct {
	Items      []T        `json:"items"`
	Pagination Pagination `json:"pagination"`
}

type Card struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	Brand     string    `json:"brand"`
	Last4     string    `json:"last4"`
	Status    string    `json:"status"`
	Balance   float64   `json:"balance"`
	Currency  string    `json:"currency"`
	CreatedAt time.Time `json:"createdAt"`
}

type Transaction struct {
	ID        string    `json:"id"`
	CardID    string    `json:"cardId"`
	Merchant  string    `json:"merchant"`
	Status    string    `json:"status"`
	Amount    float64   `json:"amount"`
	Currency  string    `json:"currency"`
	CreatedAt time.Time `json:"createdAt"`
}

type Invoice struct {
	ID       string    `json:"id"`
	Number   string    `json:"number"`
	Status   string    `json:"status"`
	Amount   float64   `json:"amount"`
	Currency string    `json:"currency"`
	IssuedAt time.Time `json:"issuedAt"`
}

type Balance struct {
	Available float64 `json:"available"`
	Currency  string  `json:"currency"`
}

// RenewalInfo is the server-side data behind the renewal notice.
type RenewalInfo struct {
	NextRenewalDate   time.Time `json:"nextRenewalDate"`
	SufficientBalance bool      `json:"sufficientBalance"`
}
