package client

import "errors"

var (
	ErrUnavailable = errors.New("server unavailable")
	ErrNoToken     = errors.New("no bearer credential")
)
