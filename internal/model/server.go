package model

import (
	"context"
	"net"
)

type SecurityLayer interface {
	Listen(protocol, addr string) (net.Listener, error)
}

type Server interface {
	Start(securityLayer SecurityLayer) error
	Stop(ctx context.Context) error
	Address() string
}

// TokenManager issues and validates service access tokens. Callers of the
// wallet API are other backend services acting on behalf of a user; the
// token carries that user's identifier.
type TokenManager interface {
	GenerateAccessToken(userID string) (string, error)
	ParseAccessToken(tokenString string) (string, error)
}
