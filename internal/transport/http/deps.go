package http

import (
	"github.com/go-auth-stepup/internal/infrastructure/dynamo"
	jwtinfra "github.com/go-auth-stepup/internal/infrastructure/jwt"
	"github.com/go-auth-stepup/internal/infrastructure/sns"
	"github.com/go-auth-stepup/internal/infrastructure/verify"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo      *dynamo.UserRepo
	HandleRepo    *dynamo.HandleRepo
	Gateway       verify.Gateway
	AlertSender   sns.AlertSender
	TokenProvider *jwtinfra.Provider
}
