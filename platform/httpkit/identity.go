package httpkit

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ActorKind distinguishes the two caller populations of the API.
type ActorKind string

const (
	// ActorAdmin is a back-office admin user.
	ActorAdmin ActorKind = "admin"
	// ActorProvider is a service provider (tenant) user.
	ActorProvider ActorKind = "provider"
)

// ParseActorKind validates a role claim value.
func ParseActorKind(value string) (ActorKind, error) {
	switch ActorKind(value) {
	case ActorAdmin, ActorProvider:
		return ActorKind(value), nil
	default:
		return "", errors.New("unknown role")
	}
}

// Actor is the authenticated caller: a tagged union of admin and provider
// identities. It travels on the gin context and is recorded verbatim in
// audit trails.
type Actor struct {
	Kind ActorKind
	ID   uuid.UUID
	Name string
}

// ActorFromContext extracts the authenticated actor set by AuthRequired.
func ActorFromContext(c *gin.Context) (Actor, bool) {
	value, ok := c.Get(ContextActorKey)
	if !ok {
		return Actor{}, false
	}
	actor, ok := value.(Actor)
	return actor, ok
}
