package models

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Actor is the authenticated caller of a service operation. It is built from
// the session by the HTTP layer and trusted as given.
type Actor struct {
	ID   primitive.ObjectID
	Role string
}

// IsAdmin reports whether the actor holds an administrative role.
func (a Actor) IsAdmin() bool {
	switch strings.ToLower(a.Role) {
	case RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}
