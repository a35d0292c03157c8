// internal/app/system/authz/authz.go
package authz

import (
	"net/http"

	"github.com/dalemusser/bloodhub/internal/app/system/auth"
	"github.com/dalemusser/bloodhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserCtx returns the user's role, name, Mongo ObjectID, and a found flag.
// If no user is present in context or the user ID is malformed, it returns
// "visitor", "", NilObjectID, false. This ensures callers can trust that
// ok=true means a valid, authenticated user with a valid ObjectID.
// The role keeps its stored case: hierarchy role labels such as
// "Upazila Coordinator" are compared exactly.
func UserCtx(r *http.Request) (role string, name string, userID primitive.ObjectID, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return "visitor", "", primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		// Malformed user ID in session - fail closed.
		return "visitor", "", primitive.NilObjectID, false
	}
	return user.Role, user.Name, userID, true
}

// Actor returns the caller as seen by the services.
func Actor(r *http.Request) (models.Actor, bool) {
	role, _, id, ok := UserCtx(r)
	if !ok {
		return models.Actor{}, false
	}
	return models.Actor{ID: id, Role: role}, true
}
