package auth

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/arzan03/devcamper/internal/models"
)

// Owned is implemented by every resource that has an owning user.
type Owned interface {
	OwnerID() primitive.ObjectID
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID   primitive.ObjectID
	Role models.Role
}

func ActorOf(user *models.User) Actor {
	return Actor{ID: user.ID, Role: user.Role}
}

func (a Actor) IsAdmin() bool { return a.Role == models.RoleAdmin }

// CanMutate reports whether actor may update or delete resource: owners and
// admins may, nobody else.
func CanMutate(actor Actor, resource Owned) bool {
	if actor.IsAdmin() {
		return true
	}
	return !actor.ID.IsZero() && actor.ID == resource.OwnerID()
}
