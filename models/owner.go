package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Owner ties a cart or order to exactly one of a user or a guest session.
// Build it with UserOwner or GuestOwner; the zero value owns nothing.
type Owner struct {
	User      *primitive.ObjectID `json:"user,omitempty" bson:"user,omitempty"`
	SessionID string              `json:"sessionId,omitempty" bson:"sessionId,omitempty"`
}

func UserOwner(id primitive.ObjectID) Owner {
	return Owner{User: &id}
}

func GuestOwner(session string) Owner {
	return Owner{SessionID: session}
}

// Valid reports whether exactly one side of the owner is set.
func (o Owner) Valid() bool {
	hasUser := o.User != nil && !o.User.IsZero()
	return hasUser != (o.SessionID != "")
}

func (o Owner) IsUser() bool { return o.User != nil && !o.User.IsZero() }

func (o Owner) IsGuest() bool { return !o.IsUser() && o.SessionID != "" }

func (o Owner) OwnedBy(userID primitive.ObjectID) bool {
	return o.IsUser() && *o.User == userID
}

// Key is a stable string used for lock and cache keys.
func (o Owner) Key() string {
	if o.IsUser() {
		return "user:" + o.User.Hex()
	}
	return "guest:" + o.SessionID
}
