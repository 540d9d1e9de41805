package models

// Identity is how the access gate classifies a request: anonymous (possibly
// carrying a guest session token), authenticated, or admin.
type Identity struct {
	user    *User
	session string
}

func Anonymous(session string) Identity { return Identity{session: session} }

func Authenticated(u *User) Identity { return Identity{user: u} }

func (i Identity) User() *User { return i.user }

func (i Identity) Session() string { return i.session }

func (i Identity) IsAuthenticated() bool { return i.user != nil }

func (i Identity) IsAdmin() bool { return i.user.IsAdmin() }

// WithSession returns an anonymous identity bound to a session token.
// Authenticated identities are returned unchanged.
func (i Identity) WithSession(session string) Identity {
	if i.user != nil {
		return i
	}
	return Identity{session: session}
}

// Owner maps the identity onto a cart/order owner. ok is false for an
// anonymous caller that has no session token yet.
func (i Identity) Owner() (o Owner, ok bool) {
	if i.user != nil {
		return UserOwner(i.user.ID), true
	}
	if i.session != "" {
		return GuestOwner(i.session), true
	}
	return Owner{}, false
}
