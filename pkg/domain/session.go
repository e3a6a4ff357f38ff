package domain

import "github.com/google/uuid"

// User is the identity half of a session: the display name returned by the
// auth service plus the email the user signed in with.
type User struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Session is an authenticated client session. The ID is minted locally when
// the session is created; the Token is the opaque bearer credential issued by
// the auth service. The token is persisted in its own file, never inside the
// serialized identity, so it is excluded from JSON.
type Session struct {
	ID    uuid.UUID `json:"id"`
	User  User      `json:"user"`
	Token string    `json:"-"`
}
