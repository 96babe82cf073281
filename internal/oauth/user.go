package oauth

// GuestUserID is used for requests that carry no user identity.
const GuestUserID = "guest"

// UserContext identifies the application user on whose behalf a token is
// requested, stored, or resolved.
type UserContext struct {
	UserID     string
	Properties map[string]string
}

// NewUserContext returns a context for userID.
func NewUserContext(userID string) UserContext {
	return UserContext{UserID: userID}
}

// EffectiveID returns the user id, or GuestUserID when it is empty.
func (u UserContext) EffectiveID() string {
	if u.UserID == "" {
		return GuestUserID
	}
	return u.UserID
}
