package oauth

// UserInfo is the provider's identity document, kept as decoded JSON.
type UserInfo map[string]interface{}

// Clone returns a shallow copy of the top-level map.
func (u UserInfo) Clone() UserInfo {
	if u == nil {
		return nil
	}
	c := make(UserInfo, len(u))
	for k, v := range u {
		c[k] = v
	}
	return c
}

func (u UserInfo) str(key string) string {
	if v, ok := u[key].(string); ok {
		return v
	}
	return ""
}

// Identity is the normalized view of a UserInfo document.
type Identity struct {
	UserID      string
	Email       string
	DisplayName string
}

// IdentityFor extracts the normalized identity for provider p.
func IdentityFor(p ProviderType, info UserInfo) Identity {
	if info == nil {
		return Identity{}
	}
	switch {
	case p.IsGoogle():
		return Identity{UserID: info.str("sub"), Email: info.str("email"), DisplayName: info.str("name")}
	case p == OneDrive:
		email := info.str("mail")
		if email == "" {
			email = info.str("userPrincipalName")
		}
		name := info.str("displayName")
		if name == "" {
			name = email
		}
		return Identity{UserID: info.str("id"), Email: email, DisplayName: name}
	case p == Dropbox:
		id := Identity{UserID: info.str("account_id"), Email: info.str("email")}
		if name, ok := info["name"].(map[string]interface{}); ok {
			if dn, ok := name["display_name"].(string); ok {
				id.DisplayName = dn
			}
		}
		return id
	case p == Box:
		return Identity{UserID: info.str("id"), Email: info.str("login"), DisplayName: info.str("name")}
	}
	return Identity{}
}

// UserIDFor returns the provider subject id for info, or fallback when
// the document has none.
func UserIDFor(p ProviderType, info UserInfo, fallback string) string {
	if id := IdentityFor(p, info).UserID; id != "" {
		return id
	}
	return fallback
}
