package oauth

const redacted = "[REDACTED]"

// RedactedToken wraps a secret so it prints as [REDACTED] through fmt,
// encoding/json and encoding.TextMarshaler.
type RedactedToken struct {
	value string
}

// NewRedactedToken wraps value.
func NewRedactedToken(value string) RedactedToken {
	return RedactedToken{value: value}
}

// Value returns the wrapped secret. Never log the result.
func (t RedactedToken) Value() string {
	return t.value
}

func (t RedactedToken) String() string {
	return redacted
}

func (t RedactedToken) GoString() string {
	return "oauth.RedactedToken{" + redacted + "}"
}

// IsEmpty reports whether no secret is wrapped.
func (t RedactedToken) IsEmpty() bool {
	return t.value == ""
}

// Hint returns the last four characters prefixed by "...", for operators
// telling tokens apart. Secrets of eight characters or fewer are fully
// hidden.
func (t RedactedToken) Hint() string {
	if len(t.value) <= 8 {
		return redacted
	}
	return "..." + t.value[len(t.value)-4:]
}

func (t RedactedToken) MarshalText() ([]byte, error) {
	return []byte(redacted), nil
}

func (t RedactedToken) MarshalJSON() ([]byte, error) {
	return []byte(`"` + redacted + `"`), nil
}
