package oauth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// State payload keys.
const (
	StateKeyUser         = "user"
	StateKeyDataSourceID = "dataSourceId"
	StateKeyFinalURL     = "finalUrl"
	stateKeyNonce        = "nonce"
	stateKeyIssuedAt     = "iat"
	stateKeySignature    = "sig"
)

// StateValidationResult is the outcome of validating a callback's state.
type StateValidationResult struct {
	OK           bool
	ErrorMessage string
	// UserID, when set on a successful result, names the user the token is
	// attributed to instead of the request's ambient user.
	UserID string
}

// StateValid returns a successful result.
func StateValid() StateValidationResult {
	return StateValidationResult{OK: true}
}

// StateInvalid returns a failed result with msg.
func StateInvalid(msg string) StateValidationResult {
	return StateValidationResult{ErrorMessage: msg}
}

// StateProvider binds the authorization redirect to the requesting user.
type StateProvider interface {
	// StateForAuthenticationRequest returns the state values for user,
	// including every entry of payload.
	StateForAuthenticationRequest(user UserContext, payload map[string]string) (map[string]string, error)

	// ValidateAuthenticationState checks decoded state against the user of
	// the callback request.
	ValidateAuthenticationState(user UserContext, state map[string]string) StateValidationResult
}

// EncodeState serializes state into the opaque query parameter value.
func EncodeState(state map[string]string) (string, error) {
	data, err := json.Marshal(state)
	if err != nil {
		return "", fmt.Errorf("failed to marshal state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// DecodeState reverses EncodeState. Padded input is accepted.
func DecodeState(encoded string) (map[string]string, error) {
	if encoded == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidState)
	}
	data, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(encoded, "="))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	var state map[string]string
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	return state, nil
}

// HashUserID returns the hex SHA-256 of the user's effective id.
func HashUserID(user UserContext) string {
	sum := sha256.Sum256([]byte(user.EffectiveID()))
	return hex.EncodeToString(sum[:])
}

func copyPayload(payload map[string]string, extra int) map[string]string {
	state := make(map[string]string, len(payload)+extra)
	for k, v := range payload {
		if v != "" {
			state[k] = v
		}
	}
	return state
}

func checkUserHash(user UserContext, state map[string]string) StateValidationResult {
	got, ok := state[StateKeyUser]
	if !ok || got == "" {
		return StateInvalid("Invalid state, no user information")
	}
	want := HashUserID(user)
	if subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
		return StateInvalid("Invalid state, user mismatch")
	}
	return StateValid()
}

// HashedUserStateProvider embeds a hash of the user id in the state. It
// prevents one user from completing another's flow but is not signed.
type HashedUserStateProvider struct{}

// StateForAuthenticationRequest implements StateProvider.
func (HashedUserStateProvider) StateForAuthenticationRequest(user UserContext, payload map[string]string) (map[string]string, error) {
	state := copyPayload(payload, 1)
	state[StateKeyUser] = HashUserID(user)
	return state, nil
}

// ValidateAuthenticationState implements StateProvider.
func (HashedUserStateProvider) ValidateAuthenticationState(user UserContext, state map[string]string) StateValidationResult {
	return checkUserHash(user, state)
}

// SignedStateProvider adds a nonce, an issue time and an HMAC-SHA256
// signature to the hashed user state. States older than the TTL, with a
// bad signature, or seen before are rejected.
type SignedStateProvider struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time

	mu   sync.Mutex
	used map[string]time.Time
}

// NewSignedStateProvider creates a provider signing with secret. A ttl of
// zero defaults to ten minutes.
func NewSignedStateProvider(secret []byte, ttl time.Duration, now func() time.Time) *SignedStateProvider {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if now == nil {
		now = time.Now
	}
	return &SignedStateProvider{
		secret: secret,
		ttl:    ttl,
		now:    now,
		used:   make(map[string]time.Time),
	}
}

// StateForAuthenticationRequest implements StateProvider.
func (p *SignedStateProvider) StateForAuthenticationRequest(user UserContext, payload map[string]string) (map[string]string, error) {
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate state nonce: %w", err)
	}

	state := copyPayload(payload, 4)
	state[StateKeyUser] = HashUserID(user)
	state[stateKeyNonce] = hex.EncodeToString(nonce)
	state[stateKeyIssuedAt] = strconv.FormatInt(p.now().Unix(), 10)
	state[stateKeySignature] = p.sign(state)
	return state, nil
}

// ValidateAuthenticationState implements StateProvider.
func (p *SignedStateProvider) ValidateAuthenticationState(user UserContext, state map[string]string) StateValidationResult {
	sig, err := hex.DecodeString(state[stateKeySignature])
	if err != nil || len(sig) == 0 {
		return StateInvalid("Invalid state, missing signature")
	}
	want, _ := hex.DecodeString(p.sign(state))
	if !hmac.Equal(sig, want) {
		return StateInvalid("Invalid state, bad signature")
	}

	iat, err := strconv.ParseInt(state[stateKeyIssuedAt], 10, 64)
	if err != nil {
		return StateInvalid("Invalid state, missing issue time")
	}
	now := p.now()
	if now.Sub(time.Unix(iat, 0)) > p.ttl {
		return StateInvalid("Invalid state, expired")
	}

	if res := checkUserHash(user, state); !res.OK {
		return res
	}

	if !p.markUsed(state[stateKeyNonce], now) {
		return StateInvalid("Invalid state, already used")
	}
	return StateValid()
}

func (p *SignedStateProvider) markUsed(nonce string, now time.Time) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	for n, at := range p.used {
		if now.Sub(at) > p.ttl {
			delete(p.used, n)
		}
	}
	if _, seen := p.used[nonce]; seen {
		return false
	}
	p.used[nonce] = now
	return true
}

// sign computes the hex HMAC over every entry except the signature, in key
// order.
func (p *SignedStateProvider) sign(state map[string]string) string {
	keys := make([]string, 0, len(state))
	for k := range state {
		if k != stateKeySignature {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	mac := hmac.New(sha256.New, p.secret)
	for _, k := range keys {
		mac.Write([]byte(k))
		mac.Write([]byte{0})
		mac.Write([]byte(state[k]))
		mac.Write([]byte{0})
	}
	return hex.EncodeToString(mac.Sum(nil))
}
