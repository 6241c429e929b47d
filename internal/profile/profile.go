// Package profile models the claim set returned by the identity provider
// for one login event. A Profile is immutable once constructed; the
// resolver and finalizer only read from it.
package profile

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Claim paths preserved for interop with the provider response shape.
const (
	PathUUID              = "$.uuid"
	PathDisplayName       = "$.displayName"
	PathEmail             = "$.email"
	PathEmailVerified     = "$.emailVerified"
	PathProfileEmail      = "$.profile.email"
	PathVerifiedEmail     = "$.profile.verifiedEmail"
	PathPreferredUsername = "$.profile.preferredUsername"
)

// Profile is an immutable snapshot of provider claims.
type Profile struct {
	claims      map[string]any
	identifiers []string
}

// New builds a Profile from a raw claims document. The claims map is
// deep-copied so later mutations by the caller cannot leak in.
func New(claims map[string]any) *Profile {
	p := &Profile{claims: deepCopy(claims)}
	p.identifiers = extractIdentifiers(p.claims)
	return p
}

// FromJSON decodes a provider response body into a Profile.
func FromJSON(b []byte) (*Profile, error) {
	var claims map[string]any
	if err := json.Unmarshal(b, &claims); err != nil {
		return nil, fmt.Errorf("profile: decode claims: %w", err)
	}
	return New(claims), nil
}

// GetFirst returns the first present scalar along a dotted claim path,
// or "" when the path is absent. A leading "$." is accepted so callers
// can use the provider's documented paths verbatim. When a path segment
// lands on a list, the first element is taken (most-trusted first).
func (p *Profile) GetFirst(path string) string {
	if len(path) > 2 && path[:2] == "$." {
		path = path[2:]
	}
	var cur any = p.claims
	start := 0
	for i := 0; i <= len(path); i++ {
		if i < len(path) && path[i] != '.' {
			continue
		}
		seg := path[start:i]
		start = i + 1
		if seg == "" {
			return ""
		}
		cur = descend(cur, seg)
		if cur == nil {
			return ""
		}
	}
	return scalar(cur)
}

// Identifiers returns the provider-issued external ids for this login
// event, most-trusted first. The returned slice is a copy.
func (p *Profile) Identifiers() []string {
	out := make([]string, len(p.identifiers))
	copy(out, p.identifiers)
	return out
}

// UUID returns the opaque provider uuid (required claim).
func (p *Profile) UUID() string {
	return p.GetFirst(PathUUID)
}

// DisplayName returns the display name claim, falling back to the
// provider uuid so provisioned accounts always get a non-empty name.
func (p *Profile) DisplayName() string {
	if v := p.GetFirst(PathDisplayName); v != "" {
		return v
	}
	if v := p.GetFirst(PathPreferredUsername); v != "" {
		return v
	}
	return p.UUID()
}

// Email returns the raw (not necessarily verified) email claim.
func (p *Profile) Email() string {
	if v := p.GetFirst(PathProfileEmail); v != "" {
		return v
	}
	return p.GetFirst(PathEmail)
}

// VerifiedEmail returns the provider-asserted verified email. When the
// provider did not send an explicit verifiedEmail claim, the plain
// email is promoted if the emailVerified timestamp claim parses.
func (p *Profile) VerifiedEmail() string {
	if v := p.GetFirst(PathVerifiedEmail); v != "" {
		return v
	}
	if _, ok := p.EmailVerifiedAt(); ok {
		return p.Email()
	}
	return ""
}

// EmailVerifiedAt parses the emailVerified claim. Presence alone is not
// enough: only a parseable timestamp promotes the email to verified.
func (p *Profile) EmailVerifiedAt() (time.Time, bool) {
	raw := p.GetFirst(PathEmailVerified)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02",
	} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	// unix seconds
	if secs, err := strconv.ParseInt(raw, 10, 64); err == nil && secs > 0 {
		return time.Unix(secs, 0).UTC(), true
	}
	return time.Time{}, false
}

// JSON serializes the claims for session stashing and event payloads.
func (p *Profile) JSON() []byte {
	b, _ := json.Marshal(p.claims)
	return b
}

func descend(cur any, seg string) any {
	switch v := cur.(type) {
	case map[string]any:
		return v[seg]
	case []any:
		if len(v) == 0 {
			return nil
		}
		return descend(v[0], seg)
	default:
		return nil
	}
}

func scalar(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		if len(t) == 0 {
			return ""
		}
		return scalar(t[0])
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

func extractIdentifiers(claims map[string]any) []string {
	raw, ok := claims["identifiers"]
	if !ok {
		if prof, okp := claims["profile"].(map[string]any); okp {
			raw = prof["identifiers"]
		}
	}
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

func deepCopy(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return deepCopy(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = copyValue(item)
		}
		return out
	default:
		return v
	}
}
