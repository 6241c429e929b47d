package profile

import (
	"testing"
	"time"
)

func claims() map[string]any {
	return map[string]any{
		"uuid":        "3f1c8a1e-9a6c-4f2e-b5e0-aaaaaaaaaaaa",
		"displayName": "Ana",
		"email":       "ana@example.com",
		"identifiers": []any{"https://twitter.com/ana", "https://github.com/ana"},
		"profile": map[string]any{
			"email":             "ana.profile@example.com",
			"preferredUsername": "ana_p",
		},
	}
}

func TestGetFirst(t *testing.T) {
	p := New(claims())

	cases := []struct {
		path string
		want string
	}{
		{"$.uuid", "3f1c8a1e-9a6c-4f2e-b5e0-aaaaaaaaaaaa"},
		{"uuid", "3f1c8a1e-9a6c-4f2e-b5e0-aaaaaaaaaaaa"}, // leading $. is optional
		{"$.profile.email", "ana.profile@example.com"},
		{"$.profile.preferredUsername", "ana_p"},
		{"$.identifiers", "https://twitter.com/ana"}, // lists resolve to first element
		{"$.missing", ""},
		{"$.profile.missing", ""},
		{"$.uuid.deeper", ""}, // cannot descend into a scalar
		{"", ""},
	}
	for _, c := range cases {
		if got := p.GetFirst(c.path); got != c.want {
			t.Fatalf("GetFirst(%q) = %q, want %q", c.path, got, c.want)
		}
	}
}

func TestGetFirst_ListOfObjects(t *testing.T) {
	p := New(map[string]any{
		"photos": []any{
			map[string]any{"value": "https://cdn/a.png"},
			map[string]any{"value": "https://cdn/b.png"},
		},
	})
	if got := p.GetFirst("$.photos.value"); got != "https://cdn/a.png" {
		t.Fatalf("expected first photo value, got %q", got)
	}
}

func TestDisplayName_Fallbacks(t *testing.T) {
	full := New(claims())
	if got := full.DisplayName(); got != "Ana" {
		t.Fatalf("displayName claim should win, got %q", got)
	}

	c := claims()
	delete(c, "displayName")
	if got := New(c).DisplayName(); got != "ana_p" {
		t.Fatalf("expected preferredUsername fallback, got %q", got)
	}

	delete(c["profile"].(map[string]any), "preferredUsername")
	if got := New(c).DisplayName(); got != "3f1c8a1e-9a6c-4f2e-b5e0-aaaaaaaaaaaa" {
		t.Fatalf("expected uuid fallback, got %q", got)
	}
}

func TestEmail_PrefersProfileEmail(t *testing.T) {
	if got := New(claims()).Email(); got != "ana.profile@example.com" {
		t.Fatalf("got %q", got)
	}
	c := claims()
	delete(c, "profile")
	if got := New(c).Email(); got != "ana@example.com" {
		t.Fatalf("got %q", got)
	}
}

func TestVerifiedEmail(t *testing.T) {
	// Explicit verifiedEmail claim wins.
	c := claims()
	c["profile"].(map[string]any)["verifiedEmail"] = "verified@example.com"
	if got := New(c).VerifiedEmail(); got != "verified@example.com" {
		t.Fatalf("got %q", got)
	}

	// A parseable emailVerified timestamp promotes the plain email.
	for _, stamp := range []string{
		"2024-03-01T10:00:00Z",
		"2024-03-01 10:00:00",
		"2024-03-01",
		"1709287200",
	} {
		c := claims()
		c["emailVerified"] = stamp
		p := New(c)
		if got := p.VerifiedEmail(); got != "ana.profile@example.com" {
			t.Fatalf("stamp %q: expected promotion, got %q", stamp, got)
		}
		if at, ok := p.EmailVerifiedAt(); !ok || at.IsZero() {
			t.Fatalf("stamp %q: expected parseable verification time, got %v %v", stamp, at, ok)
		}
	}

	// Presence alone is not enough: garbage does not promote.
	c = claims()
	c["emailVerified"] = "not-a-timestamp"
	if got := New(c).VerifiedEmail(); got != "" {
		t.Fatalf("garbage timestamp must not promote, got %q", got)
	}

	// No claim at all.
	if got := New(claims()).VerifiedEmail(); got != "" {
		t.Fatalf("missing claim must not promote, got %q", got)
	}
}

func TestEmailVerifiedAt_UnixSeconds(t *testing.T) {
	c := claims()
	c["emailVerified"] = "1709287200"
	at, ok := New(c).EmailVerifiedAt()
	if !ok {
		t.Fatal("expected unix seconds to parse")
	}
	if want := time.Unix(1709287200, 0).UTC(); !at.Equal(want) {
		t.Fatalf("got %v, want %v", at, want)
	}
}

func TestIdentifiers(t *testing.T) {
	p := New(claims())
	ids := p.Identifiers()
	if len(ids) != 2 || ids[0] != "https://twitter.com/ana" {
		t.Fatalf("unexpected identifiers: %v", ids)
	}

	// Returned slice is a copy.
	ids[0] = "mutated"
	if p.Identifiers()[0] != "https://twitter.com/ana" {
		t.Fatal("identifiers slice leaked internal state")
	}
}

func TestIdentifiers_NestedUnderProfile(t *testing.T) {
	p := New(map[string]any{
		"uuid": "u",
		"profile": map[string]any{
			"identifiers": []any{"https://facebook.com/ana", 42, ""},
		},
	})
	ids := p.Identifiers()
	if len(ids) != 1 || ids[0] != "https://facebook.com/ana" {
		t.Fatalf("expected non-string and empty entries dropped, got %v", ids)
	}
}

func TestNew_DeepCopiesClaims(t *testing.T) {
	c := claims()
	p := New(c)
	c["uuid"] = "mutated"
	c["profile"].(map[string]any)["email"] = "mutated@example.com"

	if p.UUID() != "3f1c8a1e-9a6c-4f2e-b5e0-aaaaaaaaaaaa" {
		t.Fatal("caller mutation leaked into profile uuid")
	}
	if p.Email() != "ana.profile@example.com" {
		t.Fatal("caller mutation leaked into nested claims")
	}
}

func TestFromJSON_RoundTrip(t *testing.T) {
	p := New(claims())
	back, err := FromJSON(p.JSON())
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if back.UUID() != p.UUID() || back.Email() != p.Email() {
		t.Fatal("round trip lost claims")
	}
	if len(back.Identifiers()) != 2 {
		t.Fatalf("round trip lost identifiers: %v", back.Identifiers())
	}
}

func TestFromJSON_Invalid(t *testing.T) {
	if _, err := FromJSON([]byte("not json")); err == nil {
		t.Fatal("expected decode error")
	}
}
