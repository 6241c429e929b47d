package resolver

import (
	"context"
	"errors"
	"testing"

	"github.com/dropDatabas3/janus/internal/profile"
	"github.com/dropDatabas3/janus/internal/store/core"
	"github.com/dropDatabas3/janus/internal/store/memory"
)

const providerName = "janrain"

func strictPolicy() Policy {
	return Policy{StrictEmailVerification: true, Product: ProductLoginOnly}
}

func laxPolicy() Policy {
	return Policy{StrictEmailVerification: false, Product: ProductLoginOnly}
}

func profileWith(claims map[string]any) *profile.Profile {
	return profile.New(claims)
}

func TestResolve_IdentifierWinsOverEmail(t *testing.T) {
	store := memory.New()
	linked := store.Seed(core.Account{ID: "acc-42", Email: "linked@example.com", DisplayName: "linked"})
	store.Seed(core.Account{ID: "acc-7", Email: "other@example.com", DisplayName: "other", EmailVerified: true})
	if _, err := store.Insert(context.Background(), providerName, "ext-123", linked.ID); err != nil {
		t.Fatalf("seed link: %v", err)
	}

	// The profile's verified email points at a DIFFERENT account; the
	// pre-existing link must still win.
	p := profileWith(map[string]any{
		"uuid":          "u-1",
		"identifiers":   []any{"ext-123"},
		"email":         "other@example.com",
		"emailVerified": "2024-01-01T00:00:00Z",
	})

	out, err := New(store, store, providerName).Resolve(context.Background(), p, strictPolicy())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if out.Kind != KindLinkedExisting || out.AccountID != "acc-42" {
		t.Fatalf("got %s/%s, want linked_existing/acc-42", out.Kind, out.AccountID)
	}
}

func TestResolve_SecondIdentifierMatches(t *testing.T) {
	store := memory.New()
	acc := store.Seed(core.Account{ID: "acc-9", DisplayName: "nine"})
	if _, err := store.Insert(context.Background(), providerName, "ext-b", acc.ID); err != nil {
		t.Fatalf("seed link: %v", err)
	}

	p := profileWith(map[string]any{
		"uuid":        "u-1",
		"identifiers": []any{"ext-a", "ext-b"},
	})
	out, err := New(store, store, providerName).Resolve(context.Background(), p, strictPolicy())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if out.Kind != KindLinkedExisting || out.AccountID != "acc-9" {
		t.Fatalf("got %s/%s", out.Kind, out.AccountID)
	}
}

func TestResolve_VerifiedEmailMatch(t *testing.T) {
	store := memory.New()
	store.Seed(core.Account{ID: "acc-7", Email: "b@x.com", DisplayName: "bee"})

	p := profileWith(map[string]any{
		"uuid":          "u-2",
		"identifiers":   []any{"ext-new"},
		"email":         "b@x.com",
		"emailVerified": "2024-01-01T00:00:00Z",
	})
	out, err := New(store, store, providerName).Resolve(context.Background(), p, strictPolicy())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if out.Kind != KindFoundByVerifiedEmail || out.AccountID != "acc-7" {
		t.Fatalf("got %s/%s, want found_by_verified_email/acc-7", out.Kind, out.AccountID)
	}
}

func TestResolve_UnverifiedEmail_StrictRequiresProof(t *testing.T) {
	store := memory.New()
	store.Seed(core.Account{ID: "acc-5", Email: "c@x.com", DisplayName: "cee"})

	p := profileWith(map[string]any{
		"uuid":  "u-3",
		"email": "c@x.com", // no emailVerified claim
	})
	out, err := New(store, store, providerName).Resolve(context.Background(), p, strictPolicy())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if out.Kind != KindRequiresPasswordProof || out.AccountID != "acc-5" {
		t.Fatalf("got %s/%s, want requires_password_proof/acc-5", out.Kind, out.AccountID)
	}
}

func TestResolve_UnverifiedEmail_LaxLogsIn(t *testing.T) {
	store := memory.New()
	store.Seed(core.Account{ID: "acc-5", Email: "c@x.com", DisplayName: "cee"})

	p := profileWith(map[string]any{
		"uuid":  "u-3",
		"email": "c@x.com",
	})
	out, err := New(store, store, providerName).Resolve(context.Background(), p, laxPolicy())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if out.Kind != KindFoundByUnverifiedEmail || out.AccountID != "acc-5" {
		t.Fatalf("got %s/%s, want found_by_unverified_email/acc-5", out.Kind, out.AccountID)
	}
}

func TestResolve_BootstrapAlwaysRequiresProof(t *testing.T) {
	store := memory.New()
	store.Seed(core.Account{ID: "acc-1", Email: "root@x.com", DisplayName: "root", Bootstrap: true})

	p := profileWith(map[string]any{
		"uuid":  "u-4",
		"email": "root@x.com",
	})
	// Even with the lax policy, the bootstrap account never auto-links
	// on an unverified email match.
	out, err := New(store, store, providerName).Resolve(context.Background(), p, laxPolicy())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if out.Kind != KindRequiresPasswordProof || out.AccountID != "acc-1" {
		t.Fatalf("got %s/%s, want requires_password_proof/acc-1", out.Kind, out.AccountID)
	}
}

func TestResolve_ProvisionNew(t *testing.T) {
	store := memory.New()

	p := profileWith(map[string]any{
		"uuid":          "prov-uuid-1",
		"identifiers":   []any{"ext-x"},
		"email":         "new@x.com",
		"emailVerified": "2024-01-01",
	})
	out, err := New(store, store, providerName).Resolve(context.Background(), p, strictPolicy())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if out.Kind != KindProvisionNew {
		t.Fatalf("got %s, want provision_new", out.Kind)
	}
	if out.Seed.Email != "new@x.com" {
		t.Fatalf("seed email = %q", out.Seed.Email)
	}
	if out.Seed.ProviderUUID != "prov-uuid-1" {
		t.Fatalf("seed provider uuid = %q", out.Seed.ProviderUUID)
	}
	// No displayName claim: the provider uuid doubles as display name.
	if out.Seed.DisplayName != "prov-uuid-1" {
		t.Fatalf("seed display name = %q", out.Seed.DisplayName)
	}
}

func TestResolve_ProvisionNew_InvalidEmailDropped(t *testing.T) {
	store := memory.New()

	p := profileWith(map[string]any{
		"uuid":  "prov-uuid-2",
		"email": "not an email",
	})
	out, err := New(store, store, providerName).Resolve(context.Background(), p, strictPolicy())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if out.Kind != KindProvisionNew || out.Seed.Email != "" {
		t.Fatalf("got %s seed email %q, want provision with empty email", out.Kind, out.Seed.Email)
	}
}

// failingLinks simulates an unreachable link store.
type failingLinks struct{}

var errStoreDown = errors.New("store down")

func (failingLinks) Lookup(context.Context, string, string) (string, error) {
	return "", errStoreDown
}
func (failingLinks) Insert(context.Context, string, string, string) (bool, error) {
	return false, errStoreDown
}
func (failingLinks) ListByAccount(context.Context, string) ([]core.IdentityLink, error) {
	return nil, errStoreDown
}

func TestResolve_StoreErrorAborts(t *testing.T) {
	store := memory.New()
	store.Seed(core.Account{ID: "acc-7", Email: "b@x.com", DisplayName: "bee"})

	p := profileWith(map[string]any{
		"uuid":          "u-5",
		"identifiers":   []any{"ext-1"},
		"email":         "b@x.com",
		"emailVerified": "2024-01-01T00:00:00Z",
	})
	// A store failure must abort the whole attempt, never fall through
	// to a lower-trust rule.
	_, err := New(failingLinks{}, store, providerName).Resolve(context.Background(), p, strictPolicy())
	if !errors.Is(err, errStoreDown) {
		t.Fatalf("expected store error to surface, got %v", err)
	}
}

func TestKindString(t *testing.T) {
	cases := map[Kind]string{
		KindLinkedExisting:         "linked_existing",
		KindFoundByVerifiedEmail:   "found_by_verified_email",
		KindFoundByUnverifiedEmail: "found_by_unverified_email",
		KindRequiresPasswordProof:  "requires_password_proof",
		KindProvisionNew:           "provision_new",
		Kind(99):                   "unknown",
	}
	for k, want := range cases {
		if got := k.String(); got != want {
			t.Fatalf("Kind(%d).String() = %q, want %q", k, got, want)
		}
	}
}
