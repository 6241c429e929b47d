package resolver

import "github.com/dropDatabas3/janus/internal/store/core"

// Kind enumera los resultados posibles de una resolución.
type Kind int

const (
	// KindLinkedExisting: match por identity link previo (máxima confianza).
	KindLinkedExisting Kind = iota
	// KindFoundByVerifiedEmail: match por email verificado por el provider,
	// todavía sin link.
	KindFoundByVerifiedEmail
	// KindFoundByUnverifiedEmail: match por email sin verificar; solo
	// válido con la política estricta deshabilitada.
	KindFoundByUnverifiedEmail
	// KindRequiresPasswordProof: match por email sin verificar bajo
	// política estricta; el visitante debe probar ownership antes de
	// linkear. No es un login.
	KindRequiresPasswordProof
	// KindProvisionNew: ningún match; hay que crear una cuenta nueva.
	KindProvisionNew
)

func (k Kind) String() string {
	switch k {
	case KindLinkedExisting:
		return "linked_existing"
	case KindFoundByVerifiedEmail:
		return "found_by_verified_email"
	case KindFoundByUnverifiedEmail:
		return "found_by_unverified_email"
	case KindRequiresPasswordProof:
		return "requires_password_proof"
	case KindProvisionNew:
		return "provision_new"
	default:
		return "unknown"
	}
}

// Outcome es el resultado de una resolución. Exactamente un outcome por
// llamada: la primera regla que aplica gana.
type Outcome struct {
	Kind      Kind
	AccountID string           // vacío solo para KindProvisionNew
	Seed      core.AccountSeed // solo para KindProvisionNew
}

func LinkedExisting(accountID string) Outcome {
	return Outcome{Kind: KindLinkedExisting, AccountID: accountID}
}

func FoundByVerifiedEmail(accountID string) Outcome {
	return Outcome{Kind: KindFoundByVerifiedEmail, AccountID: accountID}
}

func FoundByUnverifiedEmail(accountID string) Outcome {
	return Outcome{Kind: KindFoundByUnverifiedEmail, AccountID: accountID}
}

func RequiresPasswordProof(accountID string) Outcome {
	return Outcome{Kind: KindRequiresPasswordProof, AccountID: accountID}
}

func ProvisionNew(seed core.AccountSeed) Outcome {
	return Outcome{Kind: KindProvisionNew, Seed: seed}
}
