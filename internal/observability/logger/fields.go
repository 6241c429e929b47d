package logger

import (
	"strings"
	"time"

	"go.uber.org/zap"
)

// =================================================================================
// CAMPOS ESTÁNDAR - SISTEMA
// =================================================================================

// Component crea un campo para el componente/módulo.
func Component(v string) zap.Field {
	return zap.String("component", v)
}

// Op crea un campo para la operación actual.
func Op(v string) zap.Field {
	return zap.String("op", v)
}

// Layer crea un campo para la capa (controller, service, store).
func Layer(v string) zap.Field {
	return zap.String("layer", v)
}

// Err crea un campo para un error.
func Err(err error) zap.Field {
	return zap.Error(err)
}

// =================================================================================
// CAMPOS ESTÁNDAR - NEGOCIO
// =================================================================================

// AccountID crea un campo para el ID de la cuenta local.
func AccountID(v string) zap.Field {
	return zap.String("account_id", v)
}

// SessionID crea un campo para el ID de sesión.
func SessionID(v string) zap.Field {
	return zap.String("session_id", v)
}

// Provider crea un campo para el identity provider.
func Provider(v string) zap.Field {
	return zap.String("provider", v)
}

// ExternalID crea un campo para el identificador externo.
func ExternalID(v string) zap.Field {
	return zap.String("external_id", v)
}

// Outcome crea un campo para el resultado de una resolución.
func Outcome(v string) zap.Field {
	return zap.String("outcome", v)
}

// EmailMasked crea un campo con el email enmascarado.
// Nunca loguear el email completo en prod.
func EmailMasked(v string) zap.Field {
	return zap.String("email_masked", MaskEmail(v))
}

// MaskEmail enmascara un email para logging (2 chars + @dominio).
func MaskEmail(email string) string {
	if len(email) < 3 {
		return "***"
	}
	at := strings.IndexByte(email, '@')
	if at < 2 {
		return email[:2] + "***"
	}
	return email[:2] + "***" + email[at:]
}

// =================================================================================
// CAMPOS ESTÁNDAR - DATOS
// =================================================================================

// Count crea un campo para un conteo.
func Count(v int) zap.Field {
	return zap.Int("count", v)
}

// Key crea un campo genérico para una clave.
func Key(v string) zap.Field {
	return zap.String("key", v)
}

// Duration crea un campo para una duración.
func Duration(v time.Duration) zap.Field {
	return zap.Duration("duration", v)
}

// String crea un campo string genérico.
func String(key, v string) zap.Field {
	return zap.String(key, v)
}

// Int crea un campo int genérico.
func Int(key string, v int) zap.Field {
	return zap.Int(key, v)
}

// Bool crea un campo bool genérico.
func Bool(key string, v bool) zap.Field {
	return zap.Bool(key, v)
}

// Any crea un campo genérico para cualquier tipo.
func Any(key string, v any) zap.Field {
	return zap.Any(key, v)
}
