package validation

import "regexp"

// Email rules (syntactic only, verification is provider-asserted):
// - Single local part, single domain, exactly one '@'.
// - Local part: [a-zA-Z0-9._%+-], 1..64.
// - Domain: dot-separated labels of [a-zA-Z0-9-], TLD >= 2 alpha chars.
// - No whitespace anywhere.
//
// Examples valid: a@x.com, first.last+tag@sub.example.org
// Examples invalid: "", @x.com, a@, a b@x.com, a@x, a@@x.com
var emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]{1,64}@[a-zA-Z0-9\-]+(?:\.[a-zA-Z0-9\-]+)*\.[a-zA-Z]{2,}$`)

// ValidEmail returns true if the address has a plausible email shape.
// It never proves deliverability or ownership.
func ValidEmail(addr string) bool {
	if len(addr) > 254 {
		return false
	}
	return emailRe.MatchString(addr)
}

// NormalizeEmail returns the empty string unless addr is syntactically
// valid. Callers use the result directly as "usable email or nothing".
func NormalizeEmail(addr string) string {
	if !ValidEmail(addr) {
		return ""
	}
	return addr
}
