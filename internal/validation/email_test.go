package validation

import "testing"

func TestValidEmail_Valid(t *testing.T) {
	valids := []string{
		"a@x.com",
		"first.last+tag@sub.example.org",
		"a_b%c-d@example.co",
		"1234@numbers.io",
	}
	for _, v := range valids {
		if !ValidEmail(v) {
			t.Fatalf("expected valid: %q", v)
		}
	}
}

func TestValidEmail_Invalid(t *testing.T) {
	invalids := []string{
		"",
		"@x.com",
		"a@",
		"a b@x.com",
		"a@x", // no TLD
		"a@@x.com",
		"a@x.c",  // TLD too short
		"a@.com", // empty first label
	}
	for _, v := range invalids {
		if ValidEmail(v) {
			t.Fatalf("expected invalid: %q", v)
		}
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("a@x.com"); got != "a@x.com" {
		t.Fatalf("got %q", got)
	}
	if got := NormalizeEmail("not an email"); got != "" {
		t.Fatalf("invalid input must normalize to empty, got %q", got)
	}
}
