package engine

import "testing"

func TestCleanHTML(t *testing.T) {
	in := `<div><h1>Backend  Engineer</h1><script>evil()</script><style>.x{}</style><p>Build   things.</p></div>`
	got := CleanHTML(in)
	if got != "Backend Engineer Build things." {
		t.Errorf("CleanHTML = %q", got)
	}
}

func TestTruncateRunes(t *testing.T) {
	if got := TruncateRunes("hello", 10, "..."); got != "hello" {
		t.Errorf("short string changed: %q", got)
	}
	if got := TruncateRunes("hello world", 5, "..."); got != "hello..." {
		t.Errorf("got %q", got)
	}
	// Rune-safe: must not split a multibyte character.
	if got := TruncateRunes("héllo wörld", 7, ""); got != "héllo w" {
		t.Errorf("got %q", got)
	}
	if got := TruncateRunes("anything", 0, "..."); got != "anything" {
		t.Errorf("zero limit changed string: %q", got)
	}
}

func TestCanonicalJobKey(t *testing.T) {
	a := CanonicalJobKey("Senior Backend Engineer", "Acme Inc")
	b := CanonicalJobKey("Senior  Backend-Engineer", "ACME")
	if a != b {
		t.Errorf("equivalent postings got different keys: %q vs %q", a, b)
	}
	if CanonicalJobKey("Backend Engineer", "Acme") == CanonicalJobKey("Backend Engineer", "Globex") {
		t.Error("different companies collided")
	}
	if CanonicalJobKey("Backend Engineer", "Acme") == CanonicalJobKey("Frontend Engineer", "Acme") {
		t.Error("different titles collided")
	}
}
