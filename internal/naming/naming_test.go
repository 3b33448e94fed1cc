package naming

import "testing"

func TestNewNamesDeterministic(t *testing.T) {
	n1 := NewNames("a1b2c")
	n2 := NewNames("a1b2c")
	if n1 != n2 {
		t.Fatalf("names not stable: %#v vs %#v", n1, n2)
	}
	if n1.ResourceGroup != "aks-sample-a1b2c" {
		t.Fatalf("resource group = %q", n1.ResourceGroup)
	}
	if n1.Cluster != "aks-sample-a1b2c-aks" {
		t.Fatalf("cluster = %q", n1.Cluster)
	}
	if n1.DNSLabel != "a1b2c" {
		t.Fatalf("dns label = %q", n1.DNSLabel)
	}
}

func TestValidateToken(t *testing.T) {
	valid := []string{"a1b2c", "abcde", "z9999"}
	for _, tok := range valid {
		if err := ValidateToken(tok); err != nil {
			t.Fatalf("ValidateToken(%q) = %v, want nil", tok, err)
		}
	}
	invalid := []string{
		"",       // empty
		"abcd",   // too short
		"abcdef", // too long
		"1abcd",  // digit first
		"Abcde",  // uppercase
		"ab-cd",  // punctuation
		"ab cd",  // whitespace
	}
	for _, tok := range invalid {
		if err := ValidateToken(tok); err == nil {
			t.Fatalf("ValidateToken(%q) = nil, want error", tok)
		}
	}
}

func TestNewTokenSatisfiesValidation(t *testing.T) {
	for i := 0; i < 100; i++ {
		tok, err := NewToken()
		if err != nil {
			t.Fatalf("NewToken: %v", err)
		}
		if err := ValidateToken(tok); err != nil {
			t.Fatalf("generated token %q invalid: %v", tok, err)
		}
	}
}
