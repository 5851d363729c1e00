package countries

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "uppercase", input: "US", expected: "US"},
		{name: "lowercase", input: "fr", expected: "FR"},
		{name: "whitespace", input: "  gb ", expected: "GB"},
		{name: "empty", input: "", expected: ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Normalize(tc.input); got != tc.expected {
				t.Fatalf("Normalize(%q) = %q, want %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestIsValid(t *testing.T) {
	if !IsValid("de") || IsValid("ZZ") || IsValid("DEU") || IsValid("") {
		t.Fatalf("IsValid classification wrong")
	}
}

func TestNameAndCode(t *testing.T) {
	cases := []struct {
		code string
		name string
	}{
		{code: "FR", name: "France"},
		{code: "US", name: "United States"},
		{code: "NO", name: "Norway"},
	}
	for _, tc := range cases {
		if got := Name(tc.code); got != tc.name {
			t.Fatalf("Name(%q) = %q, want %q", tc.code, got, tc.name)
		}
		if got := Code(tc.name); got != tc.code {
			t.Fatalf("Code(%q) = %q, want %q", tc.name, got, tc.code)
		}
	}
	if Name("XX") != "" {
		t.Fatalf("unknown code should have empty name")
	}
}

func TestCodeAliases(t *testing.T) {
	cases := map[string]string{
		"United States of America": "US",
		"united kingdom":           "GB",
		"Dem. Rep. Congo":          "CD",
		"美国":                       "US",
		"中国":                       "CN",
		"se":                       "SE",
		"Atlantis":                 "",
	}
	for in, want := range cases {
		if got := Code(in); got != want {
			t.Fatalf("Code(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestAllNames(t *testing.T) {
	names := AllNames("us")
	if len(names) < 2 || names[0] != "United States" || names[1] != "United States of America" {
		t.Fatalf("AllNames(us) = %v", names)
	}
	if AllNames("XX") != nil {
		t.Fatalf("AllNames of unknown code should be nil")
	}
}
