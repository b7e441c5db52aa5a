package phonetic

import "testing"

func TestCologne_ReferenceValues(t *testing.T) {
	cases := map[string]string{
		"Wikipedia":            "3412",
		"Breschnew":            "17863",
		"Müller-Lüdenscheidt":  "65752682",
		"Meyer":                "67",
		"Maier":                "67",
	}
	for in, want := range cases {
		if got := Cologne(in); got != want {
			t.Fatalf("Cologne(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCologne_NameVariantsCollide(t *testing.T) {
	pairs := [][2]string{
		{"Meyer", "Maier"},
		{"Schmidt", "Schmitt"},
		{"Müller", "Mueller"},
	}
	for _, p := range pairs {
		if Cologne(p[0]) != Cologne(p[1]) {
			t.Fatalf("expected %q and %q to share a code, got %q vs %q",
				p[0], p[1], Cologne(p[0]), Cologne(p[1]))
		}
	}
}

func TestCologne_LeadingZeroSurvives(t *testing.T) {
	// Vowel-initial names keep the leading 0; later vowels drop.
	if got := Cologne("Anna"); got != "06" {
		t.Fatalf("Cologne(Anna) = %q, want 06", got)
	}
}

func TestCologne_NonLetters(t *testing.T) {
	if got := Cologne("  123 !? "); got != "" {
		t.Fatalf("expected empty code for letterless input, got %q", got)
	}
	if got := Cologne(""); got != "" {
		t.Fatalf("expected empty code for empty input, got %q", got)
	}
	// Punctuation and spacing never change the code.
	if Cologne("Müller-Lüdenscheidt") != Cologne("Mueller Luedenscheidt") {
		t.Fatalf("expected punctuation-insensitive codes")
	}
}
