package utils

import "testing"

func TestValidatePhoneNumber(t *testing.T) {
	valid := []string{
		"09795556677",
		"+959795556677",
		"959795556677",
		"9795556677",
		"09 795 556 677",
		"0943215678",
	}
	for _, num := range valid {
		if !ValidatePhoneNumber(num) {
			t.Errorf("expected %q to be valid", num)
		}
	}

	invalid := []string{
		"",
		"12345",
		"0812345678",       // not a mobile prefix
		"091234",           // too short
		"097955566778899",  // too long
		"not-a-number",
	}
	for _, num := range invalid {
		if ValidatePhoneNumber(num) {
			t.Errorf("expected %q to be invalid", num)
		}
	}
}

func TestFormatPhoneNumber(t *testing.T) {
	cases := map[string]string{
		"09795556677":   "959795556677",
		"+959795556677": "959795556677",
		"959795556677":  "959795556677",
		"9795556677":    "959795556677",
	}
	for in, want := range cases {
		if got := FormatPhoneNumber(in); got != want {
			t.Errorf("FormatPhoneNumber(%q) = %q, want %q", in, got, want)
		}
	}
}
