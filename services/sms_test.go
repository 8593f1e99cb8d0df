package services

import "testing"

func TestGenerateOTPCode(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		code, err := generateOTPCode()
		if err != nil {
			t.Fatalf("generateOTPCode returned error: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("expected 6 digit code, got %q", code)
		}
		for _, c := range code {
			if c < '0' || c > '9' {
				t.Fatalf("expected only digits, got %q", code)
			}
		}
		seen[code] = true
	}
	// 50 draws colliding into one or two values would mean a broken generator
	if len(seen) < 10 {
		t.Fatalf("expected varied codes, got %d distinct over 50 draws", len(seen))
	}
}

func TestHashOTPCodeIsStable(t *testing.T) {
	if hashOTPCode("123456") != hashOTPCode("123456") {
		t.Fatal("expected identical hashes for identical codes")
	}
	if hashOTPCode("123456") == hashOTPCode("654321") {
		t.Fatal("expected different hashes for different codes")
	}
}
