package security_test

import (
	"testing"
	"time"

	"github.com/msomdec/member-login/internal/security"
)

func TestHashAndVerify(t *testing.T) {
	hash, err := security.Hash("password123", 4)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if hash == "password123" {
		t.Fatal("expected hash to differ from plaintext")
	}

	ok, err := security.Verify("password123", hash)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !ok {
		t.Fatal("expected matching password to verify")
	}
}

func TestVerify_Mismatch(t *testing.T) {
	hash, err := security.Hash("password123", 4)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}

	ok, err := security.Verify("wrongpassword", hash)
	if err != nil {
		t.Fatalf("expected no error on mismatch, got %v", err)
	}
	if ok {
		t.Fatal("expected mismatched password to fail")
	}
}

func TestVerify_SpringPrefix(t *testing.T) {
	hash, err := security.Hash("password123", 4)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}

	ok, err := security.Verify("password123", "{bcrypt}"+hash)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !ok {
		t.Fatal("expected {bcrypt}-prefixed hash to verify")
	}
}

func TestVerify_BadHash(t *testing.T) {
	tests := []struct {
		name    string
		encoded string
	}{
		{"empty", ""},
		{"prefix only", "{bcrypt}"},
		{"plaintext", "password123"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ok, err := security.Verify("password123", tc.encoded)
			if err == nil {
				t.Fatal("expected error for malformed hash")
			}
			if ok {
				t.Fatal("expected malformed hash not to verify")
			}
		})
	}
}

func TestVerifyDummy_UsesConfiguredCost(t *testing.T) {
	security.SetDummyCost(10)
	t.Cleanup(func() { security.SetDummyCost(0) })

	hash, err := security.Hash("password123", 10)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	// Warm the dummy hash so generation is not timed.
	security.VerifyDummy("warmup")

	actual := fastest(3, func() { security.Verify("wrongpassword", hash) })
	fake := fastest(3, func() { security.VerifyDummy("wrongpassword") })

	if fake < actual/4 {
		t.Fatalf("dummy verify took %v, real verify %v; expected comparable bcrypt work", fake, actual)
	}
}

func fastest(n int, fn func()) time.Duration {
	best := time.Duration(1<<63 - 1)
	for i := 0; i < n; i++ {
		start := time.Now()
		fn()
		if d := time.Since(start); d < best {
			best = d
		}
	}
	return best
}
