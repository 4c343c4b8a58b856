package security_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/shelfwise/library-backend/pkg/config"
	"github.com/shelfwise/library-backend/pkg/security"
)

func testHasher() *security.Hasher {
	return security.NewHasher(config.PasswordConfig{
		ArgonMemoryKB:    8192,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	})
}

func TestHashAndVerify(t *testing.T) {
	h := testHasher()

	hash, err := h.Hash("very-secure-password")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=8192,t=1,p=1$") {
		t.Fatalf("unexpected hash format %q", hash)
	}

	ok, err := h.Verify("very-secure-password", hash)
	if err != nil || !ok {
		t.Fatalf("expected password to verify, ok=%v err=%v", ok, err)
	}

	ok, err = h.Verify("bogus-password", hash)
	if err != nil {
		t.Fatalf("Verify returned error for wrong password: %v", err)
	}
	if ok {
		t.Fatal("Verify accepted the wrong password")
	}
}

func TestVerifyUsesEmbeddedParams(t *testing.T) {
	hash, err := testHasher().Hash("library-card")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	other := security.NewHasher(config.PasswordConfig{ArgonMemoryKB: 16384, ArgonTime: 2, ArgonParallelism: 2, ArgonSaltLen: 16, ArgonKeyLen: 32})
	ok, err := other.Verify("library-card", hash)
	if err != nil || !ok {
		t.Fatalf("expected verification with differently configured hasher, ok=%v err=%v", ok, err)
	}
}

func TestHashRejectsShortPassword(t *testing.T) {
	if _, err := testHasher().Hash("abc"); !errors.Is(err, security.ErrWeakPassword) {
		t.Fatalf("expected weak password error, got %v", err)
	}
}

func TestVerifyRejectsMalformedHash(t *testing.T) {
	for _, encoded := range []string{"", "plain", "$bcrypt$v=1$m=1,t=1,p=1$aa$bb", "$argon2id$v=19$m=x,t=1,p=1$aa$bb"} {
		if _, err := testHasher().Verify("pw", encoded); !errors.Is(err, security.ErrInvalidHash) {
			t.Fatalf("expected invalid hash for %q, got %v", encoded, err)
		}
	}
}

func TestNeedsRehashTracksParameterChanges(t *testing.T) {
	hash, err := testHasher().Hash("library-card")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if testHasher().NeedsRehash(hash) {
		t.Fatal("hash made with current params should not need a rehash")
	}
	stronger := security.NewHasher(config.PasswordConfig{ArgonMemoryKB: 16384, ArgonTime: 2, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32})
	if !stronger.NeedsRehash(hash) {
		t.Fatal("hash made with weaker params should need a rehash")
	}
	if stronger.NeedsRehash("not-a-hash") {
		t.Fatal("malformed hash should not report a rehash")
	}
}
