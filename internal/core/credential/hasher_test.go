package credential

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher_HashAndVerify(t *testing.T) {
	t.Parallel()

	h := NewBcryptHasher(bcrypt.MinCost)
	digest, err := h.Hash("s3cret")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}
	if digest == "s3cret" || !strings.HasPrefix(digest, "$2") {
		t.Fatalf("unexpected digest %q", digest)
	}

	ok, err := h.Verify("s3cret", digest)
	if err != nil || !ok {
		t.Fatalf("expected match, got ok=%v err=%v", ok, err)
	}

	ok, err = h.Verify("other", digest)
	if err != nil {
		t.Fatalf("Verify returned error on mismatch: %v", err)
	}
	if ok {
		t.Fatal("expected mismatch")
	}
}

func TestBcryptHasher_LongPasswords(t *testing.T) {
	t.Parallel()

	h := NewBcryptHasher(bcrypt.MinCost)
	for _, n := range []int{72, 73, 200} {
		password := strings.Repeat("a", n)
		digest, err := h.Hash(password)
		if err != nil {
			t.Fatalf("Hash(%d bytes) returned error: %v", n, err)
		}
		ok, err := h.Verify(password, digest)
		if err != nil || !ok {
			t.Fatalf("Verify(%d bytes): expected match, got ok=%v err=%v", n, ok, err)
		}
	}

	// 72 バイト目以降だけが異なるパスワードは一致してはいけません。
	base := strings.Repeat("p", 80)
	digest, err := h.Hash(base + "x")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}
	ok, err := h.Verify(base+"y", digest)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if ok {
		t.Fatal("expected mismatch for passwords differing past 72 bytes")
	}
}

func TestBcryptHasher_SaltedDigests(t *testing.T) {
	t.Parallel()

	h := NewBcryptHasher(bcrypt.MinCost)
	first, err := h.Hash("same")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}
	second, err := h.Hash("same")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}
	if first == second {
		t.Fatal("expected different digests for the same password")
	}
}

func TestBcryptHasher_EmptyPassword(t *testing.T) {
	t.Parallel()

	h := NewBcryptHasher(bcrypt.MinCost)
	if _, err := h.Hash(""); !errors.Is(err, ErrEmptyPassword) {
		t.Fatalf("expected ErrEmptyPassword, got %v", err)
	}
}

func TestBcryptHasher_MalformedDigest(t *testing.T) {
	t.Parallel()

	h := NewBcryptHasher(bcrypt.MinCost)
	for _, digest := range []string{"", "not-a-hash", strings.Repeat("x", 60)} {
		ok, err := h.Verify("anything", digest)
		if ok {
			t.Fatalf("expected no match for %q", digest)
		}
		if !errors.Is(err, ErrMalformedHash) {
			t.Fatalf("expected ErrMalformedHash for %q, got %v", digest, err)
		}
	}
}

func TestNewBcryptHasher_Cost(t *testing.T) {
	t.Parallel()

	cases := map[int]int{
		0:   DefaultBcryptCost,
		1:   bcrypt.MinCost,
		12:  12,
		100: bcrypt.MaxCost,
	}
	for in, want := range cases {
		if got := NewBcryptHasher(in).Cost(); got != want {
			t.Fatalf("cost %d: expected %d, got %d", in, want, got)
		}
	}
}
