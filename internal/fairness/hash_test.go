package fairness

import (
	"bytes"
	"errors"
	"regexp"
	"strings"
	"testing"
)

var hexDigest = regexp.MustCompile(`^[a-f0-9]{64}$`)

const vectorServerSeed = "b2a5f3f32a4d9c6ee7a8c1d33456677890abcdeffedcba0987654321ffeeddcc"

func TestCommitHashVector(t *testing.T) {
	got := CommitHash(vectorServerSeed, "42")
	want := "bb9acdc67f3f18f3345236a01f0e5072596657a9005c7d8a22cff061451a6b34"
	if got != want {
		t.Fatalf("CommitHash = %s, want %s", got, want)
	}
	if got != DigestString(vectorServerSeed+":42") {
		t.Fatal("CommitHash differs from digest of seed:nonce")
	}
}

func TestCombinedSeedVector(t *testing.T) {
	got := CombinedSeed(vectorServerSeed, "candidate-hello", "42")
	want := "e1dddf77de27d395ea2be2ed49aa2a59bd6bf12ee8d350c16c008abd406c07e0"
	if got != want {
		t.Fatalf("CombinedSeed = %s, want %s", got, want)
	}
	if !hexDigest.MatchString(got) {
		t.Fatalf("CombinedSeed %q is not 64 lowercase hex chars", got)
	}
}

func TestCommitHashDependsOnNonce(t *testing.T) {
	seed := strings.Repeat("aaaa", 16)
	if CommitHash(seed, "1") == CommitHash(seed, "2") {
		t.Fatal("different nonces produced the same commit")
	}
}

func TestVerifyCommit(t *testing.T) {
	commit := CommitHash(vectorServerSeed, "42")

	tcs := []struct {
		name       string
		serverSeed string
		nonce      string
		want       bool
	}{
		{name: "matching", serverSeed: vectorServerSeed, nonce: "42", want: true},
		{name: "wrong nonce", serverSeed: vectorServerSeed, nonce: "43", want: false},
		{name: "swapped seed", serverSeed: strings.Repeat("0", 64), nonce: "42", want: false},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			if got := VerifyCommit(commit, tc.serverSeed, tc.nonce); got != tc.want {
				t.Errorf("VerifyCommit = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestRandomHex(t *testing.T) {
	src := bytes.NewReader([]byte{0x00, 0x01, 0xab, 0xff})
	got, err := RandomHex(src, 4)
	if err != nil {
		t.Fatalf("RandomHex returned error: %v", err)
	}
	if got != "0001abff" {
		t.Fatalf("RandomHex = %q, want 0001abff", got)
	}
}

func TestRandomHexErrors(t *testing.T) {
	if _, err := RandomHex(bytes.NewReader(nil), 0); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("RandomHex(0) error = %v, want invalid argument", err)
	}
	if _, err := RandomHex(bytes.NewReader([]byte{1, 2}), 4); err == nil {
		t.Error("RandomHex with a short source should fail")
	}
}
