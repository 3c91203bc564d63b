package fairness

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
)

// ServerSeedBytes is the amount of entropy drawn for a fresh server seed.
const ServerSeedBytes = 32

// Digest returns the lowercase hex SHA-256 of input.
func Digest(input []byte) string {
	sum := sha256.Sum256(input)
	return hex.EncodeToString(sum[:])
}

func DigestString(s string) string {
	return Digest([]byte(s))
}

// RandomHex reads byteLength bytes from r and hex-encodes them.
// It is only used for server seeds and never inside the deterministic path.
func RandomHex(r io.Reader, byteLength int) (string, error) {
	if byteLength <= 0 {
		return "", fmt.Errorf("%w: byte length must be positive, got %d", ErrInvalidArgument, byteLength)
	}
	buf := make([]byte, byteLength)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// CommitHash is SHA256("serverSeed:nonce"). The separator and field order are
// part of the published commitment format.
func CommitHash(serverSeed, nonce string) string {
	return DigestString(serverSeed + ":" + nonce)
}

// CombinedSeed is SHA256("serverSeed:clientSeed:nonce").
func CombinedSeed(serverSeed, clientSeed, nonce string) string {
	return DigestString(serverSeed + ":" + clientSeed + ":" + nonce)
}

// VerifyCommit reports whether commitHash was produced from serverSeed and nonce.
func VerifyCommit(commitHash, serverSeed, nonce string) bool {
	return CommitHash(serverSeed, nonce) == commitHash
}
