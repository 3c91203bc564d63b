package fairness

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
)

// RoundStatus is the lifecycle position of a round.
type RoundStatus string

const (
	StatusCommitted RoundStatus = "committed"
	StatusCompleted RoundStatus = "completed"
	StatusRevealed  RoundStatus = "revealed"
)

// CanAdvanceTo reports whether next directly follows s. Rounds move strictly
// committed -> completed -> revealed.
func (s RoundStatus) CanAdvanceTo(next RoundStatus) bool {
	switch s {
	case StatusCommitted:
		return next == StatusCompleted
	case StatusCompleted:
		return next == StatusRevealed
	default:
		return false
	}
}

// Advance returns next if the transition is allowed, ErrInvalidState otherwise.
func (s RoundStatus) Advance(next RoundStatus) (RoundStatus, error) {
	if !s.CanAdvanceTo(next) {
		return s, fmt.Errorf("%w: cannot move from %q to %q", ErrInvalidState, s, next)
	}
	return next, nil
}

// nonceSpace bounds generated nonces to six decimal digits.
const nonceSpace = 1_000_000

// Commitment is the operator's pledge for one round. CommitHash and Nonce are
// published immediately; ServerSeed stays private until reveal.
type Commitment struct {
	ServerSeed string
	Nonce      string
	CommitHash string
}

// Outcome is what a play produces. The server seed is not part of it.
type Outcome struct {
	CombinedSeed     string
	Result           *GameResult
	PayoutMultiplier float64
}

// Protocol runs commit, play, reveal and verification. The random source is
// only used for server seeds and generated nonces.
type Protocol struct {
	rand io.Reader
}

// NewProtocol returns a protocol drawing server seeds from r. A nil r uses
// crypto/rand.
func NewProtocol(r io.Reader) *Protocol {
	if r == nil {
		r = rand.Reader
	}
	return &Protocol{rand: r}
}

// Commit draws a fresh server seed and commits to it. An empty nonce is
// replaced by a random decimal nonce.
func (p *Protocol) Commit(nonce string) (*Commitment, error) {
	serverSeed, err := RandomHex(p.rand, ServerSeedBytes)
	if err != nil {
		return nil, fmt.Errorf("generate server seed: %w", err)
	}

	if nonce == "" {
		nonce, err = p.randomNonce()
		if err != nil {
			return nil, fmt.Errorf("generate nonce: %w", err)
		}
	}

	return &Commitment{
		ServerSeed: serverSeed,
		Nonce:      nonce,
		CommitHash: CommitHash(serverSeed, nonce),
	}, nil
}

func (p *Protocol) randomNonce() (string, error) {
	var b [8]byte
	if _, err := io.ReadFull(p.rand, b[:]); err != nil {
		return "", err
	}
	return strconv.FormatUint(binary.BigEndian.Uint64(b[:])%nonceSpace, 10), nil
}

// Play binds the client seed to the commitment and computes the round.
func (p *Protocol) Play(c *Commitment, clientSeed string, dropColumn int) (*Outcome, error) {
	if clientSeed == "" {
		return nil, ErrEmptyClientSeed
	}
	if err := ValidateDropColumn(dropColumn); err != nil {
		return nil, err
	}

	combined := CombinedSeed(c.ServerSeed, clientSeed, c.Nonce)
	result, err := GenerateGameResult(combined, dropColumn)
	if err != nil {
		return nil, err
	}

	return &Outcome{
		CombinedSeed:     combined,
		Result:           result,
		PayoutMultiplier: PayoutMultiplier(result.BinIndex),
	}, nil
}

// Reveal discloses the server seed of a played round.
func (p *Protocol) Reveal(c *Commitment) string {
	return c.ServerSeed
}

// VerifyRequest carries everything a third party needs to recompute a round.
// Expected values are optional; nil or empty ones are not compared.
type VerifyRequest struct {
	ServerSeed         string
	ClientSeed         string
	Nonce              string
	DropColumn         int
	ExpectedBinIndex   *int
	ExpectedPegMapHash string
	ExpectedCommitHash string
}

// VerifyReport is the recomputed round plus the comparison verdicts.
type VerifyReport struct {
	IsVerified     bool       `json:"is_verified"`
	CommitHash     string     `json:"commit_hash"`
	CommitVerified *bool      `json:"commit_verified,omitempty"`
	CombinedSeed   string     `json:"combined_seed"`
	BinIndex       int        `json:"bin_index"`
	PegMapHash     string     `json:"peg_map_hash"`
	Path           []PathStep `json:"path"`
}

// Verify recomputes commit hash, combined seed and game result from the
// revealed inputs. A mismatch is reported through IsVerified, not as an error;
// only unusable inputs fail.
func Verify(req VerifyRequest) (*VerifyReport, error) {
	if err := ValidateDropColumn(req.DropColumn); err != nil {
		return nil, err
	}

	commitHash := CommitHash(req.ServerSeed, req.Nonce)
	combined := CombinedSeed(req.ServerSeed, req.ClientSeed, req.Nonce)

	result, err := GenerateGameResult(combined, req.DropColumn)
	if err != nil {
		return nil, err
	}

	report := &VerifyReport{
		IsVerified:   true,
		CommitHash:   commitHash,
		CombinedSeed: combined,
		BinIndex:     result.BinIndex,
		PegMapHash:   result.PegMapHash,
		Path:         result.Path,
	}

	if req.ExpectedBinIndex != nil && *req.ExpectedBinIndex != result.BinIndex {
		report.IsVerified = false
	}
	if req.ExpectedPegMapHash != "" && req.ExpectedPegMapHash != result.PegMapHash {
		report.IsVerified = false
	}
	if req.ExpectedCommitHash != "" {
		ok := VerifyCommit(req.ExpectedCommitHash, req.ServerSeed, req.Nonce)
		report.CommitVerified = &ok
		if !ok {
			report.IsVerified = false
		}
	}

	return report, nil
}
