package fairness

import (
	"encoding/json"
	"fmt"
	"math"
)

const (
	// Rows is the number of peg rows on the board.
	Rows = 12
	// Bins is the number of landing bins, one more than the row count.
	Bins = Rows + 1

	baseBiasMin = 0.4
	baseBiasMax = 0.6
	biasFloor   = 0.35
	biasCeil    = 0.65
	biasStep    = 0.01
	centerCol   = Rows / 2
)

// Direction is the way the ball leaves a peg.
type Direction string

const (
	DirectionLeft  Direction = "L"
	DirectionRight Direction = "R"
)

// PegBias is the probability that the ball moves left at (Row, Col).
// Field order is fixed: it defines the serialization that PegMapHash covers.
type PegBias struct {
	Row      int     `json:"row"`
	Col      int     `json:"col"`
	LeftBias float64 `json:"leftBias"`
}

// PathStep records a single decision of a drop.
type PathStep struct {
	Row       int       `json:"row"`
	Col       int       `json:"col"`
	Direction Direction `json:"direction"`
	Bias      float64   `json:"bias"`
	RandValue float64   `json:"randValue"`
}

// GameResult is the full outcome of one round. It is built in one call and
// never modified afterwards.
type GameResult struct {
	BinIndex   int        `json:"binIndex"`
	Path       []PathStep `json:"path"`
	PegMap     PegMap     `json:"pegMap"`
	PegMapHash string     `json:"pegMapHash"`
}

// RightMoves counts the right-going steps of the path.
func (r *GameResult) RightMoves() int {
	n := 0
	for _, step := range r.Path {
		if step.Direction == DirectionRight {
			n++
		}
	}
	return n
}

// PegMap is the triangular bias lattice in generation order: row-major,
// columns ascending. Peg (row, col) lives at index row*(row+1)/2 + col.
type PegMap []PegBias

func pegIndex(row, col int) int {
	return row*(row+1)/2 + col
}

// At returns the peg at (row, col).
func (m PegMap) At(row, col int) (PegBias, error) {
	if row < 0 || col < 0 || col > row {
		return PegBias{}, fmt.Errorf("%w: no peg at row %d col %d", ErrInvariantViolation, row, col)
	}
	idx := pegIndex(row, col)
	if idx >= len(m) {
		return PegBias{}, fmt.Errorf("%w: no peg at row %d col %d", ErrInvariantViolation, row, col)
	}
	peg := m[idx]
	if peg.Row != row || peg.Col != col {
		return PegBias{}, fmt.Errorf("%w: peg index %d holds row %d col %d, want row %d col %d",
			ErrInvariantViolation, idx, peg.Row, peg.Col, row, col)
	}
	return peg, nil
}

// Hash returns the SHA-256 of the compact JSON array of the map. Floats use the
// shortest round-trip representation, so independent implementations that
// serialize the same values agree byte-for-byte.
func (m PegMap) Hash() (string, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("%w: encode peg map: %v", ErrInvariantViolation, err)
	}
	return Digest(data), nil
}

// ValidateDropColumn checks that dropColumn lies in [0, Rows].
func ValidateDropColumn(dropColumn int) error {
	if dropColumn < 0 || dropColumn > Rows {
		return fmt.Errorf("%w: got %d", ErrInvalidDropColumn, dropColumn)
	}
	return nil
}

// GeneratePegMap draws one base bias per peg and skews it by the drop column
// and the peg's offset from the row centre. It consumes exactly
// Rows*(Rows+1)/2 values from g.
func GeneratePegMap(g *Generator, dropColumn int) PegMap {
	pegMap := make(PegMap, 0, Rows*(Rows+1)/2)
	dropBias := float64(float64(dropColumn-centerCol) * biasStep)

	for row := 0; row < Rows; row++ {
		for col := 0; col <= row; col++ {
			leftBias := g.NextFloat(baseBiasMin, baseBiasMax)

			positionBias := float64((float64(col) - float64(row)/2) * biasStep)
			leftBias += dropBias + positionBias
			leftBias = math.Max(biasFloor, math.Min(biasCeil, leftBias))

			pegMap = append(pegMap, PegBias{Row: row, Col: col, LeftBias: leftBias})
		}
	}

	return pegMap
}

// SimulateDrop walks the ball from the lattice apex down all rows, drawing one
// value per row from g. The ball goes left when the draw is below the peg's
// left bias; a right move shifts it one column. The final column is the bin.
func SimulateDrop(g *Generator, pegMap PegMap) ([]PathStep, int, error) {
	path := make([]PathStep, 0, Rows)
	col := 0

	for row := 0; row < Rows; row++ {
		peg, err := pegMap.At(row, col)
		if err != nil {
			return nil, 0, err
		}

		randValue := g.Next()
		goesLeft := randValue < peg.LeftBias
		direction := DirectionLeft
		if !goesLeft {
			direction = DirectionRight
		}

		path = append(path, PathStep{
			Row:       row,
			Col:       col,
			Direction: direction,
			Bias:      peg.LeftBias,
			RandValue: randValue,
		})

		if !goesLeft {
			col++
		}
	}

	return path, col, nil
}

// GenerateGameResult computes the complete outcome for a combined seed and
// drop column.
//
// # Ordering
//
// The peg map and the drop share one generator: the map consumes the first
// 78 draws, the drop the following 12. Changing this order changes every
// historical result.
func GenerateGameResult(combinedSeedHex string, dropColumn int) (*GameResult, error) {
	if err := ValidateDropColumn(dropColumn); err != nil {
		return nil, err
	}

	g, err := NewGenerator(combinedSeedHex)
	if err != nil {
		return nil, err
	}

	pegMap := GeneratePegMap(g, dropColumn)
	pegMapHash, err := pegMap.Hash()
	if err != nil {
		return nil, err
	}

	path, binIndex, err := SimulateDrop(g, pegMap)
	if err != nil {
		return nil, err
	}

	return &GameResult{
		BinIndex:   binIndex,
		Path:       path,
		PegMap:     pegMap,
		PegMapHash: pegMapHash,
	}, nil
}

// VerifyGameResult recomputes the result and compares bin and peg map hash.
// It never fails: any error during recomputation reports false.
func VerifyGameResult(combinedSeedHex string, dropColumn, expectedBinIndex int, expectedPegMapHash string) bool {
	result, err := GenerateGameResult(combinedSeedHex, dropColumn)
	if err != nil {
		return false
	}
	return result.BinIndex == expectedBinIndex && result.PegMapHash == expectedPegMapHash
}
