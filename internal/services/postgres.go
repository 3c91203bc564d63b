package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"plinko-backend/internal/fairness"
	"plinko-backend/internal/models"
)

const (
	archiveTable = "plinko_rounds"

	colID               = "id"
	colPlayerID         = "player_id"
	colStatus           = "status"
	colServerSeed       = "server_seed"
	colNonce            = "nonce"
	colCommitHash       = "commit_hash"
	colClientSeed       = "client_seed"
	colCombinedSeed     = "combined_seed"
	colRows             = "rows"
	colDropColumn       = "drop_column"
	colBinIndex         = "bin_index"
	colPayoutMultiplier = "payout_multiplier"
	colBetCents         = "bet_cents"
	colWinAmount        = "win_amount"
	colPath             = "path"
	colPegMapHash       = "peg_map_hash"
	colCreatedAt        = "created_at"
	colCompletedAt      = "completed_at"
	colRevealedAt       = "revealed_at"
)

var archiveColumns = []string{
	colID, colPlayerID, colStatus, colServerSeed, colNonce, colCommitHash,
	colClientSeed, colCombinedSeed, colRows, colDropColumn, colBinIndex,
	colPayoutMultiplier, colBetCents, colWinAmount, colPath, colPegMapHash,
	colCreatedAt, colCompletedAt, colRevealedAt,
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresArchive keeps revealed rounds after they expire from the live store.
type PostgresArchive struct {
	pool *pgxpool.Pool
}

func NewPostgresArchive(ctx context.Context, databaseURL string) (*PostgresArchive, error) {
	log.Println("Connecting to PostgreSQL...")

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	poolConfig.MaxConns = 10
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	archive := &PostgresArchive{pool: pool}
	if err := archive.InitSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	log.Println("PostgreSQL archive ready")
	return archive, nil
}

func (a *PostgresArchive) InitSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS plinko_rounds (
		id TEXT PRIMARY KEY,
		player_id TEXT NOT NULL,
		status TEXT NOT NULL,
		server_seed TEXT NOT NULL,
		nonce TEXT NOT NULL,
		commit_hash TEXT NOT NULL,
		client_seed TEXT NOT NULL,
		combined_seed TEXT NOT NULL,
		rows INTEGER NOT NULL,
		drop_column INTEGER NOT NULL,
		bin_index INTEGER NOT NULL,
		payout_multiplier DOUBLE PRECISION NOT NULL,
		bet_cents BIGINT NOT NULL,
		win_amount BIGINT NOT NULL,
		path JSONB NOT NULL,
		peg_map_hash TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		completed_at TIMESTAMPTZ,
		revealed_at TIMESTAMPTZ
	);

	CREATE INDEX IF NOT EXISTS idx_plinko_rounds_player ON plinko_rounds(player_id, created_at DESC);
	`

	if _, err := a.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create plinko_rounds table: %w", err)
	}
	return nil
}

func (a *PostgresArchive) Ping(ctx context.Context) error {
	return a.pool.Ping(ctx)
}

func (a *PostgresArchive) Close() {
	if a.pool != nil {
		log.Println("Closing PostgreSQL connection...")
		a.pool.Close()
	}
}

// ArchiveRound upserts a round. Archiving the same round twice is harmless.
func (a *PostgresArchive) ArchiveRound(ctx context.Context, round *models.Round) error {
	path, err := json.Marshal(round.Path)
	if err != nil {
		return fmt.Errorf("failed to marshal path: %w", err)
	}

	query := psql.Insert(archiveTable).
		Columns(archiveColumns...).
		Values(
			round.ID, round.PlayerID, string(round.Status), round.ServerSeed, round.Nonce, round.CommitHash,
			round.ClientSeed, round.CombinedSeed, round.Rows, round.DropColumn, round.BinIndex,
			round.PayoutMultiplier, round.BetCents, round.WinAmount, path, round.PegMapHash,
			round.CreatedAt, round.CompletedAt, round.RevealedAt,
		).
		Suffix("ON CONFLICT (" + colID + ") DO UPDATE SET " +
			colStatus + " = EXCLUDED." + colStatus + ", " +
			colRevealedAt + " = EXCLUDED." + colRevealedAt)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return err
	}

	if _, err := a.pool.Exec(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("failed to archive round %s: %w", round.ID, err)
	}
	return nil
}

func (a *PostgresArchive) GetArchivedRound(ctx context.Context, roundID string) (*models.Round, error) {
	query := psql.Select(archiveColumns...).
		From(archiveTable).
		Where(sq.Eq{colID: roundID})

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var (
		round  models.Round
		status string
		path   []byte
	)
	err = a.pool.QueryRow(ctx, sqlStr, args...).Scan(
		&round.ID, &round.PlayerID, &status, &round.ServerSeed, &round.Nonce, &round.CommitHash,
		&round.ClientSeed, &round.CombinedSeed, &round.Rows, &round.DropColumn, &round.BinIndex,
		&round.PayoutMultiplier, &round.BetCents, &round.WinAmount, &path, &round.PegMapHash,
		&round.CreatedAt, &round.CompletedAt, &round.RevealedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRoundNotFound, roundID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load archived round: %w", err)
	}

	round.Status = fairness.RoundStatus(status)
	if err := json.Unmarshal(path, &round.Path); err != nil {
		return nil, fmt.Errorf("failed to unmarshal path: %w", err)
	}
	return &round, nil
}

// DeleteArchivedRound removes a round from the archive.
func (a *PostgresArchive) DeleteArchivedRound(ctx context.Context, roundID string) error {
	sqlStr, args, err := psql.Delete(archiveTable).Where(sq.Eq{colID: roundID}).ToSql()
	if err != nil {
		return err
	}
	_, err = a.pool.Exec(ctx, sqlStr, args...)
	return err
}
