package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"plinko-backend/internal/config"
	"plinko-backend/internal/fairness"
	"plinko-backend/internal/models"

	"github.com/redis/go-redis/v9"
)

type RedisService struct {
	client *redis.Client
}

func NewRedisService(cfg *config.Config) (*RedisService, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisService{client: client}, nil
}

func (s *RedisService) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisService) Close() error {
	return s.client.Close()
}

func (s *RedisService) StoreSession(ctx context.Context, session *models.PlayerSession, ttl time.Duration) error {
	key := fmt.Sprintf(KeyPlayerSession, session.PlayerID, session.SessionID)

	data, err := json.Marshal(session)
	if err != nil {
		return err
	}

	return s.client.Set(ctx, key, data, ttl).Err()
}

func (s *RedisService) GetSession(ctx context.Context, playerID, sessionID string) (*models.PlayerSession, error) {
	key := fmt.Sprintf(KeyPlayerSession, playerID, sessionID)

	data, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var session models.PlayerSession
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	session.LastAccessed = time.Now()
	if updated, err := json.Marshal(session); err == nil {
		s.client.Set(ctx, key, updated, redis.KeepTTL)
	}

	return &session, nil
}

func (s *RedisService) DeleteSession(ctx context.Context, playerID, sessionID string) error {
	key := fmt.Sprintf(KeyPlayerSession, playerID, sessionID)
	return s.client.Del(ctx, key).Err()
}

func (s *RedisService) SaveRound(ctx context.Context, round *models.Round, ttl time.Duration) error {
	key := fmt.Sprintf(KeyRound, round.ID)

	data, err := json.Marshal(round)
	if err != nil {
		return fmt.Errorf("failed to marshal round: %w", err)
	}

	created, err := s.client.SetNX(ctx, key, data, ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to save round: %w", err)
	}
	if !created {
		return fmt.Errorf("%w: %s", ErrRoundExists, round.ID)
	}

	return nil
}

func (s *RedisService) GetRound(ctx context.Context, roundID string) (*models.Round, error) {
	key := fmt.Sprintf(KeyRound, roundID)

	data, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrRoundNotFound, roundID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get round: %w", err)
	}

	var round models.Round
	if err := json.Unmarshal([]byte(data), &round); err != nil {
		return nil, fmt.Errorf("failed to unmarshal round: %w", err)
	}

	return &round, nil
}

// transitionRoundScript replaces a round only while its stored status equals
// ARGV[1]. Returns 1 on success, 0 when the key is missing and -1 when the
// status moved on.
var transitionRoundScript = redis.NewScript(`
	local key = KEYS[1]
	local expected = ARGV[1]

	local data = redis.call("GET", key)
	if not data then
		return 0
	end

	local round = cjson.decode(data)
	if round.status ~= expected then
		return -1
	end

	redis.call("SET", key, ARGV[2], "EX", ARGV[3])
	return 1
`)

func (s *RedisService) TransitionRound(ctx context.Context, round *models.Round, from fairness.RoundStatus, ttl time.Duration) error {
	key := fmt.Sprintf(KeyRound, round.ID)

	data, err := json.Marshal(round)
	if err != nil {
		return fmt.Errorf("failed to marshal round: %w", err)
	}

	res, err := transitionRoundScript.Run(ctx, s.client, []string{key}, string(from), data, durationToSeconds(ttl)).Int()
	if err != nil {
		return fmt.Errorf("failed to transition round: %w", err)
	}

	switch res {
	case 1:
		return nil
	case 0:
		return fmt.Errorf("%w: %s", ErrRoundNotFound, round.ID)
	default:
		return fmt.Errorf("%w: round %s is no longer %s", fairness.ErrInvalidState, round.ID, from)
	}
}

func (s *RedisService) NextNonce(ctx context.Context) (int64, error) {
	n, err := s.client.Incr(ctx, KeyNonceCounter).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to allocate nonce: %w", err)
	}
	return n, nil
}

// AddToHistory records the round in the player's history. The history key
// lives for ttl after the newest round, matching that round's own lifetime.
func (s *RedisService) AddToHistory(ctx context.Context, playerID, roundID string, at time.Time, ttl time.Duration) error {
	key := fmt.Sprintf(KeyPlayerHistory, playerID)

	if err := s.client.ZAdd(ctx, key, redis.Z{
		Score:  float64(at.UnixMilli()),
		Member: roundID,
	}).Err(); err != nil {
		return fmt.Errorf("failed to add to round history: %w", err)
	}

	// Keep only the newest rounds
	s.client.ZRemRangeByRank(ctx, key, 0, -(MaxHistoryRounds + 1))
	if ttl <= 0 {
		ttl = TTLRound
	}
	s.client.Expire(ctx, key, ttl)

	return nil
}

func (s *RedisService) GetRoundHistory(ctx context.Context, playerID string, limit int64) ([]*models.Round, error) {
	limit = clampHistoryLimit(limit)

	key := fmt.Sprintf(KeyPlayerHistory, playerID)
	roundIDs, err := s.client.ZRevRange(ctx, key, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get round ids: %w", err)
	}
	if len(roundIDs) == 0 {
		return []*models.Round{}, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(roundIDs))
	for i, roundID := range roundIDs {
		cmds[i] = pipe.Get(ctx, fmt.Sprintf(KeyRound, roundID))
	}

	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("pipeline execution failed: %w", err)
	}

	rounds := make([]*models.Round, 0, len(cmds))
	for _, cmd := range cmds {
		data, err := cmd.Result()
		if err != nil {
			continue
		}

		var round models.Round
		if err := json.Unmarshal([]byte(data), &round); err != nil {
			continue
		}
		rounds = append(rounds, &round)
	}

	return rounds, nil
}

func (s *RedisService) CheckRateLimit(ctx context.Context, playerID, action string, limit int, window time.Duration) (bool, error) {
	key := fmt.Sprintf(KeyRateLimit, playerID, action)

	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit: %w", err)
	}

	if count == 1 {
		s.client.Expire(ctx, key, window)
	}

	return count <= int64(limit), nil
}

// DeleteRound removes a live round and its history entry.
func (s *RedisService) DeleteRound(ctx context.Context, playerID, roundID string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, fmt.Sprintf(KeyRound, roundID))
	pipe.ZRem(ctx, fmt.Sprintf(KeyPlayerHistory, playerID), roundID)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisService) ClearRateLimit(ctx context.Context, playerID, action string) error {
	return s.client.Del(ctx, fmt.Sprintf(KeyRateLimit, playerID, action)).Err()
}

func durationToSeconds(d time.Duration) string {
	if d < time.Second {
		d = time.Second
	}
	return fmt.Sprintf("%.0f", d.Seconds())
}

func clampHistoryLimit(limit int64) int64 {
	if limit <= 0 || limit > MaxHistoryRounds {
		return DefaultHistoryRounds
	}
	return limit
}
