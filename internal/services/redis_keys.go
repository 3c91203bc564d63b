package services

import "time"

const (
	KeyPlayerSession = "player:%s:session:%s"
	KeyRound         = "round:%s"
	KeyPlayerHistory = "player:%s:rounds"
	KeyNonceCounter  = "rounds:nonce"
	KeyRateLimit     = "ratelimit:%s:%s"

	TTLPlayerSession = 24 * time.Hour
	TTLRound         = 7 * 24 * time.Hour // 7 days

	MaxHistoryRounds     = 100
	DefaultHistoryRounds = 50

	DefaultRateLimitRounds = 30 // Max 30 commits or starts per minute
)
