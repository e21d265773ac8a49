package service

import (
	"context"
	"strconv"
	"time"

	"alerta_social/utils"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const presenceKeyPrefix = "online:"

// PresenceService mirrors live sessions into redis keys with a TTL so other
// processes can read who is online. A nil client turns every call into a no-op.
type PresenceService struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewPresenceService(rdb *redis.Client, ttl time.Duration) *PresenceService {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &PresenceService{rdb: rdb, ttl: ttl}
}

func presenceKey(userID uint) string {
	return presenceKeyPrefix + strconv.FormatUint(uint64(userID), 10)
}

// Enabled reports whether a redis client is configured.
func (s *PresenceService) Enabled() bool {
	return s != nil && s.rdb != nil
}

// MarkOnline sets (or refreshes) the presence key of userID.
func (s *PresenceService) MarkOnline(ctx context.Context, userID uint) {
	if !s.Enabled() {
		return
	}
	if err := s.rdb.Set(ctx, presenceKey(userID), "1", s.ttl).Err(); err != nil {
		utils.WithModule("presence").Warn("failed to set presence", zap.Uint("user_id", userID), zap.Error(err))
	}
}

// MarkOffline removes the presence key of userID.
func (s *PresenceService) MarkOffline(ctx context.Context, userID uint) {
	if !s.Enabled() {
		return
	}
	if err := s.rdb.Del(ctx, presenceKey(userID)).Err(); err != nil {
		utils.WithModule("presence").Warn("failed to clear presence", zap.Uint("user_id", userID), zap.Error(err))
	}
}

// IsOnline reads the presence key of userID.
func (s *PresenceService) IsOnline(ctx context.Context, userID uint) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	n, err := s.rdb.Exists(ctx, presenceKey(userID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
