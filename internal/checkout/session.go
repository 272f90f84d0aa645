package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrNoPendingOrder = errors.New("no pending order in session")

// sessionTTL bounds how long an unpaid order stays addressable through the
// session slot. The order itself survives; only the "current checkout"
// marker expires.
const sessionTTL = 30 * time.Minute

// Session tracks each user's single in-flight checkout: the order built at
// checkout time that is still awaiting a payment submission.
type Session struct {
	client *redis.Client
}

func NewSession(client *redis.Client) *Session {
	return &Session{client: client}
}

func sessionKey(userID int64) string {
	return fmt.Sprintf("pending_order:%d", userID)
}

func (s *Session) SetPendingOrder(ctx context.Context, userID int64, orderID uuid.UUID) error {
	if err := s.client.Set(ctx, sessionKey(userID), orderID.String(), sessionTTL).Err(); err != nil {
		return fmt.Errorf("failed to set pending order: %w", err)
	}
	return nil
}

func (s *Session) PendingOrder(ctx context.Context, userID int64) (uuid.UUID, error) {
	val, err := s.client.Get(ctx, sessionKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, ErrNoPendingOrder
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to get pending order: %w", err)
	}
	id, err := uuid.Parse(val)
	if err != nil {
		// stale or corrupted slot, treat as absent
		s.Clear(ctx, userID)
		return uuid.Nil, ErrNoPendingOrder
	}
	return id, nil
}

// Clear is best effort, the TTL reaps stale slots.
func (s *Session) Clear(ctx context.Context, userID int64) {
	_ = s.client.Del(ctx, sessionKey(userID)).Err()
}
