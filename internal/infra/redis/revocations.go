package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Revocations keeps signed-out token ids until the token would have expired anyway.
//
//	SET auth:revoked:{jti} 1 PX {ttl}
type Revocations struct {
	client *redis.Client
	clock  func() time.Time
}

func NewRevocations(client *redis.Client) *Revocations {
	return &Revocations{client: client, clock: time.Now}
}

func (r *Revocations) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := until.Sub(r.clock())
	if ttl <= 0 {
		return nil
	}
	return r.client.Set(ctx, revokedKey(tokenID), "1", ttl).Err()
}

func (r *Revocations) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.client.Exists(ctx, revokedKey(tokenID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func revokedKey(tokenID string) string {
	return "auth:revoked:" + tokenID
}
