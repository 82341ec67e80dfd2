package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Vankh007/tv4u-sub002/internal/models"
)

var ErrGrantNotFound = errors.New("grant not found")

// GrantStore keeps issued playback grants for the capability's lifetime so
// the streaming edge can verify tokens. The redis TTL is the expiry
// mechanism; nothing is persisted past it.
type GrantStore struct {
	client *redis.Client
}

func NewGrantStore(client *redis.Client) *GrantStore {
	return &GrantStore{client: client}
}

func grantKey(token string) string {
	return fmt.Sprintf("grant:%s", token)
}

func (s *GrantStore) Save(ctx context.Context, grant models.Grant, ttl time.Duration) error {
	payload, err := json.Marshal(grant)
	if err != nil {
		return fmt.Errorf("marshal grant: %w", err)
	}
	if err := s.client.Set(ctx, grantKey(grant.Token), payload, ttl).Err(); err != nil {
		return fmt.Errorf("store grant: %w", err)
	}
	return nil
}

func (s *GrantStore) Get(ctx context.Context, token string) (models.Grant, error) {
	payload, err := s.client.Get(ctx, grantKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.Grant{}, ErrGrantNotFound
		}
		return models.Grant{}, fmt.Errorf("load grant: %w", err)
	}

	var grant models.Grant
	if err := json.Unmarshal(payload, &grant); err != nil {
		return models.Grant{}, fmt.Errorf("unmarshal grant: %w", err)
	}
	return grant, nil
}
