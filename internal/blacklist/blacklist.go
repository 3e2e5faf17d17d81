package blacklist

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// Strategy is the token revocation store. Add records a token as revoked
// until expiresAt (epoch milliseconds); IsBlacklisted answers membership.
// A lookup error must be treated as a failed authorization decision, never
// as "not revoked".
type Strategy interface {
	Add(ctx context.Context, token string, expiresAt int64) error
	IsBlacklisted(ctx context.Context, token string) (bool, error)
	PurgeExpired(ctx context.Context) error
}

// None disables revocation: logout is a no-op and nothing is ever
// reported revoked. Suitable only when access tokens are short enough
// that revocation is not required.
type None struct{}

func (None) Add(ctx context.Context, token string, expiresAt int64) error { return nil }

func (None) IsBlacklisted(ctx context.Context, token string) (bool, error) { return false, nil }

func (None) PurgeExpired(ctx context.Context) error { return nil }

// New selects a backend by mode: "none", "db" or "redis".
func New(mode string, db *gorm.DB, rdb *redis.Client) (Strategy, error) {
	switch mode {
	case "", "none":
		return None{}, nil
	case "db":
		if db == nil {
			return nil, fmt.Errorf("blacklist: db mode requires a database connection")
		}
		return NewDBStore(db), nil
	case "redis":
		if rdb == nil {
			return nil, fmt.Errorf("blacklist: redis mode requires a redis client")
		}
		return NewRedisStore(rdb), nil
	default:
		return nil, fmt.Errorf("blacklist: unknown mode %q", mode)
	}
}
