package test

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	goIdentity "github.com/MrEthical07/goIdentity"
	"github.com/MrEthical07/goIdentity/account"
	"github.com/MrEthical07/goIdentity/otp"
	"github.com/MrEthical07/goIdentity/store/memstore"
	"github.com/MrEthical07/goIdentity/store/pgstore"
	"github.com/MrEthical07/goIdentity/store/redisstore"
	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const testPassword = "integration-password-1"

// storeMode names one AccountStore backend the suite runs against.
// memstore and miniredis always run. A real Redis is added when REDIS_ADDR
// is set and Postgres when IDENTITY_DATABASE_URL is set.
type storeMode struct {
	name  string
	setup func(t *testing.T) goIdentity.AccountStore
}

func storeModes(t *testing.T) []storeMode {
	t.Helper()
	modes := []storeMode{
		{
			name: "memstore",
			setup: func(t *testing.T) goIdentity.AccountStore {
				return memstore.New()
			},
		},
		{
			name: "miniredis",
			setup: func(t *testing.T) goIdentity.AccountStore {
				t.Helper()
				mr, err := miniredis.Run()
				if err != nil {
					t.Fatalf("miniredis: %v", err)
				}
				rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
				t.Cleanup(func() {
					_ = rdb.Close()
					mr.Close()
				})
				return redisstore.New(rdb, "it")
			},
		},
	}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		modes = append(modes, storeMode{
			name: "redis:" + addr,
			setup: func(t *testing.T) goIdentity.AccountStore {
				t.Helper()
				rdb := redis.NewClient(&redis.Options{Addr: addr})
				ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
				defer cancel()
				if err := rdb.Ping(ctx).Err(); err != nil {
					t.Skipf("cannot connect to Redis at %s: %v", addr, err)
				}
				t.Cleanup(func() { _ = rdb.Close() })
				return redisstore.New(rdb, "it-"+randomSuffix())
			},
		})
	}

	if dsn := strings.TrimSpace(os.Getenv("IDENTITY_DATABASE_URL")); dsn != "" {
		modes = append(modes, storeMode{
			name: "postgres",
			setup: func(t *testing.T) goIdentity.AccountStore {
				t.Helper()
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				pool, err := pgxpool.New(ctx, dsn)
				if err != nil {
					t.Fatalf("connect postgres: %v", err)
				}
				t.Cleanup(pool.Close)
				if err := pool.Ping(ctx); err != nil {
					t.Skipf("Postgres unreachable: %v", err)
				}
				schema := "identity_it_" + randomSuffix()
				s, err := pgstore.New(pool, pgstore.WithSchema(schema))
				if err != nil {
					t.Fatalf("pgstore.New: %v", err)
				}
				if err := s.EnsureSchema(ctx); err != nil {
					t.Fatalf("EnsureSchema: %v", err)
				}
				t.Cleanup(func() {
					_, _ = pool.Exec(context.Background(), `DROP SCHEMA IF EXISTS `+pgx.Identifier{schema}.Sanitize()+` CASCADE`)
				})
				return s
			},
		})
	}
	return modes
}

func randomSuffix() string {
	var b [4]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}

// inbox captures delivered codes by address.
type inbox struct {
	mu       sync.Mutex
	codes    map[string]string
	welcomes map[string]int
}

func newInbox() *inbox {
	return &inbox{codes: map[string]string{}, welcomes: map[string]int{}}
}

func (b *inbox) SendVerificationCode(_ context.Context, dst account.Destination, code string, purpose otp.Purpose) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.codes[string(purpose)+":"+dst.Address] = code
	return nil
}

func (b *inbox) SendWelcome(_ context.Context, _ account.Destination, accountID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.welcomes[accountID]++
	return nil
}

func (b *inbox) code(t *testing.T, purpose otp.Purpose, address string) string {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	code, ok := b.codes[string(purpose)+":"+address]
	if !ok {
		t.Fatalf("no %s code for %s", purpose, address)
	}
	return code
}

func (b *inbox) welcomeCount(accountID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.welcomes[accountID]
}

func integrationConfig() goIdentity.Config {
	cfg := goIdentity.DefaultConfig()
	cfg.Token.AccessKey = "integration-access-key-0123456789abcdef"
	cfg.Token.RefreshKey = "integration-refresh-key-0123456789abcdef"
	cfg.Token.Issuer = "identity-it"
	cfg.Token.Audience = "identity-it-api"
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.Account.EnumerationDelay = false
	cfg.Metrics.Enabled = true
	return cfg
}

func newEngine(t *testing.T, store goIdentity.AccountStore, box *inbox) *goIdentity.Engine {
	t.Helper()
	engine, err := goIdentity.New().
		WithConfig(integrationConfig()).
		WithStore(store).
		WithDeliverer(box).
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}
