package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	goIdentity "github.com/MrEthical07/goIdentity"
	"github.com/MrEthical07/goIdentity/account"
	"github.com/MrEthical07/goIdentity/logging"
	"github.com/MrEthical07/goIdentity/otp"
	"github.com/MrEthical07/goIdentity/store/redisstore"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const loadPassword = "load-test-password-1"

// inbox keeps the last verification code per address in memory.
type inbox struct {
	codes sync.Map
}

func (b *inbox) SendVerificationCode(_ context.Context, dst account.Destination, code string, _ otp.Purpose) error {
	b.codes.Store(dst.Address, code)
	return nil
}

func (b *inbox) SendWelcome(context.Context, account.Destination, string) error { return nil }

func (b *inbox) code(address string) string {
	v, _ := b.codes.Load(address)
	s, _ := v.(string)
	return s
}

type pending struct {
	email string
	code  string
}

func main() {
	var (
		accounts    = flag.Int("accounts", 2000, "number of accounts to sign up")
		concurrency = flag.Int("concurrency", 64, "number of concurrent workers")
		contenders  = flag.Int("contenders", 4, "concurrent Verify calls racing for each code")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "loadtest", "account key prefix")
		fastHash    = flag.Bool("fast-hash", true, "use minimal argon2id cost so hashing does not dominate")
		logLevel    = flag.String("log-level", "warn", "log level")
	)
	flag.Parse()

	if *accounts <= 0 || *concurrency <= 0 || *contenders <= 0 {
		fmt.Fprintln(os.Stderr, "accounts, concurrency, and contenders must be > 0")
		os.Exit(2)
	}

	logger, err := logging.New(logging.Config{Level: *logLevel})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	client, cleanup, err := openRedis(*redisAddr, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer cleanup()

	cfg, err := loadConfig(*fastHash)
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	box := &inbox{}
	engine, err := goIdentity.New().
		WithConfig(cfg).
		WithStore(redisstore.New(client, *prefix)).
		WithDeliverer(box).
		WithLogger(logger).
		Build()
	if err != nil {
		logger.Fatal("build engine", zap.Error(err))
	}
	defer engine.Close()

	ctx := context.Background()
	run := randomHex(4)
	users := make([]pending, *accounts)

	signupStats := runPhase(*accounts, *concurrency, func(i int) error {
		email := fmt.Sprintf("load-%s-%d@example.com", run, i)
		res, err := engine.Signup(ctx, goIdentity.SignupRequest{
			Method:   account.MethodEmail,
			Email:    email,
			Password: loadPassword,
		})
		if err != nil {
			return err
		}
		users[i] = pending{email: res.PendingIdentifier, code: box.code(res.PendingIdentifier)}
		return nil
	})

	var wins, losses, unexpected atomic.Int64
	refreshTokens := make([]string, *accounts)
	verifyStats := runPhase(*accounts, *concurrency, func(i int) error {
		u := users[i]
		if u.email == "" {
			return errors.New("signup did not complete")
		}
		var wg sync.WaitGroup
		tokens := make(chan string, *contenders)
		wg.Add(*contenders)
		for c := 0; c < *contenders; c++ {
			go func() {
				defer wg.Done()
				out, err := engine.Verify(ctx, u.email, u.code)
				switch {
				case err == nil:
					wins.Add(1)
					tokens <- out.Tokens.RefreshToken
				case errors.Is(err, goIdentity.ErrOTPInvalidOrExpired), errors.Is(err, goIdentity.ErrConflict):
					losses.Add(1)
				default:
					unexpected.Add(1)
				}
			}()
		}
		wg.Wait()
		close(tokens)
		n := 0
		for tok := range tokens {
			refreshTokens[i] = tok
			n++
		}
		if n != 1 {
			return fmt.Errorf("account %s: %d verification winners", u.email, n)
		}
		return nil
	})

	loginStats := runPhase(*accounts, *concurrency, func(i int) error {
		_, err := engine.Login(ctx, users[i].email, loadPassword)
		return err
	})

	refreshStats := runPhase(*accounts, *concurrency, func(i int) error {
		if refreshTokens[i] == "" {
			return errors.New("no refresh token")
		}
		_, err := engine.Refresh(ctx, refreshTokens[i])
		return err
	})

	fmt.Println("---- results ----")
	printStats("signup", signupStats)
	printStats("verify", verifyStats)
	printStats("login", loginStats)
	printStats("refresh", refreshStats)
	fmt.Printf("verify contention: winners=%d losers=%d unexpected=%d\n", wins.Load(), losses.Load(), unexpected.Load())

	if wins.Load() != int64(*accounts) || unexpected.Load() != 0 {
		fmt.Fprintln(os.Stderr, "single-winner verification violated")
		os.Exit(1)
	}
}

func openRedis(addr string, logger *zap.Logger) (redis.UniversalClient, func(), error) {
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			return nil, nil, fmt.Errorf("start miniredis: %w", err)
		}
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
		logger.Info("using miniredis", zap.String("addr", mr.Addr()))
		return client, func() {
			_ = client.Close()
			mr.Close()
		}, nil
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("ping %s: %w", addr, err)
	}
	logger.Info("using redis", zap.String("addr", addr))
	return client, func() { _ = client.Close() }, nil
}

// loadConfig reads IDENTITY_* settings and fills whatever a throwaway run
// needs but the environment leaves unset.
func loadConfig(fastHash bool) (goIdentity.Config, error) {
	cfg, err := goIdentity.ConfigFromEnv()
	if err != nil {
		return goIdentity.Config{}, err
	}
	if cfg.Token.AccessKey == "" {
		cfg.Token.AccessKey = randomHex(32)
	}
	if cfg.Token.RefreshKey == "" {
		cfg.Token.RefreshKey = randomHex(32)
	}
	if cfg.Token.Issuer == "" {
		cfg.Token.Issuer = "identity-loadtest"
	}
	if cfg.Token.Audience == "" {
		cfg.Token.Audience = "identity-loadtest"
	}
	if fastHash {
		cfg.Password.Algorithm = "argon2id"
		cfg.Password.Memory = 8 * 1024
		cfg.Password.Time = 1
		cfg.Password.Parallelism = 1
	}
	cfg.Account.EnumerationDelay = false
	cfg.Lockout.Enabled = false
	cfg.ProductionMode = false
	return cfg, nil
}

func randomHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func runPhase(n, concurrency int, op func(i int) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, n)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= n {
					return
				}
				t0 := time.Now()
				err := op(i)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	return samples[(len(samples)-1)*p/100]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
