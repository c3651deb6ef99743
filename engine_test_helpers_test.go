package goIdentity

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/goIdentity/account"
	"github.com/MrEthical07/goIdentity/otp"
	"github.com/MrEthical07/goIdentity/store/memstore"
	"go.uber.org/zap/zaptest"
)

const testPassword = "correct-horse-battery"

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type sentCode struct {
	to      account.Destination
	code    string
	purpose otp.Purpose
}

type recordingDeliverer struct {
	mu       sync.Mutex
	codes    []sentCode
	welcomes []string
	failWith error
}

func (d *recordingDeliverer) SendVerificationCode(_ context.Context, dst account.Destination, code string, purpose otp.Purpose) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failWith != nil {
		return d.failWith
	}
	d.codes = append(d.codes, sentCode{to: dst, code: code, purpose: purpose})
	return nil
}

func (d *recordingDeliverer) SendWelcome(_ context.Context, _ account.Destination, accountID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.welcomes = append(d.welcomes, accountID)
	return nil
}

func (d *recordingDeliverer) fail(err error) {
	d.mu.Lock()
	d.failWith = err
	d.mu.Unlock()
}

func (d *recordingDeliverer) lastCode(t *testing.T, address string, purpose otp.Purpose) string {
	t.Helper()
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := len(d.codes) - 1; i >= 0; i-- {
		if d.codes[i].to.Address == address && d.codes[i].purpose == purpose {
			return d.codes[i].code
		}
	}
	t.Fatalf("no %s code delivered to %s", purpose, address)
	return ""
}

func (d *recordingDeliverer) codeCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.codes)
}

func (d *recordingDeliverer) welcomeCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.welcomes)
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Token.AccessKey = "access-key-0123456789abcdef0123456789"
	cfg.Token.RefreshKey = "refresh-key-0123456789abcdef012345678"
	cfg.Token.Issuer = "identity-test"
	cfg.Token.Audience = "identity-test-api"
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.Account.EnumerationDelay = false
	return cfg
}

type testEnv struct {
	engine    *Engine
	store     AccountStore
	deliverer *recordingDeliverer
	clock     *testClock
}

func newTestEnv(t *testing.T, mutate ...func(*Config)) *testEnv {
	t.Helper()
	return newTestEnvWithStore(t, memstore.New(), mutate...)
}

func newTestEnvWithStore(t *testing.T, store AccountStore, mutate ...func(*Config)) *testEnv {
	t.Helper()

	cfg := testConfig()
	for _, fn := range mutate {
		fn(&cfg)
	}

	env := &testEnv{
		store:     store,
		deliverer: &recordingDeliverer{},
		clock:     newTestClock(),
	}
	engine, err := New().
		WithConfig(cfg).
		WithStore(store).
		WithDeliverer(env.deliverer).
		WithLogger(zaptest.NewLogger(t)).
		WithClock(env.clock.Now).
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	t.Cleanup(engine.Close)
	env.engine = engine
	return env
}

func (env *testEnv) signupEmail(t *testing.T, email string) SignupResult {
	t.Helper()
	res, err := env.engine.Signup(context.Background(), SignupRequest{
		Method:   account.MethodEmail,
		Email:    email,
		Password: testPassword,
	})
	if err != nil {
		t.Fatalf("Signup(%s) error = %v", email, err)
	}
	return res
}

// activeEmail signs up and verifies an email account.
func (env *testEnv) activeEmail(t *testing.T, email string) VerifyResult {
	t.Helper()
	res := env.signupEmail(t, email)
	code := env.deliverer.lastCode(t, res.PendingIdentifier, otp.PurposeVerification)
	out, err := env.engine.Verify(context.Background(), res.PendingIdentifier, code)
	if err != nil {
		t.Fatalf("Verify(%s) error = %v", email, err)
	}
	return out
}

// activePhone signs up and verifies a phone account.
func (env *testEnv) activePhone(t *testing.T, phone string) VerifyResult {
	t.Helper()
	res, err := env.engine.Signup(context.Background(), SignupRequest{
		Method: account.MethodPhone,
		Phone:  phone,
	})
	if err != nil {
		t.Fatalf("Signup(%s) error = %v", phone, err)
	}
	code := env.deliverer.lastCode(t, res.PendingIdentifier, otp.PurposeVerification)
	out, err := env.engine.Verify(context.Background(), res.PendingIdentifier, code)
	if err != nil {
		t.Fatalf("Verify(%s) error = %v", phone, err)
	}
	return out
}

func (env *testEnv) stored(t *testing.T, id string) *account.Account {
	t.Helper()
	a, err := env.store.FindByID(context.Background(), id)
	if err != nil {
		t.Fatalf("FindByID(%s) error = %v", id, err)
	}
	return a
}

var errSMTPDown = errors.New("smtp: connection refused")
