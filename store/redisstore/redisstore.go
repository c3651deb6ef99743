// Package redisstore persists accounts in Redis.
//
// Each account is a hash holding its version (`v`), identity key (`ident`)
// and JSON document (`doc`). Email, phone and external identities are
// indexed by plain string keys pointing at the account ID. Create and
// CompareAndSwap run as Lua scripts, so uniqueness checks and version
// comparisons are atomic with the write they guard.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/MrEthical07/goIdentity/account"
	"github.com/redis/go-redis/v9"
)

// createLua inserts an account and its index keys when none exist.
// KEYS[1] = account hash key, KEYS[2..] = index keys
// ARGV[1] = account id, ARGV[2] = version, ARGV[3] = identity key, ARGV[4] = document
var createLua = redis.NewScript(`
for i = 1, #KEYS do
  if redis.call('EXISTS', KEYS[i]) == 1 then
    return {err='duplicate'}
  end
end
redis.call('HSET', KEYS[1], 'v', ARGV[2], 'ident', ARGV[3], 'doc', ARGV[4])
for i = 2, #KEYS do
  redis.call('SET', KEYS[i], ARGV[1])
end
return 1
`)

// casLua replaces the document when the stored version matches.
// KEYS[1] = account hash key
// ARGV[1] = expected version, ARGV[2] = new version, ARGV[3] = identity key, ARGV[4] = document
var casLua = redis.NewScript(`
local cur = redis.call('HMGET', KEYS[1], 'v', 'ident')
if not cur[1] then
  return {err='not_found'}
end
if cur[1] ~= ARGV[1] then
  return {err='version_conflict'}
end
if cur[2] ~= ARGV[3] then
  return {err='identity_immutable'}
end
redis.call('HSET', KEYS[1], 'v', ARGV[2], 'doc', ARGV[4])
return 1
`)

// Store implements account.Store over a redis.UniversalClient.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// New returns a Store whose keys are namespaced under prefix ("gid" when empty).
func New(client redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = "gid"
	}
	return &Store{redis: client, prefix: prefix}
}

func (s *Store) accountKey(id string) string  { return s.prefix + ":acct:" + id }
func (s *Store) emailKey(email string) string { return s.prefix + ":email:" + email }
func (s *Store) phoneKey(phone string) string { return s.prefix + ":phone:" + phone }
func (s *Store) externalKey(provider, subject string) string {
	return s.prefix + ":ext:" + provider + ":" + subject
}

func (s *Store) indexKeys(a *account.Account) []string {
	var keys []string
	if a.Email != "" {
		keys = append(keys, s.emailKey(a.Email))
	}
	if a.Phone != "" {
		keys = append(keys, s.phoneKey(a.Phone))
	}
	if a.External != nil {
		keys = append(keys, s.externalKey(a.External.Provider, a.External.Subject))
	}
	return keys
}

func (s *Store) Create(ctx context.Context, a *account.Account) error {
	doc, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("redisstore: encode account: %w", err)
	}

	keys := append([]string{s.accountKey(a.ID)}, s.indexKeys(a)...)
	err = createLua.Run(ctx, s.redis, keys, a.ID, a.Version, a.IdentityKey(), doc).Err()
	return mapScriptError(err)
}

func (s *Store) FindByID(ctx context.Context, id string) (*account.Account, error) {
	doc, err := s.redis.HGet(ctx, s.accountKey(id), "doc").Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, account.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", account.ErrStoreUnavailable, err)
	}

	var a account.Account
	if err := json.Unmarshal(doc, &a); err != nil {
		return nil, fmt.Errorf("%w: decode account %s: %v", account.ErrStoreUnavailable, id, err)
	}
	return &a, nil
}

func (s *Store) FindByEmail(ctx context.Context, email string) (*account.Account, error) {
	return s.findIndexed(ctx, s.emailKey(email))
}

func (s *Store) FindByPhone(ctx context.Context, phone string) (*account.Account, error) {
	return s.findIndexed(ctx, s.phoneKey(phone))
}

func (s *Store) FindByExternal(ctx context.Context, provider, subject string) (*account.Account, error) {
	return s.findIndexed(ctx, s.externalKey(provider, subject))
}

func (s *Store) CompareAndSwap(ctx context.Context, a *account.Account, expected uint64) error {
	doc, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("redisstore: encode account: %w", err)
	}

	err = casLua.Run(ctx, s.redis,
		[]string{s.accountKey(a.ID)},
		strconv.FormatUint(expected, 10),
		strconv.FormatUint(a.Version, 10),
		a.IdentityKey(),
		doc,
	).Err()
	return mapScriptError(err)
}

func (s *Store) findIndexed(ctx context.Context, indexKey string) (*account.Account, error) {
	id, err := s.redis.Get(ctx, indexKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, account.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", account.ErrStoreUnavailable, err)
	}
	return s.FindByID(ctx, id)
}

func mapScriptError(err error) error {
	if err == nil {
		return nil
	}
	switch err.Error() {
	case "duplicate":
		return account.ErrDuplicate
	case "not_found":
		return account.ErrNotFound
	case "version_conflict":
		return account.ErrVersionConflict
	case "identity_immutable":
		return account.ErrImmutableIdentity
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %v", account.ErrStoreUnavailable, err)
}
