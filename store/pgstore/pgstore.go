// Package pgstore persists accounts in PostgreSQL through a pgx pool.
//
// The pool is owned by the caller; Store never closes it. Uniqueness is
// enforced by table constraints and compare-and-swap by a version predicate
// on UPDATE, so both hold across processes sharing the database.
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/MrEthical07/goIdentity/account"
	"github.com/MrEthical07/goIdentity/otp"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultSchema = "identity"

var identRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Store implements account.Store over PostgreSQL.
type Store struct {
	pool   *pgxpool.Pool
	schema string
	table  string
}

// Option configures a Store.
type Option func(*Store) error

// WithSchema sets the schema holding the accounts table (default "identity").
func WithSchema(schema string) Option {
	return func(s *Store) error {
		schema = strings.TrimSpace(schema)
		if !identRe.MatchString(schema) {
			return fmt.Errorf("pgstore: invalid schema identifier %q", schema)
		}
		s.schema = schema
		return nil
	}
}

// New constructs a Store. It does not touch the database.
func New(pool *pgxpool.Pool, opts ...Option) (*Store, error) {
	if pool == nil {
		return nil, errors.New("pgstore: nil pool")
	}
	s := &Store{pool: pool, schema: defaultSchema}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.table = pgx.Identifier{s.schema, "accounts"}.Sanitize()
	return s, nil
}

// EnsureSchema creates the schema and accounts table when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	ddl := []string{
		`CREATE SCHEMA IF NOT EXISTS ` + pgx.Identifier{s.schema}.Sanitize(),
		`CREATE TABLE IF NOT EXISTS ` + s.table + ` (
			id              text PRIMARY KEY,
			first_name      text NOT NULL DEFAULT '',
			last_name       text NOT NULL DEFAULT '',
			email           text,
			phone           text,
			ext_provider    text,
			ext_subject     text,
			signup_method   text NOT NULL,
			credential_hash text,
			status          text NOT NULL,
			otp_code        text,
			otp_purpose     text,
			otp_expires_at  timestamptz,
			role            text NOT NULL,
			failed_logins   integer NOT NULL DEFAULT 0,
			blocked_until   timestamptz,
			version         bigint NOT NULL,
			created_at      timestamptz NOT NULL,
			updated_at      timestamptz NOT NULL,
			CONSTRAINT uq_accounts_email UNIQUE (email),
			CONSTRAINT uq_accounts_phone UNIQUE (phone),
			CONSTRAINT uq_accounts_external UNIQUE (ext_provider, ext_subject)
		)`,
	}
	for _, stmt := range ddl {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("%w: ensure schema: %v", account.ErrStoreUnavailable, err)
		}
	}
	return nil
}

const columns = `id, first_name, last_name, email, phone, ext_provider, ext_subject,
	signup_method, credential_hash, status, otp_code, otp_purpose, otp_expires_at,
	role, failed_logins, blocked_until, version, created_at, updated_at`

func (s *Store) Create(ctx context.Context, a *account.Account) error {
	r := toRow(a)
	_, err := s.pool.Exec(ctx,
		`INSERT INTO `+s.table+` (`+columns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		a.ID, a.FirstName, a.LastName, r.email, r.phone, r.extProvider, r.extSubject,
		a.Method.String(), r.credentialHash, a.Status.String(), r.otpCode, r.otpPurpose, r.otpExpiresAt,
		string(a.Role), a.FailedLogins, r.blockedUntil, int64(a.Version), a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return account.ErrDuplicate
		}
		return mapError(err)
	}
	return nil
}

func (s *Store) FindByID(ctx context.Context, id string) (*account.Account, error) {
	return s.findOne(ctx, `id = $1`, id)
}

func (s *Store) FindByEmail(ctx context.Context, email string) (*account.Account, error) {
	return s.findOne(ctx, `email = $1`, email)
}

func (s *Store) FindByPhone(ctx context.Context, phone string) (*account.Account, error) {
	return s.findOne(ctx, `phone = $1`, phone)
}

func (s *Store) FindByExternal(ctx context.Context, provider, subject string) (*account.Account, error) {
	return s.findOne(ctx, `ext_provider = $1 AND ext_subject = $2`, provider, subject)
}

// CompareAndSwap updates every mutable column when version and identity
// still match. A zero-row update is classified with a follow-up read.
func (s *Store) CompareAndSwap(ctx context.Context, a *account.Account, expected uint64) error {
	r := toRow(a)
	tag, err := s.pool.Exec(ctx,
		`UPDATE `+s.table+` SET
		   first_name = $2, last_name = $3, credential_hash = $4, status = $5,
		   otp_code = $6, otp_purpose = $7, otp_expires_at = $8, role = $9,
		   failed_logins = $10, blocked_until = $11, version = $12, updated_at = $13
		 WHERE id = $1 AND version = $14
		   AND email IS NOT DISTINCT FROM $15 AND phone IS NOT DISTINCT FROM $16
		   AND ext_provider IS NOT DISTINCT FROM $17 AND ext_subject IS NOT DISTINCT FROM $18`,
		a.ID, a.FirstName, a.LastName, r.credentialHash, a.Status.String(),
		r.otpCode, r.otpPurpose, r.otpExpiresAt, string(a.Role),
		a.FailedLogins, r.blockedUntil, int64(a.Version), a.UpdatedAt,
		int64(expected), r.email, r.phone, r.extProvider, r.extSubject,
	)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	cur, err := s.FindByID(ctx, a.ID)
	if err != nil {
		return err
	}
	if cur.Version != expected {
		return account.ErrVersionConflict
	}
	if !account.SameIdentity(cur, a) {
		return account.ErrImmutableIdentity
	}
	return account.ErrVersionConflict
}

func (s *Store) findOne(ctx context.Context, where string, args ...any) (*account.Account, error) {
	res := s.pool.QueryRow(ctx, `SELECT `+columns+` FROM `+s.table+` WHERE `+where, args...)

	var (
		r       row
		method  string
		status  string
		role    string
		version int64
		a       account.Account
	)
	err := res.Scan(
		&a.ID, &a.FirstName, &a.LastName, &r.email, &r.phone, &r.extProvider, &r.extSubject,
		&method, &r.credentialHash, &status, &r.otpCode, &r.otpPurpose, &r.otpExpiresAt,
		&role, &a.FailedLogins, &r.blockedUntil, &version, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrNotFound
		}
		return nil, mapError(err)
	}

	if a.Method, err = account.ParseSignupMethod(method); err != nil {
		return nil, fmt.Errorf("%w: %v", account.ErrStoreUnavailable, err)
	}
	if a.Status, err = account.ParseStatus(status); err != nil {
		return nil, fmt.Errorf("%w: %v", account.ErrStoreUnavailable, err)
	}
	a.Role = account.Role(role)
	a.Version = uint64(version)
	r.apply(&a)
	return &a, nil
}

// row holds the nullable columns.
type row struct {
	email          *string
	phone          *string
	extProvider    *string
	extSubject     *string
	credentialHash *string
	otpCode        *string
	otpPurpose     *string
	otpExpiresAt   *time.Time
	blockedUntil   *time.Time
}

func toRow(a *account.Account) row {
	var r row
	r.email = nullable(a.Email)
	r.phone = nullable(a.Phone)
	if a.External != nil {
		r.extProvider = nullable(a.External.Provider)
		r.extSubject = nullable(a.External.Subject)
	}
	r.credentialHash = nullable(a.CredentialHash)
	if a.OTP != nil {
		r.otpCode = nullable(a.OTP.Code)
		r.otpPurpose = nullable(string(a.OTP.Purpose))
		exp := a.OTP.ExpiresAt
		r.otpExpiresAt = &exp
	}
	if !a.BlockedUntil.IsZero() {
		until := a.BlockedUntil
		r.blockedUntil = &until
	}
	return r
}

func (r row) apply(a *account.Account) {
	a.Email = deref(r.email)
	a.Phone = deref(r.phone)
	if r.extProvider != nil && r.extSubject != nil {
		a.External = &account.ExternalIdentity{Provider: *r.extProvider, Subject: *r.extSubject}
	}
	a.CredentialHash = deref(r.credentialHash)
	if r.otpCode != nil && r.otpExpiresAt != nil {
		a.OTP = &otp.Challenge{Code: *r.otpCode, Purpose: otp.Purpose(deref(r.otpPurpose)), ExpiresAt: *r.otpExpiresAt}
	}
	if r.blockedUntil != nil {
		a.BlockedUntil = *r.blockedUntil
	}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func mapError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %v", account.ErrStoreUnavailable, err)
}
