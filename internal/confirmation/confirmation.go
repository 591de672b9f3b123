// Package confirmation issues short-lived tokens that bind an irreversible
// admin action to the exact entity version the admin previewed.
package confirmation

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"github.com/smallbiznis/rendezvous/internal/apperror"
	"github.com/smallbiznis/rendezvous/internal/clock"
	"github.com/smallbiznis/rendezvous/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	issuer     = "rendezvous.governance"
	DefaultTTL = 5 * time.Minute
)

var (
	ErrTokenMissing  = fmt.Errorf("%w: confirmation token missing", apperror.ErrConfirmationRequired)
	ErrTokenInvalid  = fmt.Errorf("%w: confirmation token invalid", apperror.ErrConfirmationRequired)
	ErrTokenMismatch = fmt.Errorf("%w: confirmation token does not match this action", apperror.ErrConfirmationRequired)
)

var Module = fx.Module("confirmation",
	fx.Provide(NewFromConfig),
)

type Claims struct {
	Action  string `json:"act"`
	Version int64  `json:"ver"`
	Actor   string `json:"actor"`
	jwt.RegisteredClaims
}

type Issuer struct {
	secret []byte
	ttl    time.Duration
	clock  clock.Clock
}

func NewIssuer(secret []byte, ttl time.Duration, clk clock.Clock) *Issuer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &Issuer{secret: secret, ttl: ttl, clock: clk}
}

// NewFromConfig falls back to a per-process random secret when none is
// configured, so tokens do not survive a restart.
func NewFromConfig(cfg config.Config, clk clock.Clock, log *zap.Logger) (*Issuer, error) {
	secret := []byte(cfg.Confirmation.Secret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, err
		}
		log.Named("confirmation").Warn("CONFIRMATION_SECRET not set, using ephemeral secret")
	}
	return NewIssuer(secret, cfg.Confirmation.TTL, clk), nil
}

func (i *Issuer) Issue(subject, action string, version int64, actor string) (string, time.Time, error) {
	now := i.clock.Now()
	expiresAt := now.Add(i.ttl)
	claims := Claims{
		Action:  action,
		Version: version,
		Actor:   actor,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        ulid.Make().String(),
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Verify checks signature, expiry and binding. The version claim is returned
// for the caller to compare against the current entity version.
func (i *Issuer) Verify(token, subject, action, actor string) (*Claims, error) {
	if token == "" {
		return nil, ErrTokenMissing
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.clock.Now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: confirmation token expired", apperror.ErrConfirmationRequired)
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.Subject != subject || claims.Action != action || claims.Actor != actor {
		return nil, ErrTokenMismatch
	}
	return claims, nil
}
