package services

import (
	"errors"
	"fmt"
	"time"

	"leadengine/internal/domain"
	"leadengine/internal/domain/models"
	"leadengine/internal/guard"
	"leadengine/internal/ratelimit"
	"leadengine/internal/utils"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	RoleAdmin = "admin"
	TokenTTL  = 24 * time.Hour
)

// LoginLimiter also forgets a client's history after a good login.
type LoginLimiter interface {
	guard.Limiter
	Reset(identifier string)
}

// AuthService authenticates the single admin account.
type AuthService struct {
	PasswordHash string
	Secret       []byte
	Limiter      LoginLimiter
	Security     guard.SecurityLogger
	RequestID    string
	Now          func() time.Time
}

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func (s AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Login checks password and returns a signed token with its expiry.
func (s AuthService) Login(password, fingerprint, userAgent string) (string, time.Time, error) {
	var id string
	if s.Limiter != nil {
		p := ratelimit.Login
		id = ratelimit.Identifier(fingerprint, p.Action)
		if res := s.Limiter.Check(id, p); !res.Allowed {
			s.report(models.EventRateLimitExceeded, models.SeverityMedium, fingerprint, userAgent, map[string]any{
				"action":       p.Action,
				"max_requests": p.MaxRequests,
				"window_ms":    p.Window.Milliseconds(),
			})
			return "", time.Time{}, domain.RateLimitedError{Action: p.Action}
		}
	}

	if s.PasswordHash == "" || len(s.Secret) == 0 {
		return "", time.Time{}, domain.InternalError{Msg: "admin login is not configured"}
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.PasswordHash), []byte(password)); err != nil {
		s.report(models.EventUnauthorizedAccess, models.SeverityMedium, fingerprint, userAgent, map[string]any{
			"reason": "invalid_password",
		})
		utils.LogEvent(s.RequestID, "auth", "login_failed", "fingerprint="+fingerprint)
		return "", time.Time{}, domain.UnauthorizedError{Msg: "invalid credentials"}
	}

	if s.Limiter != nil {
		s.Limiter.Reset(id)
	}

	now := s.now()
	exp := now.Add(TokenTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   RoleAdmin,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	signed, err := token.SignedString(s.Secret)
	if err != nil {
		return "", time.Time{}, domain.InternalError{Msg: "could not sign token", Err: err}
	}
	utils.LogEvent(s.RequestID, "auth", "login", "role="+RoleAdmin)
	return signed, exp, nil
}

// ParseToken validates an HS256 token and returns its claims.
func ParseToken(secret []byte, raw string) (Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, domain.UnauthorizedError{Msg: "token expired"}
		}
		return Claims{}, domain.UnauthorizedError{Msg: "invalid token"}
	}
	return claims, nil
}

func (s AuthService) report(t models.SecurityEventType, sev models.Severity, fp, ua string, details map[string]any) {
	if s.Security == nil {
		return
	}
	s.Security.Log(models.SecurityEvent{
		Type:        t,
		Severity:    sev,
		Details:     details,
		Fingerprint: fp,
		UserAgent:   ua,
		Timestamp:   s.now(),
	})
}
