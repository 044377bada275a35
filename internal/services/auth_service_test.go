package services

import (
	"testing"
	"time"

	"leadengine/internal/domain"
	"leadengine/internal/domain/models"
	"leadengine/internal/ratelimit"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

func newAuth(t *testing.T, sec *recordingLog) AuthService {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	svc := AuthService{
		PasswordHash: string(hash),
		Secret:       []byte("test-secret"),
		Limiter:      ratelimit.New(),
	}
	if sec != nil {
		svc.Security = sec
	}
	return svc
}

func TestLoginIssuesAdminToken(t *testing.T) {
	svc := newAuth(t, &recordingLog{})
	token, exp, err := svc.Login("s3cret", "fp", "ua")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d := time.Until(exp); d < 23*time.Hour || d > 25*time.Hour {
		t.Fatalf("unexpected expiry %v", exp)
	}
	claims, err := ParseToken(svc.Secret, token)
	if err != nil {
		t.Fatalf("token does not parse: %v", err)
	}
	if claims.Role != RoleAdmin {
		t.Fatalf("role = %q", claims.Role)
	}
	if _, err := ParseToken([]byte("other"), token); !domain.IsUnauthorized(err) {
		t.Fatalf("wrong secret should be rejected, got %v", err)
	}
}

func TestLoginWrongPasswordIsLogged(t *testing.T) {
	sec := &recordingLog{}
	svc := newAuth(t, sec)
	if _, _, err := svc.Login("guess", "fp", "ua"); !domain.IsUnauthorized(err) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if !sec.has(models.EventUnauthorizedAccess) {
		t.Fatalf("failed login not logged")
	}
}

func TestLoginRateLimitedAfterFiveAttempts(t *testing.T) {
	sec := &recordingLog{}
	svc := newAuth(t, sec)
	for i := 0; i < 5; i++ {
		if _, _, err := svc.Login("guess", "fp", "ua"); !domain.IsUnauthorized(err) {
			t.Fatalf("attempt %d: expected unauthorized, got %v", i+1, err)
		}
	}
	if _, _, err := svc.Login("s3cret", "fp", "ua"); !domain.IsRateLimited(err) {
		t.Fatalf("expected rate limit even with the right password, got %v", err)
	}
	if !sec.has(models.EventRateLimitExceeded) {
		t.Fatalf("rate limit not logged")
	}
	if _, _, err := svc.Login("s3cret", "other-client", "ua"); err != nil {
		t.Fatalf("other client should be unaffected: %v", err)
	}
}

func TestLoginSuccessResetsHistory(t *testing.T) {
	svc := newAuth(t, nil)
	for i := 0; i < 4; i++ {
		_, _, _ = svc.Login("guess", "fp", "ua")
	}
	if _, _, err := svc.Login("s3cret", "fp", "ua"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, _, err := svc.Login("guess", "fp", "ua"); !domain.IsUnauthorized(err) {
		t.Fatalf("history should have been cleared, got %v", err)
	}
}

func TestParseTokenRejectsExpiredAndOtherAlgorithms(t *testing.T) {
	secret := []byte("test-secret")
	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	raw, err := expired.SignedString(secret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := ParseToken(secret, raw); !domain.IsUnauthorized(err) {
		t.Fatalf("expired token accepted: %v", err)
	}

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Role: RoleAdmin})
	raw, err = none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	if _, err := ParseToken(secret, raw); !domain.IsUnauthorized(err) {
		t.Fatalf("unsigned token accepted: %v", err)
	}
}
