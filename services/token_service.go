package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"raceday-api/models"
)

// TokenTTL is how long an issued bearer token stays valid
const TokenTTL = 7 * 24 * time.Hour

var ErrInvalidToken = errors.New("invalid or expired token")

type tokenClaims struct {
	RunnerID    uint   `json:"runner_id"`
	Fingerprint string `json:"fpr"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256 bearer tokens for API clients
// that do not keep the session cookie.
type TokenService struct {
	secret []byte
	clock  Clock
}

func NewTokenService(secret string, clock Clock) *TokenService {
	return &TokenService{secret: []byte(secret), clock: clock}
}

func (s *TokenService) Issue(runner *models.Runner) (string, error) {
	now := s.clock()
	claims := tokenClaims{
		RunnerID:    runner.ID,
		Fingerprint: runner.CredentialFingerprint(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   runner.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies a token and returns the credentials it was issued for.
// Whether they still match the runner is checked by RunnerService.ResolveActor.
func (s *TokenService) Parse(raw string) (Credentials, error) {
	var claims tokenClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.clock),
		jwt.WithExpirationRequired(),
	)
	if err != nil || claims.RunnerID == 0 || claims.Fingerprint == "" {
		return Credentials{}, ErrInvalidToken
	}
	return Credentials{RunnerID: claims.RunnerID, Fingerprint: claims.Fingerprint}, nil
}
