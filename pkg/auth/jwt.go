package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims scope a request to one organization and the staff member acting in it.
type Claims struct {
	OrganizationID uuid.UUID `json:"org_id"`
	StaffID        uuid.UUID `json:"staff_id"`
	jwt.RegisteredClaims
}

// TokenService issues and validates tenant-scope tokens.
type TokenService interface {
	Issue(orgID, staffID uuid.UUID) (string, error)
	Validate(token string) (*Claims, error)
}

type hmacTokenService struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenService(secret, issuer string, ttl time.Duration) TokenService {
	return &hmacTokenService{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

func (s *hmacTokenService) Issue(orgID, staffID uuid.UUID) (string, error) {
	now := s.now()
	claims := Claims{
		OrganizationID: orgID,
		StaffID:        staffID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   staffID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (s *hmacTokenService) Validate(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.OrganizationID == uuid.Nil {
		return nil, fmt.Errorf("%w: missing org_id", ErrInvalidToken)
	}
	return claims, nil
}
