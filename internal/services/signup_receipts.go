package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/terraincognita07/detailsync/internal/models"
)

const (
	signupReceiptPurpose    = "signup_receipt"
	DefaultSignupReceiptTTL = 7 * 24 * time.Hour
)

var (
	ErrReceiptMissing = errors.New("missing signup receipt")
	ErrReceiptInvalid = errors.New("invalid signup receipt")
	ErrReceiptExpired = errors.New("expired signup receipt")
)

type SignupReceiptClaims struct {
	Purpose string      `json:"purpose"`
	Plan    models.Plan `json:"plan"`
	jwt.RegisteredClaims
}

// ReceiptIssuer signs short receipts that let a client look up its own
// sign-up without a session.
type ReceiptIssuer struct {
	secretKey []byte
	ttl       time.Duration
	now       func() time.Time
}

func NewReceiptIssuer(secretKey []byte, ttl time.Duration) *ReceiptIssuer {
	if ttl <= 0 {
		ttl = DefaultSignupReceiptTTL
	}
	return &ReceiptIssuer{secretKey: secretKey, ttl: ttl, now: time.Now}
}

func (issuer *ReceiptIssuer) Issue(userID string, plan models.Plan) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", fmt.Errorf("%w: empty user id", ErrReceiptInvalid)
	}

	now := issuer.now()
	claims := SignupReceiptClaims{
		Purpose: signupReceiptPurpose,
		Plan:    plan,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    "detailsync",
			ExpiresAt: jwt.NewNumericDate(now.Add(issuer.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(issuer.secretKey)
}

func (issuer *ReceiptIssuer) Parse(rawToken string) (*SignupReceiptClaims, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, ErrReceiptMissing
	}

	claims := &SignupReceiptClaims{}
	token, err := jwt.ParseWithClaims(rawToken, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return issuer.secretKey, nil
	}, jwt.WithTimeFunc(issuer.now), jwt.WithExpirationRequired())
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, ErrReceiptExpired
	}
	if err != nil || !token.Valid {
		return nil, ErrReceiptInvalid
	}
	if claims.Purpose != signupReceiptPurpose || strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrReceiptInvalid
	}
	return claims, nil
}
