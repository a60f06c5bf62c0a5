package repository

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultSecret signs demo tokens when no secret is configured.
const DefaultSecret = "absensi-demo-secret"

type studentClaims struct {
	StudentID string `json:"sid"`
	Nonce     string `json:"nonce"`
	jwt.RegisteredClaims
}

// SignToken issues the QR payload of a student card: an HS256 token carrying
// the student id and a random nonce.
func SignToken(secret []byte, studentID int64, issuedAt time.Time) (string, error) {
	claims := studentClaims{
		StudentID: strconv.FormatInt(studentID, 10),
		Nonce:     uuid.NewString(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(issuedAt),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return s, nil
}

// VerifyToken checks a token's signature and returns the student id it
// carries.
func VerifyToken(secret []byte, token string) (int64, error) {
	var claims studentClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.Nonce == "" || claims.IssuedAt == nil {
		return 0, fmt.Errorf("%w: missing claims", ErrInvalidToken)
	}
	id, err := strconv.ParseInt(claims.StudentID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: sid %q", ErrInvalidToken, claims.StudentID)
	}
	return id, nil
}
