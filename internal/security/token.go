package security

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenService wraps creation and validation of the access/refresh token
// pair. Both are HS256 JWTs carrying the user id and email; they are signed
// with independent secrets so a leaked access secret cannot mint refresh
// tokens.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewTokenService(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

// CreateAccessToken creates a short-lived access token for the given user.
func (t *TokenService) CreateAccessToken(userID int64, email string) (string, error) {
	return t.create(userID, email, t.accessSecret, t.accessTTL)
}

// CreateRefreshToken creates a long-lived renewal token for the given user.
func (t *TokenService) CreateRefreshToken(userID int64, email string) (string, error) {
	return t.create(userID, email, t.refreshSecret, t.refreshTTL)
}

func (t *TokenService) create(userID int64, email string, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"userId": userID,
		"email":  email,
		"iat":    now.Unix(),
		"exp":    now.Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ParseAccess validates an access token and returns its claims.
func (t *TokenService) ParseAccess(tokenStr string) (jwt.MapClaims, error) {
	return parse(tokenStr, t.accessSecret)
}

// ParseRefresh validates a refresh token and returns its claims.
func (t *TokenService) ParseRefresh(tokenStr string) (jwt.MapClaims, error) {
	return parse(tokenStr, t.refreshSecret)
}

func parse(tokenStr string, secret []byte) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrSignatureInvalid
	}
	if claims, ok := token.Claims.(jwt.MapClaims); ok {
		return claims, nil
	}
	return nil, jwt.ErrTokenMalformed
}

// UserIDFromClaims extracts the userId claim. JSON numbers decode as
// float64, so the claim has to be converted back.
func UserIDFromClaims(claims jwt.MapClaims) (int64, bool) {
	switch v := claims["userId"].(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	}
	return 0, false
}
