package utils

import (
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/shoppingapp/usersapi/models"
)

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	UserID    string      `json:"userId"`
	Email     string      `json:"email"`
	Role      models.Role `json:"role"`
	TokenType string      `json:"tokenType"`
	jwt.RegisteredClaims
}

type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// JWTOptions carries base64 encoded HMAC secrets. The *Old secrets are still
// accepted for verification so keys can be rotated without logging everyone out.
type JWTOptions struct {
	AccessSecret     string
	AccessSecretOld  string
	RefreshSecret    string
	RefreshSecretOld string
	AccessTTL        time.Duration
	RefreshTTL       time.Duration
	Issuer           string
}

type signingKeys struct {
	current []byte
	old     []byte
}

type JWTManager struct {
	access     signingKeys
	refresh    signingKeys
	accessTTL  time.Duration
	refreshTTL time.Duration
	issuer     string
	now        func() time.Time
}

func NewJWTManager(opts JWTOptions) (*JWTManager, error) {
	access, err := decodeKeys(opts.AccessSecret, opts.AccessSecretOld)
	if err != nil {
		return nil, fmt.Errorf("access secret: %w", err)
	}
	refresh, err := decodeKeys(opts.RefreshSecret, opts.RefreshSecretOld)
	if err != nil {
		return nil, fmt.Errorf("refresh secret: %w", err)
	}
	return &JWTManager{
		access:     access,
		refresh:    refresh,
		accessTTL:  opts.AccessTTL,
		refreshTTL: opts.RefreshTTL,
		issuer:     opts.Issuer,
		now:        time.Now,
	}, nil
}

func decodeKeys(current, old string) (signingKeys, error) {
	var keys signingKeys
	var err error
	keys.current, err = base64.StdEncoding.DecodeString(current)
	if err != nil {
		return keys, err
	}
	if len(keys.current) == 0 {
		return keys, errors.New("empty secret")
	}
	if old != "" {
		keys.old, err = base64.StdEncoding.DecodeString(old)
		if err != nil {
			return keys, err
		}
	}
	return keys, nil
}

func (m *JWTManager) SetClock(now func() time.Time) {
	m.now = now
}

func (m *JWTManager) AccessTTL() time.Duration {
	return m.accessTTL
}

func (m *JWTManager) keys(tokenType string) signingKeys {
	if tokenType == REFRESH_TYPE {
		return m.refresh
	}
	return m.access
}

// Sign signs claims with the current key of their token type and stamps the
// registered claims for ttl.
func (m *JWTManager) Sign(claims Claims, ttl time.Duration) (string, time.Time, error) {
	now := m.now()
	expires := now.Add(ttl)
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    m.issuer,
		Subject:   claims.UserID,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(m.keys(claims.TokenType).current)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expires, nil
}

func (m *JWTManager) IssuePair(user models.User) (TokenPair, error) {
	var pair TokenPair
	var err error
	base := Claims{UserID: user.ID, Email: user.Email, Role: user.Role}

	access := base
	access.TokenType = ACCESS_TYPE
	pair.AccessToken, pair.AccessExpiresAt, err = m.Sign(access, m.accessTTL)
	if err != nil {
		return pair, err
	}
	refresh := base
	refresh.TokenType = REFRESH_TYPE
	pair.RefreshToken, pair.RefreshExpiresAt, err = m.Sign(refresh, m.refreshTTL)
	if err != nil {
		return pair, err
	}
	return pair, nil
}

func (m *JWTManager) parse(tokenString string, key []byte) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Verify accepts tokens signed with the current or the previous key of the
// given token type.
func (m *JWTManager) Verify(tokenType, tokenString string) (*Claims, error) {
	keys := m.keys(tokenType)
	claims, err := m.parse(tokenString, keys.current)
	if err != nil && keys.old != nil {
		claims, err = m.parse(tokenString, keys.old)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.TokenType != tokenType {
		return nil, fmt.Errorf("%w: unexpected token type %q", ErrInvalidToken, claims.TokenType)
	}
	return claims, nil
}
