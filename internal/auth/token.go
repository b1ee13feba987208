package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token kinds. Every token carries a "type" claim and verification rejects
// a token presented to an endpoint expecting the other kind.
const (
	TokenKindUser    = "user"
	TokenKindService = "service"
)

var (
	// ErrTokenInvalid covers bad signatures, malformed tokens and wrong kinds.
	ErrTokenInvalid = errors.New("token invalid")
	// ErrTokenExpired is returned when the exp claim is in the past.
	ErrTokenExpired = errors.New("token expired")
)

// UserClaims is the payload of an access token issued to a person. The
// permission set inside is the merged role + custom set computed at issuance.
type UserClaims struct {
	ID          uint64   `json:"id"`
	Email       string   `json:"email"`
	UserType    string   `json:"userType"`
	Permissions []string `json:"permissions"`
	Type        string   `json:"type"`
	jwt.RegisteredClaims
}

// ServiceClaims is the payload of a service-to-service token minted from
// client credentials.
type ServiceClaims struct {
	ServiceID   uint64   `json:"serviceId"`
	ClientID    string   `json:"clientId"`
	ServiceName string   `json:"serviceName"`
	Scopes      []string `json:"scopes"`
	Type        string   `json:"type"`
	jwt.RegisteredClaims
}

// IssueUserToken signs an HS256 access token for a user. The permissions
// argument should already be the merged set from MergePermissions.
func IssueUserToken(secret string, id uint64, email, userType string, permissions []string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := UserClaims{
		ID:          id,
		Email:       email,
		UserType:    userType,
		Permissions: permissions,
		Type:        TokenKindUser,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// IssueServiceToken signs an HS256 token for a service account.
func IssueServiceToken(secret string, serviceID uint64, clientID, serviceName string, scopes []string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := ServiceClaims{
		ServiceID:   serviceID,
		ClientID:    clientID,
		ServiceName: serviceName,
		Scopes:      scopes,
		Type:        TokenKindService,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// VerifyUserToken validates signature and expiry and enforces the user kind.
func VerifyUserToken(secret, raw string) (*UserClaims, error) {
	var claims UserClaims
	if err := parse(secret, raw, &claims); err != nil {
		return nil, err
	}
	if claims.Type != TokenKindUser {
		return nil, ErrTokenInvalid
	}
	return &claims, nil
}

// VerifyServiceToken validates signature and expiry and enforces the
// service kind.
func VerifyServiceToken(secret, raw string) (*ServiceClaims, error) {
	var claims ServiceClaims
	if err := parse(secret, raw, &claims); err != nil {
		return nil, err
	}
	if claims.Type != TokenKindService {
		return nil, ErrTokenInvalid
	}
	return &claims, nil
}

func parse(secret, raw string, claims jwt.Claims) error {
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return ErrTokenInvalid
	}
	if !tok.Valid {
		return ErrTokenInvalid
	}
	return nil
}

// PeekExpiry decodes a token without verifying its signature and returns the
// exp claim, or nil when absent or undecodable. Because the signature is not
// checked the value is forgeable; it exists for display purposes (e.g. a UI
// session countdown) and must never feed an authorization decision.
func PeekExpiry(raw string) *time.Time {
	var claims jwt.MapClaims = map[string]interface{}{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil
	}
	expAt, err := claims.GetExpirationTime()
	if err != nil || expAt == nil {
		return nil
	}
	t := expAt.Time
	return &t
}

// TokenKind decodes the type claim without verification. Like PeekExpiry it
// is a weak, display-only signal.
func TokenKind(raw string) string {
	var claims jwt.MapClaims = map[string]interface{}{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return ""
	}
	kind, _ := claims["type"].(string)
	return kind
}
