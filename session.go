package accounts

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var _ Session = &SessionObject{}

// SessionObject is the concrete session handed to callers after a token has
// been validated. It carries no secrets, only claim material.
type SessionObject struct {
	AccountID      string         `json:"account_id,omitempty"`
	Audience       []string       `json:"audience,omitempty"`
	Issuer         string         `json:"issuer,omitempty"`
	IssuedAt       *time.Time     `json:"issued_at,omitempty"`
	ExpirationDate *time.Time     `json:"expiration_date,omitempty"`
	Data           map[string]any `json:"data,omitempty"`
}

func (s *SessionObject) GetAccountID() string {
	return s.AccountID
}

func (s *SessionObject) GetAccountUUID() (uuid.UUID, error) {
	return uuid.Parse(s.AccountID)
}

func (s *SessionObject) GetAudience() []string {
	return s.Audience
}

func (s *SessionObject) GetIssuer() string {
	return s.Issuer
}

func (s *SessionObject) GetIssuedAt() *time.Time {
	return s.IssuedAt
}

func (s *SessionObject) GetExpiration() *time.Time {
	return s.ExpirationDate
}

func (s *SessionObject) GetData() map[string]any {
	return s.Data
}

// GetRole returns the role carried in the session data, defaulting to the
// lowest role when absent.
func (s *SessionObject) GetRole() AccountRole {
	if s.Data != nil {
		if raw, ok := s.Data["role"]; ok {
			if str, ok := raw.(string); ok {
				if role, valid := ParseRole(str); valid {
					return role
				}
			}
		}
	}
	return RoleUser
}

func (s SessionObject) String() string {
	issuedAt := "<nil>"
	if s.IssuedAt != nil {
		issuedAt = s.IssuedAt.Format(time.RFC1123)
	}
	return fmt.Sprintf(
		"account=%s aud=%v iss=%s iat=%s data=%v",
		s.AccountID,
		s.Audience,
		s.Issuer,
		issuedAt,
		s.Data,
	)
}

// sessionFromAuthClaims builds a SessionObject from validated AuthClaims.
func sessionFromAuthClaims(claims AuthClaims) (*SessionObject, error) {
	if claims == nil {
		return nil, ErrUnableToParseData
	}

	data := map[string]any{
		"role": claims.Role(),
	}

	var audience []string
	var issuer string
	if jwtClaims, ok := claims.(*JWTClaims); ok {
		audience = append(audience, jwtClaims.RegisteredClaims.Audience...)
		issuer = jwtClaims.RegisteredClaims.Issuer
	}

	issuedAt := claims.IssuedAt()
	expiresAt := claims.Expires()

	session := &SessionObject{
		AccountID: claims.AccountID(),
		Audience:  audience,
		Issuer:    issuer,
		Data:      data,
	}

	if !issuedAt.IsZero() {
		session.IssuedAt = &issuedAt
	}

	if !expiresAt.IsZero() {
		session.ExpirationDate = &expiresAt
	}

	return session, nil
}

// sessionFromClaims builds a SessionObject from raw jwt.MapClaims, used when
// the middleware stored an unwrapped token in the request locals.
func sessionFromClaims(claims jwt.MapClaims) (*SessionObject, error) {
	if claims == nil {
		return nil, ErrUnableToMapClaims
	}

	session := &SessionObject{
		Data: map[string]any{},
	}

	if sub, err := claims.GetSubject(); err == nil {
		session.AccountID = sub
	}

	if uid, ok := claims["uid"].(string); ok && uid != "" {
		session.AccountID = uid
	}

	if session.AccountID == "" {
		return nil, ErrUnableToDecodeSession
	}

	if role, ok := claims["role"].(string); ok {
		session.Data["role"] = role
	}

	if iss, err := claims.GetIssuer(); err == nil {
		session.Issuer = iss
	}

	if aud, err := claims.GetAudience(); err == nil {
		session.Audience = append(session.Audience, aud...)
	}

	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		session.IssuedAt = &iat.Time
	}

	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		session.ExpirationDate = &exp.Time
	}

	return session, nil
}
