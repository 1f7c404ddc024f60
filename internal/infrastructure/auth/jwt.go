package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/spendwise/spendwise/internal/application/tenancy"
	"github.com/spendwise/spendwise/internal/shared/biztime"
)

// Claims is the session token body. TenantSID is empty for operators.
type Claims struct {
	TenantSID string `json:"tenant_id,omitempty"`
	Role      string `json:"role,omitempty"`
	Operator  bool   `json:"operator,omitempty"`
	jwt.RegisteredClaims
}

// SessionClaims converts verified claims to the extractor's input.
func (c *Claims) SessionClaims() *tenancy.SessionClaims {
	return &tenancy.SessionClaims{
		UserSID:   c.Subject,
		TenantSID: c.TenantSID,
		Role:      c.Role,
		Operator:  c.Operator,
	}
}

// Session is an issued token with its expiry.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

type JWTService struct {
	secret  []byte
	expDays int
	issuer  string
	now     func() time.Time
}

func NewJWTService(secret string, sessionExpDays int, issuer string) *JWTService {
	if sessionExpDays <= 0 {
		sessionExpDays = 7
	}
	return &JWTService{
		secret:  []byte(secret),
		expDays: sessionExpDays,
		issuer:  issuer,
		now:     biztime.NowUTC,
	}
}

// Issue signs a session for userSID. tenantSID is empty for operators.
func (s *JWTService) Issue(userSID, tenantSID, role string, operator bool) (*Session, error) {
	if userSID == "" {
		return nil, fmt.Errorf("subject is required")
	}
	if !operator && tenantSID == "" {
		return nil, fmt.Errorf("member session requires a tenant")
	}

	now := s.now()
	exp := now.Add(time.Duration(s.expDays) * 24 * time.Hour)
	claims := &Claims{
		TenantSID: tenantSID,
		Role:      role,
		Operator:  operator,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userSID,
			Issuer:    s.issuer,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign session token: %w", err)
	}
	return &Session{Token: token, ExpiresAt: exp}, nil
}

// IssueSession is Issue for callers that only need the token and its expiry.
func (s *JWTService) IssueSession(userSID, tenantSID, role string, operator bool) (string, time.Time, error) {
	sess, err := s.Issue(userSID, tenantSID, role, operator)
	if err != nil {
		return "", time.Time{}, err
	}
	return sess.Token, sess.ExpiresAt, nil
}

// Verify checks signature, algorithm, issuer and expiry.
func (s *JWTService) Verify(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, fmt.Errorf("invalid token")
	}
	if !claims.Operator && claims.TenantSID == "" {
		return nil, fmt.Errorf("invalid token: member session without tenant")
	}
	return claims, nil
}
