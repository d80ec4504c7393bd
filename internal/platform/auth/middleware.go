package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	UserIDKey    contextKey = "user_id"
	UserRolesKey contextKey = "user_roles"
	PrincipalKey contextKey = "principal"
)

// Roles known to the API. Admin passes every role check.
const (
	RoleAdmin        = "admin"
	RoleReceptionist = "receptionist"
	RoleDoctor       = "doctor"
	RoleNurse        = "nurse"
	RolePharmacist   = "pharmacist"
	RolePatient      = "patient"
)

// LegacyRoleHeader is the header the single-page front end sends to assert
// its role. It is honoured only by DevAuthMiddleware.
const LegacyRoleHeader = "role"

// Principal is the authenticated caller.
type Principal struct {
	UserID    string     `json:"user_id"`
	Username  string     `json:"username"`
	Role      string     `json:"role"`
	StaffID   *uuid.UUID `json:"staff_id,omitempty"`
	PatientID *uuid.UUID `json:"patient_id,omitempty"`
}

type Claims struct {
	jwt.RegisteredClaims
	Username  string `json:"username"`
	Role      string `json:"role"`
	StaffID   string `json:"staff_id,omitempty"`
	PatientID string `json:"patient_id,omitempty"`
}

type JWTConfig struct {
	Issuer     string
	SigningKey []byte
	TTL        time.Duration
	// Skipper lets public routes through without a token.
	Skipper func(c echo.Context) bool
}

// TokenIssuer signs session tokens for logged-in users.
type TokenIssuer struct {
	cfg JWTConfig
	now func() time.Time
}

func NewTokenIssuer(cfg JWTConfig) *TokenIssuer {
	if cfg.TTL <= 0 {
		cfg.TTL = 12 * time.Hour
	}
	return &TokenIssuer{cfg: cfg, now: time.Now}
}

// Issue returns a signed HS256 token for p and its expiry.
func (i *TokenIssuer) Issue(p Principal) (string, time.Time, error) {
	now := i.now()
	exp := now.Add(i.cfg.TTL)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UserID,
			Issuer:    i.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
		Username: p.Username,
		Role:     p.Role,
	}
	if p.StaffID != nil {
		claims.StaffID = p.StaffID.String()
	}
	if p.PatientID != nil {
		claims.PatientID = p.PatientID.String()
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.cfg.SigningKey)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, exp, nil
}

func parseToken(cfg JWTConfig, tokenStr string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return cfg.SigningKey, nil
	}, opts...)
	if err != nil || !token.Valid {
		return nil, err
	}
	return claims, nil
}

func (c *Claims) principal() Principal {
	p := Principal{UserID: c.Subject, Username: c.Username, Role: c.Role}
	if id, err := uuid.Parse(c.StaffID); err == nil {
		p.StaffID = &id
	}
	if id, err := uuid.Parse(c.PatientID); err == nil {
		p.PatientID = &id
	}
	return p
}

func bearerToken(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
	}
	return strings.TrimSpace(parts[1]), nil
}

func authenticate(cfg JWTConfig, c echo.Context) error {
	tokenStr, err := bearerToken(c)
	if err != nil {
		return err
	}
	claims, err := parseToken(cfg, tokenStr)
	if err != nil || claims == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}
	setPrincipal(c, claims.principal())
	return nil
}

func setPrincipal(c echo.Context, p Principal) {
	ctx := WithPrincipal(c.Request().Context(), p)
	c.SetRequest(c.Request().WithContext(ctx))
	c.Set("user_id", p.UserID)
	c.Set("role", p.Role)
}

// WithPrincipal returns ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, p.UserID)
	ctx = context.WithValue(ctx, UserRolesKey, []string{p.Role})
	return context.WithValue(ctx, PrincipalKey, p)
}

// JWTMiddleware requires a valid bearer token on every non-skipped route.
func JWTMiddleware(cfg JWTConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.Skipper != nil && cfg.Skipper(c) {
				return next(c)
			}
			if err := authenticate(cfg, c); err != nil {
				return err
			}
			return next(c)
		}
	}
}

// DevAuthMiddleware validates a bearer token when one is sent. Without one it
// trusts the legacy role header and rejects requests carrying neither with
// 403. Development only.
func DevAuthMiddleware(cfg JWTConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.Skipper != nil && cfg.Skipper(c) {
				return next(c)
			}
			if c.Request().Header.Get("Authorization") != "" {
				if err := authenticate(cfg, c); err != nil {
					return err
				}
				return next(c)
			}
			role := strings.ToLower(strings.TrimSpace(c.Request().Header.Get(LegacyRoleHeader)))
			if role == "" {
				return echo.NewHTTPError(http.StatusForbidden, "role header is required")
			}
			setPrincipal(c, Principal{UserID: "dev-" + role, Username: "dev-" + role, Role: role})
			return next(c)
		}
	}
}

func UserIDFromContext(ctx context.Context) string {
	uid, _ := ctx.Value(UserIDKey).(string)
	return uid
}

func RolesFromContext(ctx context.Context) []string {
	roles, _ := ctx.Value(UserRolesKey).([]string)
	return roles
}

// PrincipalFromContext returns the authenticated caller, if any.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(PrincipalKey).(Principal)
	return p, ok
}
