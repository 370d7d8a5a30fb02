package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/isdelr/portal-be/internal/api/respond"
	"github.com/isdelr/portal-be/internal/models"
	"github.com/isdelr/portal-be/internal/request"
	"github.com/rs/zerolog/log"
)

// TokenCookieName is the cookie that carries the session JWT.
const TokenCookieName = "token"

var (
	ErrTokenRevoked = errors.New("token revoked")
	// ErrRevocationCheck wraps failures of the revocation store. The token
	// itself may be fine; the request cannot be decided.
	ErrRevocationCheck = errors.New("revocation check failed")
	errEmptySecret  = errors.New("jwt secret must not be empty")
)

// Claims defines the JWT claims structure.
type Claims struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

type contextKey string

// UserClaimsKey is the context key for user claims.
const UserClaimsKey = contextKey("userClaims")

// RevocationChecker reports whether a token id was revoked.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Issuer signs and validates HS256 tokens.
type Issuer struct {
	key     []byte
	ttl     time.Duration
	revoked RevocationChecker
	now     func() time.Time
}

// NewIssuer creates an Issuer. revoked may be nil to skip revocation checks.
func NewIssuer(secret string, ttl time.Duration, revoked RevocationChecker) (*Issuer, error) {
	if secret == "" {
		return nil, errEmptySecret
	}
	return &Issuer{key: []byte(secret), ttl: ttl, revoked: revoked, now: time.Now}, nil
}

// TTL is the lifetime of issued tokens.
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// GenerateJWT creates a new JWT for a given user.
func (i *Issuer) GenerateJWT(user models.User) (string, *Claims, error) {
	now := i.now()
	claims := &Claims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.key)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// ValidateJWT parses and validates a JWT string, including revocation.
func (i *Issuer) ValidateJWT(ctx context.Context, tokenStr string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return i.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, err
	}
	if claims.UserID == "" || claims.ID == "" {
		return nil, fmt.Errorf("token is missing required claims")
	}

	if i.revoked != nil {
		revoked, err := i.revoked.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrRevocationCheck, err)
		}
		if revoked {
			return nil, ErrTokenRevoked
		}
	}
	return claims, nil
}

// Middleware rejects requests without a valid token. It expects the cookie
// stage to have run already; the Authorization header is checked first.
func (i *Issuer) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := tokenFromRequest(r)
			if tokenStr == "" {
				reject(w, "No hay token en la petición")
				return
			}

			claims, err := i.ValidateJWT(r.Context(), tokenStr)
			if errors.Is(err, ErrRevocationCheck) {
				respond.InternalError(w, r, err)
				return
			}
			if err != nil {
				log.Debug().Err(err).Str("path", r.URL.Path).Msg("Rejected auth token")
				reject(w, "Token no válido")
				return
			}

			ctx := context.WithValue(r.Context(), UserClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext returns the claims stored by Middleware.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(UserClaimsKey).(*Claims)
	return claims, ok
}

func tokenFromRequest(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		if token, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	token, _ := request.Cookie(r, TokenCookieName)
	return token
}

func reject(w http.ResponseWriter, msg string) {
	respond.Fail(w, http.StatusUnauthorized, msg)
}
