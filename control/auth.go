package control

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Auth errors.
var (
	// ErrMissingToken indicates no bearer token was presented.
	ErrMissingToken = errors.New("control: missing bearer token")

	// ErrInvalidToken indicates the token failed validation.
	ErrInvalidToken = errors.New("control: invalid bearer token")
)

// AuthConfig configures the bearer-token middleware.
type AuthConfig struct {
	// Key is the HMAC signing key used to validate tokens.
	Key []byte

	// Issuer is the expected token issuer (iss claim).
	// Empty skips the check.
	Issuer string

	// Audience is the expected token audience (aud claim).
	// Empty skips the check.
	Audience string

	// HeaderName is the header containing the token.
	// Default: "Authorization"
	HeaderName string

	// TokenPrefix is the prefix before the token in the header.
	// Default: "Bearer "
	TokenPrefix string
}

// BearerAuth returns middleware that rejects requests without a valid
// HMAC-signed bearer token.
func BearerAuth(config AuthConfig) func(http.Handler) http.Handler {
	if config.HeaderName == "" {
		config.HeaderName = "Authorization"
	}
	if config.TokenPrefix == "" {
		config.TokenPrefix = "Bearer "
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get(config.HeaderName)
			tokenString := strings.TrimPrefix(header, config.TokenPrefix)
			if header == "" || tokenString == header {
				writeError(w, http.StatusUnauthorized, ErrMissingToken.Error())
				return
			}
			tokenString = strings.TrimSpace(tokenString)

			if err := validateToken(tokenString, config); err != nil {
				writeError(w, http.StatusUnauthorized, ErrInvalidToken.Error())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func validateToken(tokenString string, config AuthConfig) error {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
	}
	if config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(config.Issuer))
	}
	if config.Audience != "" {
		opts = append(opts, jwt.WithAudience(config.Audience))
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		return config.Key, nil
	}, opts...)
	if err != nil {
		return err
	}
	if !token.Valid {
		return ErrInvalidToken
	}
	return nil
}
