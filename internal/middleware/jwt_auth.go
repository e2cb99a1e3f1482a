package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/inkwell/backend/internal/auth"
	"github.com/anonto42/inkwell/backend/internal/models"
)

const userContextKey = "user"

// JWTAuthMiddleware checks for a valid access token and stores its claims
// under "user". The token comes from the Authorization header or, for
// websocket clients, the token query parameter. When firebase is set a
// token that is not a local JWT is tried as a Firebase ID token.
func JWTAuthMiddleware(issuer *auth.TokenIssuer, firebase *FirebaseResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString, err := bearerToken(c)
			if err != nil {
				return err
			}

			claims, err := issuer.Parse(tokenString, auth.PurposeAccess)
			if err != nil && firebase != nil {
				claims, err = firebase.Resolve(c.Request().Context(), tokenString)
			}
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
			}

			c.Set(userContextKey, claims)
			return next(c)
		}
	}
}

func bearerToken(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		if q := c.QueryParam("token"); q != "" {
			return q, nil
		}
		return "", echo.NewHTTPError(http.StatusUnauthorized, "Missing Authorization header")
	}

	// Expecting "Bearer <token>"
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "Invalid Authorization header format")
	}
	return parts[1], nil
}

// Claims returns the authenticated caller's claims, if any.
func Claims(c echo.Context) (*models.JwtCustomClaims, bool) {
	claims, ok := c.Get(userContextKey).(*models.JwtCustomClaims)
	return claims, ok && claims != nil
}

// UserID returns the authenticated caller's id, zero when anonymous.
func UserID(c echo.Context) uint {
	if claims, ok := Claims(c); ok {
		return claims.UserID
	}
	return 0
}

// OptionalJWTAuth sets the claims when a valid access token is present and
// lets anonymous requests through untouched.
func OptionalJWTAuth(issuer *auth.TokenIssuer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if tokenString, err := bearerToken(c); err == nil {
				if claims, err := issuer.Parse(tokenString, auth.PurposeAccess); err == nil {
					c.Set(userContextKey, claims)
				}
			}
			return next(c)
		}
	}
}
