package devgateway

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	// SessionCookie carries the signed guest session id. The SDK's cookie
	// jar returns it on every call, which is all the identity the cart
	// contract needs.
	SessionCookie = "cart_session"

	sessionContextKey = "cart_session_id"
)

// sessionClaims is the JWT payload of the session cookie.
type sessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// SessionManager mints and validates guest session cookies.
type SessionManager struct {
	secret []byte
	ttl    time.Duration
}

// NewSessionManager creates a manager signing with the given secret.
func NewSessionManager(secret string, ttl time.Duration) *SessionManager {
	return &SessionManager{secret: []byte(secret), ttl: ttl}
}

// Middleware resolves the session id from the request cookie, minting a
// fresh guest session when the cookie is missing, expired or tampered
// with.
func (m *SessionManager) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw, err := c.Cookie(SessionCookie); err == nil {
			if sid, ok := m.parse(raw); ok {
				c.Set(sessionContextKey, sid)
				c.Next()
				return
			}
		}

		sid := uuid.New().String()
		token, err := m.mint(sid)
		if err != nil {
			log.Error().Err(err).Msg("failed to mint session token")
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}

		maxAge := int(m.ttl / time.Second)
		c.SetCookie(SessionCookie, token, maxAge, "/", "", false, true)
		c.Set(sessionContextKey, sid)
		c.Next()
	}
}

// SessionID returns the session id resolved by the middleware.
func SessionID(c *gin.Context) string {
	if v, ok := c.Get(sessionContextKey); ok {
		if sid, ok := v.(string); ok {
			return sid
		}
	}
	return ""
}

func (m *SessionManager) mint(sid string) (string, error) {
	claims := sessionClaims{
		SessionID: sid,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(m.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

func (m *SessionManager) parse(raw string) (string, bool) {
	var claims sessionClaims
	token, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid || claims.SessionID == "" {
		return "", false
	}
	return claims.SessionID, true
}
