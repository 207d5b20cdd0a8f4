package api

import (
	"net/http"
	"strings"

	"collectibles-vault/internal/catalog"
	"collectibles-vault/internal/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
	actorKey        = "actor"
)

// Claims is the bearer token payload issued by the external auth layer.
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Auth turns optional HS256 bearer tokens into a catalog.Actor.
type Auth struct {
	secret []byte
	admins map[string]struct{}
	log    *logger.Logger
}

func NewAuth(secret string, adminUsernames []string, log *logger.Logger) *Auth {
	admins := make(map[string]struct{}, len(adminUsernames))
	for _, u := range adminUsernames {
		if u = strings.ToLower(strings.TrimSpace(u)); u != "" {
			admins[u] = struct{}{}
		}
	}
	return &Auth{secret: []byte(secret), admins: admins, log: logger.OrNop(log).With("middleware", "auth")}
}

// Optional lets anonymous requests through as non-privileged actors and
// rejects requests carrying a token that does not verify.
func (a *Auth) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.Set(actorKey, catalog.Actor{})
			c.Next()
			return
		}
		claims, err := a.parse(token)
		if err != nil {
			a.log.Debug("rejected bearer token", "reason", err.Error())
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(actorKey, a.actorOf(claims))
		c.Next()
	}
}

func (a *Auth) parse(token string) (*Claims, error) {
	if len(a.secret) == 0 {
		return nil, jwt.ErrTokenUnverifiable
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func (a *Auth) actorOf(claims *Claims) catalog.Actor {
	username := strings.TrimSpace(claims.Username)
	if username == "" {
		username = claims.Subject
	}
	_, admin := a.admins[strings.ToLower(username)]
	return catalog.Actor{
		Username:   username,
		Privileged: admin || strings.EqualFold(claims.Role, "admin"),
	}
}

// Sign issues a token for the given claims; used by tooling and tests.
func (a *Auth) Sign(claims Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

func actorFrom(c *gin.Context) catalog.Actor {
	if v, ok := c.Get(actorKey); ok {
		if actor, ok := v.(catalog.Actor); ok {
			return actor
		}
	}
	return catalog.Actor{}
}

// RequestID propagates or assigns an X-Request-ID.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func CORS(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Authorization", "Content-Type", requestIDHeader},
		ExposeHeaders: []string{requestIDHeader, "Content-Disposition"},
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}
