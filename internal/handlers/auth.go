package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	RoleAdmin   = "ADMIN"
	RoleUser    = "USER"
	RoleService = "SERVICE"

	actorKey = "actor"
)

// Actor is the authenticated caller of a request.
type Actor struct {
	ID   uuid.UUID
	Role string
}

type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// SignToken issues an HS256 token for id and role.
func SignToken(secret []byte, id uuid.UUID, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	return token.SignedString(secret)
}

func parseToken(secret []byte, raw string) (Actor, error) {
	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Actor{}, err
	}

	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return Actor{}, fmt.Errorf("invalid subject: %w", err)
	}
	switch c.Role {
	case RoleAdmin, RoleUser, RoleService:
	default:
		return Actor{}, fmt.Errorf("unknown role %q", c.Role)
	}
	return Actor{ID: id, Role: c.Role}, nil
}

// Authenticate resolves the bearer token into an Actor stored on the context.
func Authenticate(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		const prefix = "Bearer "
		if !strings.HasPrefix(header, prefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or malformed Authorization header"})
			return
		}

		actor, err := parseToken(secret, strings.TrimPrefix(header, prefix))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(actorKey, actor)
		c.Next()
	}
}

// RequireRoles ensures the requester's role is one of the allowed roles.
func RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "role missing"})
			return
		}
		for _, r := range roles {
			if actor.Role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access denied"})
	}
}

func actorFrom(c *gin.Context) (Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return Actor{}, false
	}
	actor, ok := v.(Actor)
	return actor, ok
}
