package util

import (
	"errors"

	"github.com/gin-gonic/gin"
)

const jwtContextKey = "x-jwt-msg"

func SetJWTContext(c *gin.Context, msg JWTMessage) {
	c.Set(jwtContextKey, msg)
}

// GetToken returns the JWT message resolved by the auth middleware.
func GetToken(c *gin.Context) (JWTMessage, error) {
	v, ok := c.Get(jwtContextKey)
	if !ok {
		return JWTMessage{}, errors.New("jwt message not found in context")
	}
	msg, ok := v.(JWTMessage)
	if !ok {
		return JWTMessage{}, errors.New("jwt message has unexpected type")
	}
	return msg, nil
}
