package middlewares

import "github.com/gin-gonic/gin"

// abortWith hands err to the central error handler and stops the chain.
func abortWith(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
