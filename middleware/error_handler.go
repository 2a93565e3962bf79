package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"venueq/common"
	"venueq/internal/queue"
)

// ErrorHandler converts errors attached to the gin context into JSON
// responses. Queue errors map to status codes by kind; anything else is a
// 500.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err

		if apiErr, ok := err.(common.APIError); ok {
			respond(c, apiErr)
			return
		}

		var (
			validationErr  *queue.ValidationError
			notFoundErr    *queue.NotFoundError
			persistenceErr *queue.PersistenceError
		)
		switch {
		case errors.As(err, &validationErr):
			respond(c, common.Errf(http.StatusBadRequest, "%s", validationErr.Msg))
		case errors.As(err, &notFoundErr):
			respond(c, common.Errf(http.StatusNotFound, "%s", notFoundErr.Error()))
		case errors.As(err, &persistenceErr):
			respond(c, common.Errf(http.StatusServiceUnavailable, "storage unavailable"))
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
	}
}

func respond(c *gin.Context, apiErr common.APIError) {
	response := gin.H{"error": apiErr.Message}
	if apiErr.Fields != nil {
		response["fields"] = apiErr.Fields
	}
	c.JSON(apiErr.Status, response)
}
