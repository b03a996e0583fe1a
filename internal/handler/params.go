package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/GTDGit/shelf_api/internal/utils"
)

// pathID returns the :id path parameter, answering 400 when it is not a uuid.
func pathID(c *gin.Context, what string) (string, bool) {
	id := c.Param("id")
	if !isUUID(id) {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid "+what+" id")
		return "", false
	}
	return id, true
}

func isUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
