// api/handlers/path_handler.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Annany2002/nebula-dq/api/models"
	"github.com/Annany2002/nebula-dq/internal/core"
)

// TestSuitePath handles GET /api/v1/paths/testSuite?fqn=&executable=.
func TestSuitePath(c *gin.Context) {
	var q models.TestSuitePathQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		_ = c.Error(bindingError(err))
		return
	}
	c.JSON(http.StatusOK, models.TestSuitePathResponse{
		Path:      core.TestSuiteDetailsPath(q.Executable, q.FQN),
		ParentFQN: core.TestSuiteFQN(q.FQN),
	})
}
