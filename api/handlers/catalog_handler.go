// api/handlers/catalog_handler.go
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Annany2002/nebula-dq/api/models"
	"github.com/Annany2002/nebula-dq/config"
	"github.com/Annany2002/nebula-dq/internal/core"
	"github.com/Annany2002/nebula-dq/internal/domain"
	"github.com/Annany2002/nebula-dq/internal/logger"
	"github.com/Annany2002/nebula-dq/internal/testcase"
)

var (
	customLog = logger.NewLogger()
)

// DefinitionWriter registers test definitions. Only the local store implements it.
type DefinitionWriter interface {
	CreateTestDefinition(ctx context.Context, def domain.TestDefinition) (*domain.TestDefinition, error)
}

// CatalogHandler serves the reference data listings.
type CatalogHandler struct {
	Catalog testcase.Catalog
	Writer  DefinitionWriter // nil when the catalog is remote
	Cfg     *config.Config
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(catalog testcase.Catalog, writer DefinitionWriter, cfg *config.Config) *CatalogHandler {
	return &CatalogHandler{
		Catalog: catalog,
		Writer:  writer,
		Cfg:     cfg,
	}
}

// ListTestDefinitions handles GET /api/v1/dataQuality/testDefinitions.
func (h *CatalogHandler) ListTestDefinitions(c *gin.Context) {
	filter, err := core.ParseTestDefinitionFilter(c.Request.URL.Query(), h.Cfg.PageSizeLarge)
	if err != nil {
		_ = c.Error(err)
		return
	}

	defs, err := h.Catalog.ListTestDefinitions(c.Request.Context(), filter)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, models.ListResponse[domain.TestDefinition]{
		Data:   defs,
		Paging: models.Paging{Limit: filter.Limit, Offset: filter.Offset},
	})
}

// CreateTestDefinition handles POST /api/v1/dataQuality/testDefinitions.
func (h *CatalogHandler) CreateTestDefinition(c *gin.Context) {
	var req models.CreateTestDefinitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(bindingError(err))
		return
	}

	def := req.ToDomain()
	for i, p := range def.ParameterDefinition {
		if p.DataType == "" {
			continue
		}
		dataType, ok := core.NormalizeAndValidateType(string(p.DataType))
		if !ok {
			_ = c.Error(fmt.Errorf("%w: unsupported data type '%s' for parameter '%s'", core.ErrBadRequest, p.DataType, p.Name))
			return
		}
		def.ParameterDefinition[i].DataType = dataType
	}
	for i, dt := range def.SupportedDataTypes {
		def.SupportedDataTypes[i] = strings.ToUpper(strings.TrimSpace(dt))
	}

	created, err := h.Writer.CreateTestDefinition(c.Request.Context(), def)
	if err != nil {
		_ = c.Error(err)
		return
	}

	customLog.Printf("Handler: Registered test definition '%s'", created.FullyQualifiedName)
	c.JSON(http.StatusCreated, created)
}

// ListTestCases handles GET /api/v1/dataQuality/testCases.
func (h *CatalogHandler) ListTestCases(c *gin.Context) {
	filter, err := core.ParseTestCaseFilter(c.Request.URL.Query(), h.Cfg.PageSizeLarge)
	if err != nil {
		_ = c.Error(err)
		return
	}

	cases, err := h.Catalog.ListTestCases(c.Request.Context(), filter)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, models.ListResponse[domain.TestCase]{
		Data:   cases,
		Paging: models.Paging{Limit: filter.Limit, Offset: filter.Offset},
	})
}

// bindingError marks a request body/query problem as a bad request while
// keeping validator errors reachable through errors.As.
func bindingError(err error) error {
	return fmt.Errorf("%w: %w", core.ErrBadRequest, err)
}
