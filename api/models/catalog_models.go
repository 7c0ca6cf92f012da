// api/models/catalog_models.go
package models

import "github.com/Annany2002/nebula-dq/internal/domain"

// --- Catalog Request Structs ---

// ParameterDefinitionRequest describes one parameter of a new test definition
type ParameterDefinitionRequest struct {
	Name        string `json:"name" binding:"required"`
	DisplayName string `json:"displayName"`
	DataType    string `json:"dataType"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

// CreateTestDefinitionRequest defines the body for registering a test definition
type CreateTestDefinitionRequest struct {
	Name                string                       `json:"name" binding:"required"`
	DisplayName         string                       `json:"displayName"`
	FullyQualifiedName  string                       `json:"fullyQualifiedName" binding:"required"`
	Description         string                       `json:"description"`
	EntityType          string                       `json:"entityType" binding:"required,oneof=TABLE COLUMN"`
	TestPlatforms       []string                     `json:"testPlatforms"`
	SupportedDataTypes  []string                     `json:"supportedDataTypes"`
	ParameterDefinition []ParameterDefinitionRequest `json:"parameterDefinition" binding:"dive"`
}

// ToDomain converts the request into a definition. Data types are upper-cased.
func (r CreateTestDefinitionRequest) ToDomain() domain.TestDefinition {
	def := domain.TestDefinition{
		Name:               r.Name,
		DisplayName:        r.DisplayName,
		FullyQualifiedName: r.FullyQualifiedName,
		Description:        r.Description,
		EntityType:         domain.EntityType(r.EntityType),
		SupportedDataTypes: r.SupportedDataTypes,
	}
	for _, p := range r.TestPlatforms {
		def.TestPlatforms = append(def.TestPlatforms, domain.TestPlatform(p))
	}
	for _, p := range r.ParameterDefinition {
		def.ParameterDefinition = append(def.ParameterDefinition, domain.TestCaseParameterDefinition{
			Name:        p.Name,
			DisplayName: p.DisplayName,
			DataType:    domain.TestDataType(p.DataType),
			Description: p.Description,
			Required:    p.Required,
		})
	}
	return def
}

// --- Catalog Response Structs ---

// Paging echoes the window a list response covers
type Paging struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// ListResponse is the envelope of every list endpoint
type ListResponse[T any] struct {
	Data   []T    `json:"data"`
	Paging Paging `json:"paging"`
}
