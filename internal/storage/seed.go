// internal/storage/seed.go
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Annany2002/nebula-dq/internal/core"
	"github.com/Annany2002/nebula-dq/internal/domain"
)

// SeedFile is the YAML document read by the seed command.
type SeedFile struct {
	TestDefinitions []domain.TestDefinition `yaml:"testDefinitions"`
}

// LoadSeedFile reads and checks a seed file.
func LoadSeedFile(path string) (*SeedFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return ParseSeed(raw)
}

// ParseSeed decodes a seed document. Entity and parameter data types are
// normalized; unknown values are rejected.
func ParseSeed(raw []byte) (*SeedFile, error) {
	var seed SeedFile
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return nil, fmt.Errorf("%w: invalid seed file: %v", core.ErrBadRequest, err)
	}

	seen := make(map[string]bool, len(seed.TestDefinitions))
	for i := range seed.TestDefinitions {
		def := &seed.TestDefinitions[i]
		if def.Name == "" {
			return nil, fmt.Errorf("%w: test definition #%d has no name", core.ErrBadRequest, i+1)
		}
		if def.FullyQualifiedName == "" {
			def.FullyQualifiedName = def.Name
		}
		if seen[def.FullyQualifiedName] {
			return nil, fmt.Errorf("%w: duplicate test definition '%s'", core.ErrBadRequest, def.FullyQualifiedName)
		}
		seen[def.FullyQualifiedName] = true

		entityType, ok := core.NormalizeEntityType(string(def.EntityType))
		if !ok {
			return nil, fmt.Errorf("%w: test definition '%s' has invalid entityType '%s'", core.ErrBadRequest, def.Name, def.EntityType)
		}
		def.EntityType = entityType

		for j, dt := range def.SupportedDataTypes {
			def.SupportedDataTypes[j] = strings.ToUpper(strings.TrimSpace(dt))
		}
		for j, p := range def.ParameterDefinition {
			if p.DataType == "" {
				continue
			}
			dataType, ok := core.NormalizeAndValidateType(string(p.DataType))
			if !ok {
				return nil, fmt.Errorf("%w: parameter '%s' of '%s' has unsupported data type '%s'", core.ErrBadRequest, p.Name, def.Name, p.DataType)
			}
			def.ParameterDefinition[j].DataType = dataType
		}
	}
	return &seed, nil
}

// SeedTestDefinitions upserts every definition of the seed in one transaction.
func SeedTestDefinitions(ctx context.Context, db *sql.DB, seed *SeedFile) (int, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	defer tx.Rollback() // no-op after commit

	for _, def := range seed.TestDefinitions {
		row, err := definitionRow(&def)
		if err != nil {
			return 0, err
		}
		if _, err := tx.ExecContext(ctx, upsertDefinitionSQL, row...); err != nil {
			customLog.Errorf("Storage: Failed to seed test definition %s: %v", def.FullyQualifiedName, err)
			return 0, fmt.Errorf("database error seeding '%s': %w", def.FullyQualifiedName, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit seed transaction: %w", err)
	}
	customLog.Printf("Storage: Seeded %d test definitions.", len(seed.TestDefinitions))
	return len(seed.TestDefinitions), nil
}
