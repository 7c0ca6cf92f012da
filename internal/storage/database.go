// internal/storage/database.go
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // Driver registration

	"github.com/Annany2002/nebula-dq/config"
	"github.com/Annany2002/nebula-dq/internal/logger"
)

var (
	customLog = logger.NewLogger()
)

// ConnectCatalogDB initializes the connection pool for the catalog SQLite database
// and ensures the required tables ('test_definitions', 'test_cases') exist.
func ConnectCatalogDB(cfg *config.Config) (*sql.DB, error) {
	dbPath := filepath.Join(cfg.MetadataDbDir, cfg.MetadataDbFile)
	customLog.Printf("Storage: Initializing catalog database: %s", dbPath)

	if err := os.MkdirAll(cfg.MetadataDbDir, 0750); err != nil {
		customLog.Errorf("Storage: Error creating data directory '%s': %v", cfg.MetadataDbDir, err)
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		customLog.Errorf("Storage: Failed to open catalog db '%s': %v", dbPath, err)
		return nil, fmt.Errorf("failed to open catalog db: %w", err)
	}

	if err = db.Ping(); err != nil {
		db.Close()
		customLog.Errorf("Storage: Failed to ping catalog db '%s': %v", dbPath, err)
		return nil, fmt.Errorf("failed to connect to catalog db: %w", err)
	}
	customLog.Println("Storage: Catalog database connection successful.")

	if err := ensureCatalogSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func ensureCatalogSchema(db *sql.DB) error {
	// --- Ensure 'test_definitions' table exists ---
	// List-valued fields are stored as JSON text and filtered with json_each.
	createDefinitionsSQL := `
	CREATE TABLE IF NOT EXISTS test_definitions (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		display_name TEXT NOT NULL DEFAULT '',
		fqn TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		entity_type TEXT NOT NULL,
		test_platforms TEXT NOT NULL DEFAULT '[]',
		supported_data_types TEXT NOT NULL DEFAULT '[]',
		parameter_definition TEXT NOT NULL DEFAULT '[]',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);`
	if _, err := db.Exec(createDefinitionsSQL); err != nil {
		customLog.Errorf("Storage: Failed to create test_definitions table: %v", err)
		return fmt.Errorf("failed to ensure test_definitions table: %w", err)
	}

	// --- Ensure 'test_cases' table exists ---
	createTestCasesSQL := `
	CREATE TABLE IF NOT EXISTS test_cases (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		fqn TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		entity_link TEXT NOT NULL,
		test_definition TEXT NOT NULL,
		test_suite TEXT NOT NULL DEFAULT '',
		parameter_values TEXT NOT NULL DEFAULT '[]',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (entity_link, name),
		FOREIGN KEY (test_definition) REFERENCES test_definitions(fqn)
	);`
	if _, err := db.Exec(createTestCasesSQL); err != nil {
		customLog.Errorf("Storage: Failed to create test_cases table: %v", err)
		return fmt.Errorf("failed to ensure test_cases table: %w", err)
	}

	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_test_cases_entity_link ON test_cases (entity_link);`); err != nil {
		customLog.Errorf("Storage: Failed to create test_cases index: %v", err)
		return fmt.Errorf("failed to ensure test_cases index: %w", err)
	}
	customLog.Println("Storage: Catalog tables ensured.")
	return nil
}
