package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const (
	// TargetSchemaVersion is the highest schema version this version of the code supports for the memoriesdb component.
	TargetSchemaVersion int64 = 1
	// MemoriesDBComponent is the name for the main memories database component.
	MemoriesDBComponent = "memoriesdb"
)

// GetComponentSchemaVersion retrieves the schema version for a given component.
// Returns 0 if the component is not found or the versions table doesn't exist yet.
func GetComponentSchemaVersion(db *sql.DB, componentName string) (int64, error) {
	query := `SELECT version FROM memorynet_versions WHERE component = ?;`

	var version int64
	err := db.QueryRow(query, componentName).Scan(&version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		if strings.Contains(err.Error(), "no such table") && strings.Contains(err.Error(), "memorynet_versions") {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to scan version for component '%s': %w", componentName, err)
	}
	return version, nil
}

// InitializeSchema creates the database schema (all tables for memoriesdb)
// and sets the specified schema version for the memoriesdb component.
func InitializeSchema(db *sql.DB, schemaVersionToSet int64) error {
	if _, err := db.Exec(SchemaV1); err != nil {
		return fmt.Errorf("failed to execute schema v1 SQL: %w", err)
	}

	insertVersionSQL := `
INSERT INTO memorynet_versions (component, version) VALUES (?, ?)
ON CONFLICT(component) DO UPDATE SET version = excluded.version, created_at = unixepoch();`

	if _, err := db.Exec(insertVersionSQL, MemoriesDBComponent, schemaVersionToSet); err != nil {
		return fmt.Errorf("failed to insert/update version for component %s to %d: %w", MemoriesDBComponent, schemaVersionToSet, err)
	}

	return nil
}

// UpgradeDB applies necessary migrations to bring the MemoriesDBComponent up to
// appTargetSchemaVersion. dbIdentifierForLog is used in messages only.
func UpgradeDB(db *sql.DB, dbIdentifierForLog string, appTargetSchemaVersion int64, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	currentDBVersion, err := GetComponentSchemaVersion(db, MemoriesDBComponent)
	if err != nil {
		return err
	}

	switch {
	case currentDBVersion == 0:
		logger.Info("initializing database schema",
			zap.String("component", MemoriesDBComponent),
			zap.String("db", dbIdentifierForLog),
			zap.Int64("version", appTargetSchemaVersion),
		)
		if err := InitializeSchema(db, appTargetSchemaVersion); err != nil {
			return fmt.Errorf("failed to initialize component %s in database '%s': %w", MemoriesDBComponent, dbIdentifierForLog, err)
		}
		return nil
	case currentDBVersion == appTargetSchemaVersion:
		logger.Debug("database schema up to date",
			zap.String("component", MemoriesDBComponent),
			zap.String("db", dbIdentifierForLog),
			zap.Int64("version", currentDBVersion),
		)
		return nil
	case currentDBVersion < appTargetSchemaVersion:
		return fmt.Errorf("component %s in database '%s' has schema version %d, which is older than application's target schema version %d. Automatic migration from this older version is not yet supported", MemoriesDBComponent, dbIdentifierForLog, currentDBVersion, appTargetSchemaVersion)
	default:
		return fmt.Errorf("component %s in database '%s' has schema version %d, which is newer than application's target schema version %d. Please upgrade the application", MemoriesDBComponent, dbIdentifierForLog, currentDBVersion, appTargetSchemaVersion)
	}
}

// OpenAndUpgrade opens the database at dsn and brings its schema to TargetSchemaVersion.
func OpenAndUpgrade(dsn string, enableWAL bool, syncPragma string, logger *zap.Logger) (*sql.DB, error) {
	conn, err := OpenDBConnection(dsn, enableWAL, syncPragma)
	if err != nil {
		return nil, err
	}

	if err := UpgradeDB(conn, dsn, TargetSchemaVersion, logger); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize/upgrade database schema for '%s': %w", dsn, err)
	}

	return conn, nil
}
