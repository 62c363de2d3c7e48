package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// Migration represents a database migration
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations contains all database migrations in order
var migrations = []Migration{
	{
		Version: 1,
		Name:    "initial_schema",
		SQL: `
			-- Create sellers table
			CREATE TABLE IF NOT EXISTS sellers (
				id VARCHAR(64) PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				email VARCHAR(255) NOT NULL,
				api_token VARCHAR(128),
				settings JSONB DEFAULT '{}',
				meta_token TEXT,
				token_updated_at TIMESTAMP WITH TIME ZONE,
				created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
			);

			CREATE UNIQUE INDEX IF NOT EXISTS idx_sellers_token
			ON sellers(api_token);

			-- Create products table
			CREATE TABLE IF NOT EXISTS products (
				id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				seller_id VARCHAR(64) NOT NULL REFERENCES sellers(id) ON DELETE CASCADE,
				name VARCHAR(500) NOT NULL,
				price VARCHAR(20) NOT NULL DEFAULT '0',
				description TEXT,
				image TEXT NOT NULL,
				platform VARCHAR(50) NOT NULL DEFAULT 'Unknown',
				source_url TEXT,

				-- Metadata and processing
				metadata JSONB DEFAULT '{}',
				status VARCHAR(20) DEFAULT 'draft',
				enhancement_status VARCHAR(20) DEFAULT 'none',

				-- Timestamps
				created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),

				-- Search vector for full-text search
				search_vector tsvector,

				-- Constraints
				CHECK (status IN ('draft', 'published', 'archived')),
				CHECK (enhancement_status IN ('none', 'pending', 'processing', 'complete', 'failed'))
			);

			-- Create indexes
			CREATE INDEX IF NOT EXISTS idx_products_seller_created
			ON products(seller_id, created_at DESC);

			CREATE INDEX IF NOT EXISTS idx_products_status
			ON products(status);

			CREATE INDEX IF NOT EXISTS idx_products_enhancement
			ON products(enhancement_status);

			CREATE INDEX IF NOT EXISTS idx_products_search
			ON products USING GIN(search_vector);

			-- Create search vector update function
			CREATE OR REPLACE FUNCTION update_products_search_vector()
			RETURNS trigger AS $$
			BEGIN
				NEW.search_vector := to_tsvector('english',
					coalesce(NEW.name,'') || ' ' || coalesce(NEW.description,''));
				RETURN NEW;
			END;
			$$ LANGUAGE plpgsql;

			-- Create trigger for automatic search vector updates
			CREATE TRIGGER products_search_vector_update
				BEFORE INSERT OR UPDATE ON products
				FOR EACH ROW EXECUTE FUNCTION update_products_search_vector();

			-- Create orders table
			CREATE TABLE IF NOT EXISTS orders (
				id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				seller_id VARCHAR(64) NOT NULL REFERENCES sellers(id) ON DELETE CASCADE,
				buyer_name VARCHAR(255) NOT NULL,
				buyer_phone VARCHAR(50) NOT NULL,
				buyer_note TEXT,
				items JSONB NOT NULL DEFAULT '[]',
				total VARCHAR(20) NOT NULL DEFAULT '0',
				status VARCHAR(20) DEFAULT 'pending',
				created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),

				CHECK (status IN ('pending', 'confirmed', 'fulfilled', 'cancelled'))
			);

			CREATE INDEX IF NOT EXISTS idx_orders_seller_created
			ON orders(seller_id, created_at DESC);
		`,
	},
	{
		Version: 2,
		Name:    "product_source_dedup",
		SQL: `
			-- One listing per source post per seller
			CREATE UNIQUE INDEX IF NOT EXISTS idx_products_seller_source
			ON products(seller_id, source_url)
			WHERE source_url IS NOT NULL;
		`,
	},
}

// RunMigrations executes all pending database migrations
func RunMigrations(db *sql.DB, logger *slog.Logger) error {
	logger.Info("Running database migrations...")

	// Create migrations table
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS migrations (
			version INTEGER PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			applied_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	err = db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM migrations").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	logger.Info("Current migration version", "version", currentVersion)

	// Apply pending migrations
	applied := 0
	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		logger.Info("Applying migration",
			"version", migration.Version,
			"name", migration.Name,
		)

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %d: %w", migration.Version, err)
		}

		if _, err := tx.Exec(migration.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to apply migration %d (%s): %w", migration.Version, migration.Name, err)
		}

		if _, err := tx.Exec("INSERT INTO migrations (version, name) VALUES ($1, $2)",
			migration.Version, migration.Name); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}

		applied++
		logger.Info("Migration applied successfully", "version", migration.Version)
	}

	if applied == 0 {
		logger.Info("No migrations to apply - database is up to date")
	} else {
		logger.Info("Database migrations completed", "applied", applied)
	}

	return nil
}

// GetMigrationStatus returns the current migration status
func GetMigrationStatus(db *sql.DB) (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM migrations").Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to get migration status: %w", err)
	}
	return version, nil
}

// ResetDatabase drops all tables (for testing)
func ResetDatabase(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	logger.Warn("Resetting database - all data will be lost")

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Drop tables in reverse dependency order
	dropSQL := []string{
		"DROP TABLE IF EXISTS orders CASCADE",
		"DROP TABLE IF EXISTS products CASCADE",
		"DROP TABLE IF EXISTS sellers CASCADE",
		"DROP TABLE IF EXISTS migrations CASCADE",
		"DROP FUNCTION IF EXISTS update_products_search_vector() CASCADE",
	}

	for _, stmt := range dropSQL {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute drop statement: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reset transaction: %w", err)
	}

	logger.Info("Database reset completed")
	return nil
}
