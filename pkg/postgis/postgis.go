// Package postgis provides a PostGIS-backed marker catalog that mirrors
// the in-memory index for durable storage and server-side viewport queries.
package postgis

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/kass/go-map-overlay/pkg/models"
)

type Catalog struct {
	db *sql.DB
}

// NewCatalog opens a PostGIS connection
func NewCatalog(host, user, password, dbname string, port int) (*Catalog, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &Catalog{db: db}, nil
}

// InitSchema creates the markers table and its spatial index
func (c *Catalog) InitSchema() error {
	queries := []string{
		`CREATE EXTENSION IF NOT EXISTS postgis;`,

		`DROP TABLE IF EXISTS map_markers;`,

		`CREATE TABLE map_markers (
			id TEXT PRIMARY KEY,
			label TEXT NOT NULL DEFAULT '',
			location GEOMETRY(POINT, 4326)
		);`,

		`CREATE INDEX idx_map_markers_location ON map_markers USING GIST(location);`,
	}

	for _, query := range queries {
		if _, err := c.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query '%s': %w", query, err)
		}
	}

	return nil
}

// BulkInsert inserts markers in batches for better performance
func (c *Catalog) BulkInsert(items []*models.Marker) error {
	const batchSize = 10000

	stmt, err := c.db.Prepare(`
		INSERT INTO map_markers (id, label, location)
		VALUES ($1, $2, ST_SetSRID(ST_MakePoint($3, $4), 4326))
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	txStmt := tx.Stmt(stmt)

	for i := 0; i < len(items); i++ {
		m := items[i]
		if m.Location == nil {
			continue
		}
		_, err := txStmt.Exec(m.ID, m.Label, m.Location.Lon, m.Location.Lat)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert marker %s: %w", m.ID, err)
		}

		// Commit batch
		if (i+1)%batchSize == 0 {
			if err := tx.Commit(); err != nil {
				return fmt.Errorf("failed to commit batch: %w", err)
			}

			tx, err = c.db.Begin()
			if err != nil {
				return fmt.Errorf("failed to begin new transaction: %w", err)
			}
			txStmt = tx.Stmt(stmt)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit final batch: %w", err)
	}

	return nil
}

// InViewport performs a bounding box query against the catalog
func (c *Catalog) InViewport(box models.BoundingBox) ([]*models.Marker, error) {
	query := `
		SELECT id, label, ST_Y(location) as lat, ST_X(location) as lon
		FROM map_markers
		WHERE location && ST_MakeEnvelope($1, $2, $3, $4, 4326)
	`

	rows, err := c.db.Query(query,
		box.BottomLeft.Lon, box.BottomLeft.Lat,
		box.TopRight.Lon, box.TopRight.Lat)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	var results []*models.Marker
	for rows.Next() {
		var id, label string
		var lat, lon float64

		if err := rows.Scan(&id, &label, &lat, &lon); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		results = append(results, &models.Marker{
			ID:    id,
			Label: label,
			Location: &models.Location{
				Lat: lat,
				Lon: lon,
			},
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return results, nil
}

// Count returns the number of markers in the catalog
func (c *Catalog) Count() (int64, error) {
	var count int64
	err := c.db.QueryRow("SELECT COUNT(*) FROM map_markers").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count markers: %w", err)
	}
	return count, nil
}

// Close closes the database connection
func (c *Catalog) Close() error {
	return c.db.Close()
}
