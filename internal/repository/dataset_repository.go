package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/weipengdeng/flowmap/internal/analysis/temporal"
	"github.com/weipengdeng/flowmap/internal/database"
	"github.com/weipengdeng/flowmap/internal/dataset"
	"github.com/weipengdeng/flowmap/internal/models"
)

// ErrNoDataset is returned when the mirror holds no run yet
var ErrNoDataset = errors.New("no dataset stored")

// DatasetRepository mirrors a built dataset into SQLite
type DatasetRepository struct {
	db *sql.DB
}

// NewDatasetRepository creates a new dataset repository
func NewDatasetRepository(db *sql.DB) *DatasetRepository {
	return &DatasetRepository{db: db}
}

// SaveDataset replaces the stored dataset with ds in a single transaction
func (r *DatasetRepository) SaveDataset(ctx context.Context, ds *dataset.Dataset) error {
	err := database.RunInTx(r.db, func(tx *sql.Tx) error {
		for _, table := range []string{"flow_hours", "flows", "destinations", "nodes", "runs"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}

		m := ds.Meta
		_, err := tx.ExecContext(ctx, `
			INSERT INTO runs (
				id, run_id, source, created_at, center_lon, center_lat, scale, extent_km,
				min_x, max_x, min_y, max_y, rows_read, rows_accepted
			) VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			m.RunID, m.Source, m.CreatedAt, m.Center[0], m.Center[1], m.Scale, m.ExtentKm,
			m.Bounds.MinX, m.Bounds.MaxX, m.Bounds.MinY, m.Bounds.MaxY, m.RowsRead, m.RowsAccepted,
		)
		if err != nil {
			return fmt.Errorf("failed to insert run: %w", err)
		}

		if err := insertNodes(ctx, tx, ds.Nodes); err != nil {
			return err
		}
		if err := insertDestinations(ctx, tx, ds.Destinations); err != nil {
			return err
		}
		return insertFlows(ctx, tx, ds.Flows)
	})
	if err != nil {
		return err
	}

	log.Printf("[Repository] Saved dataset %s: %d nodes, %d destinations, %d flows",
		ds.Meta.RunID, len(ds.Nodes), len(ds.Destinations), len(ds.Flows))
	return nil
}

func insertNodes(ctx context.Context, tx *sql.Tx, nodes []models.Node) error {
	stmt, err := tx.PrepareContext(ctx, "INSERT INTO nodes (seq, id, x, y) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare node insert: %w", err)
	}
	defer stmt.Close()

	for i, n := range nodes {
		if _, err := stmt.ExecContext(ctx, i, n.ID, n.X, n.Y); err != nil {
			return fmt.Errorf("failed to insert node %s: %w", n.ID, err)
		}
	}
	return nil
}

func insertDestinations(ctx context.Context, tx *sql.Tx, dests []models.Destination) error {
	stmt, err := tx.PrepareContext(ctx, "INSERT INTO destinations (seq, id, x, y, inbound, height) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare destination insert: %w", err)
	}
	defer stmt.Close()

	for i, d := range dests {
		if _, err := stmt.ExecContext(ctx, i, d.ID, d.X, d.Y, d.Inbound, d.Height); err != nil {
			return fmt.Errorf("failed to insert destination %s: %w", d.ID, err)
		}
	}
	return nil
}

func insertFlows(ctx context.Context, tx *sql.Tx, flows []models.Flow) error {
	flowStmt, err := tx.PrepareContext(ctx, "INSERT INTO flows (origin_id, dest_id, total, w) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare flow insert: %w", err)
	}
	defer flowStmt.Close()

	hourStmt, err := tx.PrepareContext(ctx, "INSERT INTO flow_hours (origin_id, dest_id, hour, quantity) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare flow hour insert: %w", err)
	}
	defer hourStmt.Close()

	for _, f := range flows {
		if _, err := flowStmt.ExecContext(ctx, f.O, f.D, f.Total, f.W); err != nil {
			return fmt.Errorf("failed to insert flow %s->%s: %w", f.O, f.D, err)
		}
		for h, v := range f.Hourly {
			if v <= 0 {
				continue
			}
			if _, err := hourStmt.ExecContext(ctx, f.O, f.D, h, v); err != nil {
				return fmt.Errorf("failed to insert flow hour %s->%s@%d: %w", f.O, f.D, h, err)
			}
		}
	}
	return nil
}

// LoadDataset rebuilds the stored dataset. Bins, cuts and hourly frames are
// re-derived from the stored hourly histograms.
func (r *DatasetRepository) LoadDataset(ctx context.Context) (*dataset.Dataset, error) {
	var m models.Meta
	err := r.db.QueryRowContext(ctx, `
		SELECT run_id, source, created_at, center_lon, center_lat, scale, extent_km,
			   min_x, max_x, min_y, max_y, rows_read, rows_accepted
		FROM runs WHERE id = 1
	`).Scan(
		&m.RunID, &m.Source, &m.CreatedAt, &m.Center[0], &m.Center[1], &m.Scale, &m.ExtentKm,
		&m.Bounds.MinX, &m.Bounds.MaxX, &m.Bounds.MinY, &m.Bounds.MaxY, &m.RowsRead, &m.RowsAccepted,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNoDataset
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}

	nodes, err := r.loadNodes(ctx)
	if err != nil {
		return nil, err
	}
	dests, err := r.loadDestinations(ctx)
	if err != nil {
		return nil, err
	}
	flows, err := r.loadFlows(ctx)
	if err != nil {
		return nil, err
	}

	m.NodeCount = len(nodes)
	m.DestinationCount = len(dests)
	m.FlowCount = len(flows)

	ds := dataset.New(m, nodes, dests, flows, temporal.BuildFrames(flows))
	ds.Stats = models.IngestStats{
		RowsRead:     m.RowsRead,
		RowsAccepted: m.RowsAccepted,
		RowsSkipped:  m.RowsRead - m.RowsAccepted,
	}
	return ds, nil
}

func (r *DatasetRepository) loadNodes(ctx context.Context) ([]models.Node, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, x, y FROM nodes ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("failed to query nodes: %w", err)
	}
	defer rows.Close()

	nodes := []models.Node{}
	for rows.Next() {
		var n models.Node
		if err := rows.Scan(&n.ID, &n.X, &n.Y); err != nil {
			return nil, fmt.Errorf("failed to scan node: %w", err)
		}
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

func (r *DatasetRepository) loadDestinations(ctx context.Context) ([]models.Destination, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, x, y, inbound, height FROM destinations ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("failed to query destinations: %w", err)
	}
	defer rows.Close()

	dests := []models.Destination{}
	for rows.Next() {
		var d models.Destination
		if err := rows.Scan(&d.ID, &d.X, &d.Y, &d.Inbound, &d.Height); err != nil {
			return nil, fmt.Errorf("failed to scan destination: %w", err)
		}
		dests = append(dests, d)
	}
	return dests, rows.Err()
}

func (r *DatasetRepository) loadFlows(ctx context.Context) ([]models.Flow, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT origin_id, dest_id, total, w FROM flows")
	if err != nil {
		return nil, fmt.Errorf("failed to query flows: %w", err)
	}

	flows := []models.Flow{}
	index := make(map[models.FlowKey]int)
	for rows.Next() {
		var f models.Flow
		if err := rows.Scan(&f.O, &f.D, &f.Total, &f.W); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan flow: %w", err)
		}
		index[f.Key()] = len(flows)
		flows = append(flows, f)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate flows: %w", err)
	}

	hours, err := r.db.QueryContext(ctx, "SELECT origin_id, dest_id, hour, quantity FROM flow_hours")
	if err != nil {
		return nil, fmt.Errorf("failed to query flow hours: %w", err)
	}
	defer hours.Close()

	for hours.Next() {
		var (
			key  models.FlowKey
			hour int
			qty  float64
		)
		if err := hours.Scan(&key.O, &key.D, &hour, &qty); err != nil {
			return nil, fmt.Errorf("failed to scan flow hour: %w", err)
		}
		if i, ok := index[key]; ok && hour >= 0 && hour < models.HoursPerDay {
			flows[i].Hourly[hour] = qty
		}
	}
	if err := hours.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate flow hours: %w", err)
	}

	for i := range flows {
		temporal.Derive(&flows[i])
	}
	temporal.SortFlows(flows)
	return flows, nil
}
