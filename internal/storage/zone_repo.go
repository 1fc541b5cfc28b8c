package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_zone_store.go -package=mocks urbanlex/internal/storage ZoneStore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"urbanlex/internal/lexicon"
	"urbanlex/internal/zoning"
)

// ZoneStore defines the structured zoning queries used by the retrieval tools.
type ZoneStore interface {
	// Find returns rows matching any of the neighborhoods and any of the zone
	// codes. An empty filter matches everything on that axis, but at least one
	// filter must be set.
	Find(ctx context.Context, neighborhoods, zoneCodes []string) ([]zoning.Row, error)
	// Aggregate runs one of the fixed aggregate shapes.
	Aggregate(ctx context.Context, q zoning.AggregateQuery) (*zoning.AggregateResult, error)
}

// ZoneRepo stores zone parameters and risk areas.
// It implements the ZoneStore interface.
type ZoneRepo struct {
	db *sql.DB
}

// NewZoneRepo creates a new ZoneRepo.
func NewZoneRepo(db *sql.DB) *ZoneRepo {
	return &ZoneRepo{db: db}
}

const zoneColumns = "neighborhood, zone_code, height_max, far_basic, far_max, occupancy_rate, permeability_rate, setback"

// Aggregate SQL texts. Only these are ever executed for aggregates; filters
// are bound as parameters and an empty filter disables itself.
const (
	countZonesSQL = `SELECT neighborhood, COUNT(*) FROM zone_parameters
		WHERE (? = '' OR neighborhood_folded = ?) AND (? = '' OR zone_code = ?)
		GROUP BY neighborhood ORDER BY neighborhood`
	countRiskSQL = `SELECT category, COUNT(DISTINCT neighborhood_folded) FROM risk_areas
		WHERE (? = '' OR neighborhood_folded = ?)
		GROUP BY category ORDER BY category`
	listByZoneSQL = `SELECT neighborhood, COUNT(*) FROM zone_parameters
		WHERE zone_code = ?
		GROUP BY neighborhood ORDER BY neighborhood`
)

// averageSQL holds one statement per parameter; FAR averages the maximum ratio.
var averageSQL = map[string]string{
	zoning.ParamHeight:       averageStatement("height_max"),
	zoning.ParamFAR:          averageStatement("far_max"),
	zoning.ParamOccupancy:    averageStatement("occupancy_rate"),
	zoning.ParamPermeability: averageStatement("permeability_rate"),
	zoning.ParamSetback:      averageStatement("setback"),
}

func averageStatement(column string) string {
	return `SELECT neighborhood, AVG(` + column + `) FROM zone_parameters
		WHERE ` + column + ` IS NOT NULL
		AND (? = '' OR neighborhood_folded = ?) AND (? = '' OR zone_code = ?)
		GROUP BY neighborhood ORDER BY neighborhood`
}

// Upsert inserts or replaces rows in one transaction. Zone codes are canonicalized.
func (r *ZoneRepo) Upsert(ctx context.Context, rows []zoning.Row) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, row := range rows {
		code, err := zoning.CanonicalZone(row.ZoneCode)
		if err != nil {
			return err
		}
		if strings.TrimSpace(row.Neighborhood) == "" {
			return fmt.Errorf("zone %s: neighborhood is required", code)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO zone_parameters (neighborhood, neighborhood_folded, zone_code, height_max, far_basic, far_max, occupancy_rate, permeability_rate, setback)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(neighborhood, zone_code) DO UPDATE SET
				height_max = excluded.height_max,
				far_basic = excluded.far_basic,
				far_max = excluded.far_max,
				occupancy_rate = excluded.occupancy_rate,
				permeability_rate = excluded.permeability_rate,
				setback = excluded.setback`,
			row.Neighborhood, lexicon.Fold(row.Neighborhood), code,
			row.HeightMax, row.FARBasic, row.FARMax, row.OccupancyRate, row.PermeabilityRate, row.Setback,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert zone %s/%s: %w", row.Neighborhood, code, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// ReplaceRiskAreas replaces every stored risk area with areas.
func (r *ZoneRepo) ReplaceRiskAreas(ctx context.Context, areas []zoning.RiskArea) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, "DELETE FROM risk_areas"); err != nil {
		return fmt.Errorf("failed to clear risk areas: %w", err)
	}
	for _, a := range areas {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO risk_areas (neighborhood, neighborhood_folded, category, level) VALUES (?, ?, ?, ?)",
			a.Neighborhood, lexicon.Fold(a.Neighborhood), a.Category, a.Level,
		)
		if err != nil {
			return fmt.Errorf("failed to insert risk area: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// Find returns one row per (neighborhood, zone) ordered by neighborhood then zone.
func (r *ZoneRepo) Find(ctx context.Context, neighborhoods, zoneCodes []string) ([]zoning.Row, error) {
	if len(neighborhoods) == 0 && len(zoneCodes) == 0 {
		return []zoning.Row{}, nil
	}

	var conds []string
	var args []any
	if len(neighborhoods) > 0 {
		conds = append(conds, "neighborhood_folded IN ("+placeholders(len(neighborhoods))+")")
		for _, n := range neighborhoods {
			args = append(args, lexicon.Fold(n))
		}
	}
	if len(zoneCodes) > 0 {
		conds = append(conds, "zone_code IN ("+placeholders(len(zoneCodes))+")")
		for _, z := range zoneCodes {
			args = append(args, z)
		}
	}

	query := "SELECT " + zoneColumns + " FROM zone_parameters WHERE " + strings.Join(conds, " AND ") +
		" ORDER BY neighborhood, zone_code"
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query zones: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	out := []zoning.Row{}
	for rows.Next() {
		var z zoning.Row
		var height, farBasic, farMax, occupancy, permeability, setback sql.NullFloat64
		if err := rows.Scan(&z.Neighborhood, &z.ZoneCode, &height, &farBasic, &farMax, &occupancy, &permeability, &setback); err != nil {
			return nil, fmt.Errorf("failed to scan zone: %w", err)
		}
		z.HeightMax = nullable(height)
		z.FARBasic = nullable(farBasic)
		z.FARMax = nullable(farMax)
		z.OccupancyRate = nullable(occupancy)
		z.PermeabilityRate = nullable(permeability)
		z.Setback = nullable(setback)
		out = append(out, z)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return out, nil
}

// Aggregate validates q and runs its fixed statement.
func (r *ZoneRepo) Aggregate(ctx context.Context, q zoning.AggregateQuery) (*zoning.AggregateResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	neighborhood := lexicon.Fold(q.Neighborhood)
	var (
		query string
		args  []any
	)
	switch q.Shape {
	case zoning.ShapeCountByCategory:
		if q.Category == zoning.CategoryRisk {
			query, args = countRiskSQL, []any{neighborhood, neighborhood}
		} else {
			query, args = countZonesSQL, []any{neighborhood, neighborhood, q.ZoneCode, q.ZoneCode}
		}
	case zoning.ShapeAverageByNeighborhood:
		query, args = averageSQL[q.Parameter], []any{neighborhood, neighborhood, q.ZoneCode, q.ZoneCode}
	case zoning.ShapeListByZone:
		query, args = listByZoneSQL, []any{q.ZoneCode}
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to run aggregate %s: %w", q.Shape, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	res := &zoning.AggregateResult{Query: q, Rows: []zoning.AggregateRow{}}
	for rows.Next() {
		var row zoning.AggregateRow
		if err := rows.Scan(&row.Key, &row.Value); err != nil {
			return nil, fmt.Errorf("failed to scan aggregate row: %w", err)
		}
		res.Rows = append(res.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return res, nil
}

func nullable(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return zoning.Float(v.Float64)
}
