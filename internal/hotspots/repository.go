package hotspots

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/paulmach/orb"
)

// Repository stores classified hotspots
type Repository interface {
	ReplaceAll(ctx context.Context, hotspots []Hotspot) error
	Top(ctx context.Context, limit int) ([]Hotspot, error)
	List(ctx context.Context, filter ListFilter) ([]Hotspot, int, error)
	Stats(ctx context.Context) (*Stats, error)
	ByState(ctx context.Context) ([]StateBreakdown, error)
	InBounds(ctx context.Context, bound *orb.Bound, limit int) ([]Hotspot, error)
	Count(ctx context.Context) (int, error)
}

const hotspotColumns = `id, mine_name, state, district, latitude, longitude,
	co2, ch4, pm25, pm10, score, category, observed_at, classified_at`

type sqlRepository struct {
	db *sqlx.DB
}

// NewRepository creates a hotspot repository. Queries are written with ?
// placeholders and rebound for the connection's driver.
func NewRepository(db *sqlx.DB) Repository {
	return &sqlRepository{db: db}
}

// ReplaceAll swaps the stored set for hotspots in one transaction
func (r *sqlRepository) ReplaceAll(ctx context.Context, hotspots []Hotspot) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM emission_hotspots"); err != nil {
		return fmt.Errorf("failed to clear hotspots: %w", err)
	}

	insert := `INSERT INTO emission_hotspots (` + hotspotColumns + `) VALUES (
		:id, :mine_name, :state, :district, :latitude, :longitude,
		:co2, :ch4, :pm25, :pm10, :score, :category, :observed_at, :classified_at)`
	stmt, err := tx.PrepareNamedContext(ctx, insert)
	if err != nil {
		return fmt.Errorf("failed to prepare hotspot insert: %w", err)
	}
	defer stmt.Close()

	for i := range hotspots {
		if _, err := stmt.ExecContext(ctx, &hotspots[i]); err != nil {
			return fmt.Errorf("failed to insert hotspot %s: %w", hotspots[i].ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit hotspots: %w", err)
	}
	return nil
}

// Top returns the highest scoring hotspots
func (r *sqlRepository) Top(ctx context.Context, limit int) ([]Hotspot, error) {
	query := r.db.Rebind(`SELECT ` + hotspotColumns + ` FROM emission_hotspots
		ORDER BY score DESC, id LIMIT ?`)
	hotspots := []Hotspot{}
	if err := r.db.SelectContext(ctx, &hotspots, query, limit); err != nil {
		return nil, fmt.Errorf("failed to query top hotspots: %w", err)
	}
	return hotspots, nil
}

// List returns one page of filtered hotspots and the unpaged total
func (r *sqlRepository) List(ctx context.Context, filter ListFilter) ([]Hotspot, int, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.Level != "" {
		where = append(where, "category = ?")
		args = append(args, filter.Level)
	}
	if filter.State != "" {
		where = append(where, "state = ?")
		args = append(args, filter.State)
	}
	if filter.District != "" {
		where = append(where, "district = ?")
		args = append(args, filter.District)
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, r.db.Rebind("SELECT COUNT(*) FROM emission_hotspots"+clause), args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count hotspots: %w", err)
	}

	offset := (filter.Page - 1) * filter.Limit
	query := r.db.Rebind(`SELECT ` + hotspotColumns + ` FROM emission_hotspots` + clause +
		` ORDER BY score DESC, id LIMIT ? OFFSET ?`)
	hotspots := []Hotspot{}
	if err := r.db.SelectContext(ctx, &hotspots, query, append(args, filter.Limit, offset)...); err != nil {
		return nil, 0, fmt.Errorf("failed to list hotspots: %w", err)
	}
	return hotspots, total, nil
}

// Stats groups the stored hotspots by level
func (r *sqlRepository) Stats(ctx context.Context) (*Stats, error) {
	var rows []struct {
		Level Level `db:"category"`
		LevelStats
	}
	query := `SELECT category, COUNT(*) AS count, AVG(score) AS avg_score,
		MAX(score) AS max_score, MIN(score) AS min_score
		FROM emission_hotspots GROUP BY category`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to aggregate hotspots: %w", err)
	}

	stats := &Stats{Levels: make(map[Level]LevelStats, len(Levels))}
	for _, l := range Levels {
		stats.Levels[l] = LevelStats{}
	}
	for _, row := range rows {
		stats.Levels[row.Level] = row.LevelStats
		stats.Total += row.Count
	}
	return stats, nil
}

// ByState counts hotspots per state and level, busiest state first
func (r *sqlRepository) ByState(ctx context.Context) ([]StateBreakdown, error) {
	var rows []struct {
		State string `db:"state"`
		Level Level  `db:"category"`
		Count int    `db:"count"`
	}
	query := `SELECT state, category, COUNT(*) AS count
		FROM emission_hotspots GROUP BY state, category ORDER BY state, category`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to group hotspots by state: %w", err)
	}

	index := make(map[string]int)
	breakdown := []StateBreakdown{}
	for _, row := range rows {
		i, ok := index[row.State]
		if !ok {
			i = len(breakdown)
			index[row.State] = i
			breakdown = append(breakdown, StateBreakdown{State: row.State})
		}
		breakdown[i].Levels = append(breakdown[i].Levels, LevelCount{Level: row.Level, Count: row.Count})
		breakdown[i].Total += row.Count
	}

	sort.SliceStable(breakdown, func(a, b int) bool {
		return breakdown[a].Total > breakdown[b].Total
	})
	return breakdown, nil
}

// InBounds returns located hotspots inside bound, or any located hotspots
// when bound is nil
func (r *sqlRepository) InBounds(ctx context.Context, bound *orb.Bound, limit int) ([]Hotspot, error) {
	query := `SELECT ` + hotspotColumns + ` FROM emission_hotspots
		WHERE latitude IS NOT NULL AND longitude IS NOT NULL`
	var args []interface{}
	if bound != nil {
		query += ` AND latitude BETWEEN ? AND ? AND longitude BETWEEN ? AND ?`
		args = append(args, bound.Min.Lat(), bound.Max.Lat(), bound.Min.Lon(), bound.Max.Lon())
	}
	query += ` ORDER BY score DESC, id LIMIT ?`
	args = append(args, limit)

	hotspots := []Hotspot{}
	if err := r.db.SelectContext(ctx, &hotspots, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to query hotspots in bounds: %w", err)
	}
	return hotspots, nil
}

// Count returns the number of stored hotspots
func (r *sqlRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM emission_hotspots"); err != nil {
		return 0, fmt.Errorf("failed to count hotspots: %w", err)
	}
	return n, nil
}
