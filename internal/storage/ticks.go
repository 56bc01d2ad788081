package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/guttosm/tradejournal/internal/domain/models"
)

// TickRepository reads the administrator-curated tick table.
type TickRepository interface {
	ListTickDetails(ctx context.Context) ([]models.TickDetails, error)
}

type tickRepository struct {
	db *sql.DB
}

func NewTickRepository(db *sql.DB) TickRepository {
	return &tickRepository{db: db}
}

func (r *tickRepository) ListTickDetails(ctx context.Context) ([]models.TickDetails, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT ticker, tick_value, tick_size FROM tick_details ORDER BY ticker`)
	if err != nil {
		return nil, fmt.Errorf("query tick details: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.TickDetails
	for rows.Next() {
		var d models.TickDetails
		if err := rows.Scan(&d.Ticker, &d.TickValue, &d.TickSize); err != nil {
			return nil, fmt.Errorf("scan tick details: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
