package repository

import (
	"context"
	"fmt"

	"github.com/Shivanand-hulikatti/event-admission/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StatsRepository aggregates the administrative dashboard figures.
type StatsRepository struct {
	db *pgxpool.Pool
}

// NewStatsRepository constructs a StatsRepository.
func NewStatsRepository(db *pgxpool.Pool) *StatsRepository {
	return &StatsRepository{db: db}
}

// Statistics returns totals across events, registrations and users.
func (r *StatsRepository) Statistics(ctx context.Context) (*model.Statistics, error) {
	stats := &model.Statistics{UsersByRole: map[model.Role]int64{}}

	err := r.db.QueryRow(ctx,
		`SELECT (SELECT COUNT(*) FROM events),
		        (SELECT COUNT(*) FROM registrations),
		        (SELECT COUNT(*) FROM events WHERE date >= date_trunc('day', now()))`,
	).Scan(&stats.TotalEvents, &stats.TotalRegistrations, &stats.UpcomingEvents)
	if err != nil {
		return nil, fmt.Errorf("count totals: %w", err)
	}

	rows, err := r.db.Query(ctx, `SELECT role, COUNT(*) FROM users GROUP BY role`)
	if err != nil {
		return nil, fmt.Errorf("count users by role: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			role  string
			count int64
		)
		if err := rows.Scan(&role, &count); err != nil {
			return nil, fmt.Errorf("scan role count: %w", err)
		}
		stats.UsersByRole[model.Role(role)] = count
	}
	return stats, rows.Err()
}
