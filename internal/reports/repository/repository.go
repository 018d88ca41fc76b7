package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Funnel is the booking-to-completion pipeline over a period.
type Funnel struct {
	Booked              int64 `json:"booked"`
	Completed           int64 `json:"completed"`
	UniqueCompleted     int64 `json:"uniqueCompleted"`
	RepeatCompleted     int64 `json:"repeatCompleted"`
	CancelledByBroker   int64 `json:"cancelledByBroker"`
	CancelledByCustomer int64 `json:"cancelledByCustomer"`
	Rescheduled         int64 `json:"rescheduled"`
}

// BrokerReliability is the per-broker accountability summary.
type BrokerReliability struct {
	BrokerID          uuid.UUID `json:"brokerId"`
	VisitsBooked      int64     `json:"visitsBooked"`
	VisitsCompleted   int64     `json:"visitsCompleted"`
	SlotsCancelled    int64     `json:"slotsCancelled"`
	ShortNoticeCount  int64     `json:"shortNoticeCount"`
	ActiveFlags       int64     `json:"activeFlags"`
	CompletionRatePct float64   `json:"completionRatePct"`
}

// DailyVisitCount buckets completed visits per day, split by uniqueness.
type DailyVisitCount struct {
	Day       time.Time `json:"day"`
	Unique    int64     `json:"unique"`
	NonUnique int64     `json:"nonUnique"`
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Funnel(ctx context.Context, from, to time.Time) (*Funnel, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT
			count(*),
			count(*) FILTER (WHERE status = 'completed'),
			count(*) FILTER (WHERE status = 'completed' AND is_unique_visit = true),
			count(*) FILTER (WHERE status = 'completed' AND is_unique_visit = false),
			count(*) FILTER (WHERE status = 'cancelled_by_broker'),
			count(*) FILTER (WHERE status = 'cancelled_by_customer'),
			count(*) FILTER (WHERE status = 'rescheduled_by_customer')
		FROM visits
		WHERE created_at >= $1 AND created_at < $2`,
		from, to)

	var f Funnel
	err := row.Scan(&f.Booked, &f.Completed, &f.UniqueCompleted, &f.RepeatCompleted,
		&f.CancelledByBroker, &f.CancelledByCustomer, &f.Rescheduled)
	if err != nil {
		return nil, fmt.Errorf("funnel report: %w", err)
	}
	return &f, nil
}

func (r *Repository) BrokerReliability(ctx context.Context, from, to, asOf time.Time) ([]BrokerReliability, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT
			s.broker_id,
			count(v.id),
			count(v.id) FILTER (WHERE v.status = 'completed'),
			count(DISTINCT s.id) FILTER (WHERE s.status = 'cancelled'),
			(SELECT count(*) FROM cancellation_incidents ci
			  WHERE ci.broker_id = s.broker_id
			    AND ci.raised_at >= $1 AND ci.raised_at < $2),
			(SELECT count(*) FROM broker_flags bf
			  WHERE bf.broker_id = s.broker_id AND bf.decays_at > $3)
		FROM slots s
		LEFT JOIN visits v ON v.slot_id = s.id
		WHERE s.created_at >= $1 AND s.created_at < $2
		GROUP BY s.broker_id
		ORDER BY s.broker_id`,
		from, to, asOf)
	if err != nil {
		return nil, fmt.Errorf("broker reliability report: %w", err)
	}
	defer rows.Close()

	var out []BrokerReliability
	for rows.Next() {
		var b BrokerReliability
		if err := rows.Scan(&b.BrokerID, &b.VisitsBooked, &b.VisitsCompleted,
			&b.SlotsCancelled, &b.ShortNoticeCount, &b.ActiveFlags); err != nil {
			return nil, fmt.Errorf("scan broker reliability: %w", err)
		}
		if b.VisitsBooked > 0 {
			b.CompletionRatePct = 100 * float64(b.VisitsCompleted) / float64(b.VisitsBooked)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *Repository) DailyVisitCounts(ctx context.Context, from, to time.Time) ([]DailyVisitCount, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT
			date_trunc('day', completed_at) AS day,
			count(*) FILTER (WHERE is_unique_visit = true),
			count(*) FILTER (WHERE is_unique_visit = false OR is_unique_visit IS NULL)
		FROM visits
		WHERE status = 'completed' AND completed_at >= $1 AND completed_at < $2
		GROUP BY day
		ORDER BY day`,
		from, to)
	if err != nil {
		return nil, fmt.Errorf("daily visit counts: %w", err)
	}
	defer rows.Close()

	var out []DailyVisitCount
	for rows.Next() {
		var d DailyVisitCount
		if err := rows.Scan(&d.Day, &d.Unique, &d.NonUnique); err != nil {
			return nil, fmt.Errorf("scan daily visit count: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
