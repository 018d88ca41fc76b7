package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"visitops_backend/internal/reports/repository"
	"visitops_backend/platform/logger"
)

// Period is a half-open [From, To) reporting window.
type Period struct {
	From time.Time
	To   time.Time
}

// DefaultPeriod covers the last 30 days.
func DefaultPeriod(now time.Time) Period {
	return Period{From: now.AddDate(0, 0, -30), To: now}
}

type Service struct {
	repo *repository.Repository
	log  *logger.Logger
	now  func() time.Time
}

func New(repo *repository.Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log, now: time.Now}
}

func (s *Service) Funnel(ctx context.Context, p Period) (*repository.Funnel, error) {
	return s.repo.Funnel(ctx, p.From, p.To)
}

func (s *Service) BrokerReliability(ctx context.Context, p Period) ([]repository.BrokerReliability, error) {
	return s.repo.BrokerReliability(ctx, p.From, p.To, s.now().UTC())
}

func (s *Service) DailyVisitCounts(ctx context.Context, p Period) ([]repository.DailyVisitCount, error) {
	return s.repo.DailyVisitCounts(ctx, p.From, p.To)
}

// WriteBrokerReliabilityCSV streams the reliability report as CSV.
func (s *Service) WriteBrokerReliabilityCSV(ctx context.Context, p Period, w io.Writer) error {
	rows, err := s.BrokerReliability(ctx, p)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	header := []string{"broker_id", "visits_booked", "visits_completed",
		"slots_cancelled", "short_notice_cancellations", "active_flags", "completion_rate_pct"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}
	for _, b := range rows {
		record := []string{
			b.BrokerID.String(),
			strconv.FormatInt(b.VisitsBooked, 10),
			strconv.FormatInt(b.VisitsCompleted, 10),
			strconv.FormatInt(b.SlotsCancelled, 10),
			strconv.FormatInt(b.ShortNoticeCount, 10),
			strconv.FormatInt(b.ActiveFlags, 10),
			strconv.FormatFloat(b.CompletionRatePct, 'f', 1, 64),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteDailyVisitCountsCSV streams the daily visit counts as CSV.
func (s *Service) WriteDailyVisitCountsCSV(ctx context.Context, p Period, w io.Writer) error {
	rows, err := s.DailyVisitCounts(ctx, p)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"day", "unique_visits", "repeat_visits"}); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}
	for _, d := range rows {
		record := []string{
			d.Day.Format("2006-01-02"),
			strconv.FormatInt(d.Unique, 10),
			strconv.FormatInt(d.NonUnique, 10),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
