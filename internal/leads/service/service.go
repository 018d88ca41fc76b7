package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"visitops_backend/internal/leads/repository"
	"visitops_backend/platform/apperr"
	"visitops_backend/platform/logger"
	"visitops_backend/platform/phone"
)

// ImportResult summarizes one CSV import run.
type ImportResult struct {
	Rows     int `json:"rows"`
	Imported int `json:"imported"`
	Updated  int `json:"updated"`
	Skipped  int `json:"skipped"`
}

// LeadStore persists imported leads.
type LeadStore interface {
	Upsert(ctx context.Context, lead *repository.Lead) (bool, error)
	List(ctx context.Context, limit int) ([]repository.Lead, error)
}

// CustomerDirectory upserts the shared customer identity per phone.
type CustomerDirectory interface {
	UpsertCustomer(ctx context.Context, name, phoneNorm string) (uuid.UUID, error)
}

type Service struct {
	repo      LeadStore
	customers CustomerDirectory
	log       *logger.Logger
	now       func() time.Time
}

func New(repo LeadStore, customers CustomerDirectory, log *logger.Logger) *Service {
	return &Service{repo: repo, customers: customers, log: log, now: time.Now}
}

// ImportCSV reads leads from a CSV stream. The header must carry name and
// phone columns; city, location_pref, config_pref, budget_min, budget_max and
// requirement_text are optional. Phones are normalized before writing and each
// row upserts the customer record so bookings and lead history share one
// identity per phone. A row whose (customer, city, preferences, budget)
// requirement already exists refreshes that lead rather than duplicating it.
func (s *Service) ImportCSV(ctx context.Context, r io.Reader, source string) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, apperr.BadRequest("empty or unreadable CSV")
	}
	cols := columnIndex(header)
	nameIdx, ok := cols["name"]
	if !ok {
		return nil, apperr.BadRequest("CSV is missing a name column")
	}
	phoneIdx, ok := cols["phone"]
	if !ok {
		return nil, apperr.BadRequest("CSV is missing a phone column")
	}

	result := &ImportResult{}
	seen := make(map[string]bool)
	syncedAt := s.now().UTC()

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read CSV row: %w", err)
		}
		result.Rows++

		name := strings.TrimSpace(field(record, nameIdx))
		rawPhone := field(record, phoneIdx)
		if name == "" || rawPhone == "" {
			result.Skipped++
			continue
		}

		phoneNorm := phone.NormalizeE164(rawPhone)
		if !strings.HasPrefix(phoneNorm, "+") {
			result.Skipped++
			continue
		}

		budgetMin, okMin := budgetField(record, cols, "budget_min")
		budgetMax, okMax := budgetField(record, cols, "budget_max")
		if !okMin || !okMax {
			result.Skipped++
			continue
		}

		lead := &repository.Lead{
			ID:              uuid.New(),
			City:            optionalField(record, cols, "city"),
			LocationPref:    optionalField(record, cols, "location_pref"),
			ConfigPref:      optionalField(record, cols, "config_pref"),
			BudgetMin:       budgetMin,
			BudgetMax:       budgetMax,
			RequirementText: optionalField(record, cols, "requirement_text"),
			Source:          source,
			LastSyncedAt:    syncedAt,
		}
		if v := optionalField(record, cols, "source"); v != "" {
			lead.Source = v
		}

		// One lead per distinct requirement; repeats within the file keep
		// the first occurrence.
		dedupeKey := strings.Join([]string{
			phoneNorm, lead.City, lead.LocationPref, lead.ConfigPref,
			strconv.FormatFloat(lead.BudgetMin, 'f', -1, 64),
			strconv.FormatFloat(lead.BudgetMax, 'f', -1, 64),
		}, "|")
		if seen[dedupeKey] {
			result.Skipped++
			continue
		}
		seen[dedupeKey] = true

		customerID, err := s.customers.UpsertCustomer(ctx, name, phoneNorm)
		if err != nil {
			return nil, err
		}
		lead.CustomerID = customerID

		created, err := s.repo.Upsert(ctx, lead)
		if err != nil {
			return nil, err
		}
		if created {
			result.Imported++
		} else {
			result.Updated++
		}
	}

	s.log.Info("lead import finished",
		"source", source, "rows", result.Rows, "imported", result.Imported,
		"updated", result.Updated, "skipped", result.Skipped)
	return result, nil
}

// ImportFile imports the configured on-disk CSV. Used by the periodic sync
// task and the manual trigger endpoint.
func (s *Service) ImportFile(ctx context.Context, path string) (*ImportResult, error) {
	if path == "" {
		return nil, apperr.BadRequest("no lead import file configured")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open lead file: %w", err)
	}
	defer f.Close()
	return s.ImportCSV(ctx, f, "file_sync")
}

func (s *Service) List(ctx context.Context, limit int) ([]repository.Lead, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.repo.List(ctx, limit)
}

func columnIndex(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return cols
}

func field(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return record[idx]
}

func optionalField(record []string, cols map[string]int, name string) string {
	idx, ok := cols[name]
	if !ok {
		return ""
	}
	return strings.TrimSpace(field(record, idx))
}

// budgetField parses an optional numeric column. Absent or blank values are
// zero; unparseable values mark the row unusable.
func budgetField(record []string, cols map[string]int, name string) (float64, bool) {
	raw := optionalField(record, cols, name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}
