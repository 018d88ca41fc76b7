package service

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	"visitops_backend/internal/leads/repository"
	"visitops_backend/platform/logger"
)

type fakeLeadStore struct {
	leads map[string]*repository.Lead
}

func leadKey(l *repository.Lead) string {
	return strings.Join([]string{
		l.CustomerID.String(), l.City, l.LocationPref, l.ConfigPref,
	}, "|")
}

func (s *fakeLeadStore) Upsert(_ context.Context, lead *repository.Lead) (bool, error) {
	if s.leads == nil {
		s.leads = make(map[string]*repository.Lead)
	}
	key := leadKey(lead)
	_, existed := s.leads[key]
	s.leads[key] = lead
	return !existed, nil
}

func (s *fakeLeadStore) List(_ context.Context, _ int) ([]repository.Lead, error) {
	var out []repository.Lead
	for _, l := range s.leads {
		out = append(out, *l)
	}
	return out, nil
}

type fakeCustomers struct {
	upserts map[string]string
	ids     map[string]uuid.UUID
}

func (c *fakeCustomers) UpsertCustomer(_ context.Context, name, phoneNorm string) (uuid.UUID, error) {
	if c.upserts == nil {
		c.upserts = make(map[string]string)
		c.ids = make(map[string]uuid.UUID)
	}
	c.upserts[phoneNorm] = name
	if _, ok := c.ids[phoneNorm]; !ok {
		c.ids[phoneNorm] = uuid.New()
	}
	return c.ids[phoneNorm], nil
}

func newTestService() (*Service, *fakeLeadStore, *fakeCustomers) {
	store := &fakeLeadStore{}
	customers := &fakeCustomers{}
	return New(store, customers, logger.New("development")), store, customers
}

func TestImportCSVNormalizesAndUpserts(t *testing.T) {
	svc, store, customers := newTestService()

	csv := strings.Join([]string{
		"name,phone,source,city,location_pref,config_pref,budget_min,budget_max",
		"Asha Rao,9876543210,website,Bengaluru,Indiranagar,2BHK,5000000,7500000",
		"Ravi Kumar,+91 98222 11001,referral,Pune,,,,",
	}, "\n")

	result, err := svc.ImportCSV(context.Background(), strings.NewReader(csv), "manual")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result.Rows != 2 || result.Imported != 2 || result.Skipped != 0 {
		t.Fatalf("result = %+v, want 2 rows, 2 imported, 0 skipped", result)
	}
	if customers.upserts["+919876543210"] != "Asha Rao" {
		t.Fatal("domestic number must be normalized to E.164 and upsert the customer")
	}

	leads, _ := store.List(context.Background(), 10)
	var found bool
	for _, l := range leads {
		if l.City == "Bengaluru" {
			found = true
			if l.LocationPref != "Indiranagar" || l.ConfigPref != "2BHK" {
				t.Fatalf("preferences not captured: %+v", l)
			}
			if l.BudgetMin != 5000000 || l.BudgetMax != 7500000 {
				t.Fatalf("budget range not captured: %+v", l)
			}
			if l.Source != "website" {
				t.Fatalf("lead source = %s, want website", l.Source)
			}
		}
	}
	if !found {
		t.Fatal("expected a Bengaluru lead")
	}
}

func TestImportCSVOneLeadPerRequirement(t *testing.T) {
	svc, store, _ := newTestService()

	// Same customer, two distinct city requirements, plus an exact repeat.
	csv := strings.Join([]string{
		"name,phone,city",
		"Asha Rao,9876543210,Bengaluru",
		"Asha Rao,9876543210,Pune",
		"A. Rao,+919876543210,Bengaluru",
	}, "\n")

	result, err := svc.ImportCSV(context.Background(), strings.NewReader(csv), "manual")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result.Imported != 2 || result.Skipped != 1 {
		t.Fatalf("result = %+v, want 2 imported and 1 skipped", result)
	}
	if len(store.leads) != 2 {
		t.Fatalf("expected 2 stored leads, got %d", len(store.leads))
	}
}

func TestImportCSVUpdatesExistingRequirement(t *testing.T) {
	svc, store, _ := newTestService()

	first := "name,phone,city,requirement_text\nAsha Rao,9876543210,Bengaluru,near metro"
	if _, err := svc.ImportCSV(context.Background(), strings.NewReader(first), "manual"); err != nil {
		t.Fatalf("first import: %v", err)
	}

	second := "name,phone,city,requirement_text\nAsha Rao,9876543210,Bengaluru,near metro and park"
	result, err := svc.ImportCSV(context.Background(), strings.NewReader(second), "manual")
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if result.Imported != 0 || result.Updated != 1 {
		t.Fatalf("result = %+v, want 0 imported and 1 updated", result)
	}

	leads, _ := store.List(context.Background(), 10)
	if len(leads) != 1 || leads[0].RequirementText != "near metro and park" {
		t.Fatalf("requirement text must refresh on re-sync: %+v", leads)
	}
}

func TestImportCSVSkipsUnusableRows(t *testing.T) {
	svc, _, _ := newTestService()

	csv := strings.Join([]string{
		"name,phone,budget_min",
		",9876543210,",
		"No Phone,,",
		"Bad Phone,not-a-number,",
		"Bad Budget,9876500002,lots",
		"Good,9876500001,",
	}, "\n")

	result, err := svc.ImportCSV(context.Background(), strings.NewReader(csv), "manual")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result.Imported != 1 || result.Skipped != 4 {
		t.Fatalf("result = %+v, want 1 imported and 4 skipped", result)
	}
}

func TestImportCSVRejectsMissingColumns(t *testing.T) {
	svc, _, _ := newTestService()

	if _, err := svc.ImportCSV(context.Background(), strings.NewReader("name,email\nA,a@b.c"), "manual"); err == nil {
		t.Fatal("import without a phone column must fail")
	}
	if _, err := svc.ImportCSV(context.Background(), strings.NewReader(""), "manual"); err == nil {
		t.Fatal("empty input must fail")
	}
}
