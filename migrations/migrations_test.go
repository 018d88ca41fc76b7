package migrations

import (
	"bufio"
	"strings"
	"testing"
)

// tableColumns parses the CREATE TABLE statements out of the embedded
// migration so the schema can be checked against what the repositories
// actually select and write.
func tableColumns(t *testing.T) map[string]map[string]bool {
	t.Helper()

	data, err := FS.ReadFile("00001_init.sql")
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}

	tables := make(map[string]map[string]bool)
	var current string

	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if strings.HasPrefix(line, "CREATE TABLE ") {
			current = strings.TrimSuffix(strings.TrimPrefix(line, "CREATE TABLE "), " (")
			tables[current] = make(map[string]bool)
			continue
		}
		if current == "" || line == "" {
			continue
		}
		if strings.HasPrefix(line, ");") {
			current = ""
			continue
		}

		first := strings.TrimSuffix(strings.Fields(line)[0], ",")
		switch first {
		case "UNIQUE", "PRIMARY", "CONSTRAINT", "FOREIGN", "CHECK":
			continue
		}
		tables[current][first] = true
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan migration: %v", err)
	}
	return tables
}

// Every column the repository layer names must exist in the initial schema;
// a miss surfaces as SQLSTATE 42703 on the first query against the table.
func TestSchemaCoversRepositoryColumns(t *testing.T) {
	required := map[string][]string{
		"brokers": {"id", "status", "deactivated_at", "updated_at"},
		"customers": {
			"id", "name", "phone_norm", "created_at", "updated_at",
		},
		"properties": {
			"id", "broker_id", "title", "description", "city", "location_text",
			"asset_type", "configuration", "price", "area_sqft", "lat", "lng",
			"image_url", "status", "hidden_from_customers", "duplicate_score",
			"primary_property_id", "removal_reason", "created_at", "updated_at",
			"version",
		},
		"property_removal_log": {
			"id", "property_id", "broker_id", "reason", "outcome", "removed_at",
		},
		"duplicate_review_queue": {
			"id", "property_id", "matched_property_id", "score", "status",
			"auto_hidden", "resolution", "resolved_by", "notes", "created_at",
			"resolved_at", "version",
		},
		"slots": {
			"id", "broker_id", "city", "start_at", "end_at", "status",
			"cancel_reason", "cancelled_at", "version", "created_at", "updated_at",
		},
		"visits": {
			"id", "slot_id", "property_id", "broker_id", "customer_id",
			"start_at", "end_at", "status", "cancelled_by", "cancellation_reason",
			"priority_rebook_until", "checkin_lat", "checkin_lng",
			"distance_meters", "photo_object_key", "exif_lat", "exif_lng",
			"is_unique_visit", "completion_mode", "completed_at", "version",
			"created_at", "updated_at",
		},
		"otp_challenges": {
			"id", "visit_id", "code", "issued_at", "expires_at", "attempts",
			"consumed", "invalidated",
		},
		"cancellation_incidents": {
			"id", "slot_id", "broker_id", "visit_ids", "status",
			"emergency_requested", "emergency_reason", "emergency_details",
			"cancel_reason", "raised_at", "rm_due_at", "srm_due_at",
			"reviewed_by", "review_stage", "review_note", "reviewed_at",
			"flag_issued", "version",
		},
		"broker_flags": {
			"id", "broker_id", "incident_id", "reason", "level", "issued_at",
			"decays_at",
		},
		"broker_penalties": {
			"id", "broker_id", "year", "month", "reason", "created_at",
		},
		"leads": {
			"id", "customer_id", "city", "location_pref", "config_pref",
			"budget_min", "budget_max", "requirement_text", "source",
			"last_synced_at", "created_at",
		},
		"notification_outbox": {
			"id", "template", "recipient_phone", "recipient_name", "body",
			"visit_id", "status", "attempts", "created_at", "sent_at",
		},
	}

	tables := tableColumns(t)
	for table, columns := range required {
		declared, ok := tables[table]
		if !ok {
			t.Fatalf("migration does not create table %s", table)
		}
		for _, col := range columns {
			if !declared[col] {
				t.Fatalf("table %s is missing column %s", table, col)
			}
		}
	}
}
