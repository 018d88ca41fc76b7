package transport

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestCompleteVisitResponseDistinguishesUnclassified(t *testing.T) {
	// A completion whose classification has not run yet must not read as a
	// repeat visit.
	unclassified, err := json.Marshal(CompleteVisitResponse{VisitID: uuid.New(), CompletionMode: "geo_checkin"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(unclassified), `"unique":null`) {
		t.Fatalf("unclassified completion must report unique as null, got %s", unclassified)
	}

	verdict := false
	repeat, err := json.Marshal(CompleteVisitResponse{VisitID: uuid.New(), CompletionMode: "geo_checkin", Unique: &verdict})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(repeat), `"unique":false`) {
		t.Fatalf("classified repeat must report unique false, got %s", repeat)
	}
}
