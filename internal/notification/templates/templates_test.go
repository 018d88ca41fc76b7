package templates

import (
	"strings"
	"testing"
)

func TestLoadCatalogHasAllTemplates(t *testing.T) {
	catalog, err := LoadCatalog()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}

	names := []string{
		TemplateVisitConfirmation,
		TemplateVisitRescheduled,
		TemplateCustomerCancel,
		TemplateBrokerCancelPriority,
		TemplateBrokerCancelNoPriority,
		TemplateOTPVerification,
		TemplateCustomerHelp,
	}
	for _, name := range names {
		if _, err := catalog.Render(name, nil); err != nil {
			t.Fatalf("template %s missing: %v", name, err)
		}
	}
}

func TestRenderFillsPlaceholders(t *testing.T) {
	catalog, err := LoadCatalog()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}

	body, err := catalog.Render(TemplateVisitConfirmation, map[string]string{
		"customer_name": "Asha",
		"visit_time":    "Sat, 5 Sep at 11:00",
		"visit_id":      "v-123",
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{"Asha", "Sat, 5 Sep at 11:00", "v-123"} {
		if !strings.Contains(body, want) {
			t.Fatalf("rendered body missing %q: %s", want, body)
		}
	}
	if strings.Contains(body, "{customer_name}") {
		t.Fatalf("placeholder not substituted: %s", body)
	}
}

func TestRenderPreservesUnknownPlaceholders(t *testing.T) {
	catalog, err := LoadCatalog()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}

	body, err := catalog.Render(TemplateOTPVerification, map[string]string{
		"customer_name": "Ravi",
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(body, "{otp_code}") {
		t.Fatalf("unknown placeholder must stay visible: %s", body)
	}
}

func TestRenderUnknownTemplate(t *testing.T) {
	catalog, err := LoadCatalog()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	if _, err := catalog.Render("no_such_template", nil); err == nil {
		t.Fatal("rendering an unknown template must fail")
	}
}

func TestFillPlaceholdersEdgeCases(t *testing.T) {
	got := fillPlaceholders("plain text", map[string]string{"a": "b"})
	if got != "plain text" {
		t.Fatalf("plain text changed: %s", got)
	}

	got = fillPlaceholders("dangling {brace", map[string]string{"brace": "x"})
	if got != "dangling {brace" {
		t.Fatalf("unterminated placeholder must be preserved: %s", got)
	}

	got = fillPlaceholders("{a}{a} and {b}", map[string]string{"a": "1", "b": "2"})
	if got != "11 and 2" {
		t.Fatalf("repeated placeholders: %s", got)
	}
}
