// Package templates holds the customer message templates and the
// {placeholder} renderer.
package templates

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed templates.yaml
var templatesYAML []byte

// Template names.
const (
	TemplateVisitConfirmation      = "visit_confirmation"
	TemplateVisitRescheduled       = "visit_rescheduled_confirmation"
	TemplateCustomerCancel         = "customer_cancel_confirmation"
	TemplateBrokerCancelPriority   = "broker_cancel_with_priority"
	TemplateBrokerCancelNoPriority = "broker_cancel_without_priority"
	TemplateOTPVerification        = "otp_verification"
	TemplateCustomerHelp           = "customer_help"
)

type templateFile struct {
	Templates map[string]struct {
		Body string `yaml:"body"`
	} `yaml:"templates"`
}

// Catalog holds the message templates loaded at startup.
type Catalog struct {
	bodies map[string]string
}

// LoadCatalog parses the embedded template file.
func LoadCatalog() (*Catalog, error) {
	var file templateFile
	if err := yaml.Unmarshal(templatesYAML, &file); err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	bodies := make(map[string]string, len(file.Templates))
	for name, t := range file.Templates {
		if strings.TrimSpace(t.Body) == "" {
			return nil, fmt.Errorf("template %s has an empty body", name)
		}
		bodies[name] = t.Body
	}
	return &Catalog{bodies: bodies}, nil
}

// Render fills {placeholder} markers in the named template. Placeholders
// without a value are left in the output untouched so a missing field is
// visible instead of silently blank.
func (c *Catalog) Render(name string, data map[string]string) (string, error) {
	body, ok := c.bodies[name]
	if !ok {
		return "", fmt.Errorf("unknown template %s", name)
	}
	return fillPlaceholders(body, data), nil
}

func fillPlaceholders(body string, data map[string]string) string {
	var b strings.Builder
	b.Grow(len(body))

	for {
		open := strings.IndexByte(body, '{')
		if open < 0 {
			b.WriteString(body)
			return b.String()
		}
		end := strings.IndexByte(body[open:], '}')
		if end < 0 {
			b.WriteString(body)
			return b.String()
		}
		end += open

		b.WriteString(body[:open])
		key := body[open+1 : end]
		if value, ok := data[key]; ok {
			b.WriteString(value)
		} else {
			b.WriteString(body[open : end+1])
		}
		body = body[end+1:]
	}
}
