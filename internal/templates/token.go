package templates

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/invoice"
	"github.com/joseph-ayodele/invoice-extractor/internal/patterns"
)

const defaultTokenConfidence = 0.9

// TokenTemplate is a data-driven template: a document matches when all
// tokens appear, and extraction is the generic harvest with the vendor fixed.
type TokenTemplate struct {
	TemplateID string   `yaml:"id"`
	Tokens     []string `yaml:"tokens"`
	Vendor     string   `yaml:"vendor_name"`
	Confidence float64  `yaml:"confidence"`
}

func (t TokenTemplate) ID() string { return t.TemplateID }

func (t TokenTemplate) Matches(raw invoice.RawText) bool {
	return containsAll(raw.String(), t.Tokens)
}

func (t TokenTemplate) Extract(raw invoice.RawText) invoice.Invoice {
	inv := patterns.Harvest(raw)
	if v := strings.TrimSpace(t.Vendor); v != "" {
		inv.VendorName = &v
	}
	inv.ConfidenceScore = t.Confidence
	if inv.ConfidenceScore <= 0 || inv.ConfidenceScore > 1 {
		inv.ConfidenceScore = defaultTokenConfidence
	}
	inv.Method = constants.MethodSpecialized
	return inv
}

type profileFile struct {
	Templates []TokenTemplate `yaml:"templates"`
}

// ParseTokenProfiles decodes a YAML document of the form
//
//	templates:
//	  - id: acme
//	    tokens: [ACME, "Remit to"]
//	    vendor_name: ACME Corp
//	    confidence: 0.9
func ParseTokenProfiles(data []byte) ([]TokenTemplate, error) {
	var pf profileFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parse template profiles: %w", err)
	}
	for i, t := range pf.Templates {
		if strings.TrimSpace(t.TemplateID) == "" {
			return nil, fmt.Errorf("template %d: id is required", i)
		}
		if len(t.Tokens) == 0 {
			return nil, fmt.Errorf("template %q: at least one token is required", t.TemplateID)
		}
	}
	return pf.Templates, nil
}

// LoadTokenProfiles reads path and registers every template it defines
// after the templates already in r.
func LoadTokenProfiles(r *Registry, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read template profiles: %w", err)
	}
	ts, err := ParseTokenProfiles(data)
	if err != nil {
		return 0, err
	}
	for _, t := range ts {
		if err := r.Register(t); err != nil {
			return 0, err
		}
	}
	return len(ts), nil
}
