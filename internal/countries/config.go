// config.go - Per-country business license configuration

package countries

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Canonical business license fields. Every country maps its own labels onto this set.
const (
	FieldTaxID          = "OCR_TAX_ID_NUM"
	FieldBusinessName   = "OCR_BP_NAME_LOCAL"
	FieldRepresentative = "OCR_REPRE_NAME"
	FieldCompanyRegNum  = "OCR_COMP_REG_NUM"
	FieldAddress        = "OCR_FULL_ADDR_LOCAL"
	FieldBusinessType   = "OCR_BIZ_TYPE"
	FieldIndustryType   = "OCR_INDUSTRY_TYPE"
)

// StandardFields lists the canonical license fields in response order.
var StandardFields = []string{
	FieldTaxID,
	FieldBusinessName,
	FieldRepresentative,
	FieldCompanyRegNum,
	FieldAddress,
	FieldBusinessType,
	FieldIndustryType,
}

// IsStandardField reports whether name is one of the canonical license fields.
func IsStandardField(name string) bool {
	for _, f := range StandardFields {
		if f == name {
			return true
		}
	}
	return false
}

// ErrEmptyConfiguration is returned when a source yields no countries at all.
var ErrEmptyConfiguration = errors.New("country configuration is empty")

// CountryConfig describes how one country's business license is read.
//
// FieldMapping translates a label the model may return into a canonical field.
// A nil value means the label carries no canonical meaning and is dropped silently.
// OCRSchema maps canonical field names to the description embedded in the prompt.
type CountryConfig struct {
	UniqueIDFieldName string             `json:"unique_id_field_name" bson:"unique_id_field_name"`
	CommonFields      []string           `json:"common_fields" bson:"common_fields"`
	FieldMapping      map[string]*string `json:"field_mapping" bson:"field_mapping"`
	OCRSchema         map[string]string  `json:"gemini_ocr_schema" bson:"gemini_ocr_schema"`
}

// Validate checks the invariants a configuration must hold before it is served.
func (c CountryConfig) Validate() error {
	if strings.TrimSpace(c.UniqueIDFieldName) == "" {
		return errors.New("unique_id_field_name is required")
	}

	for source, target := range c.FieldMapping {
		if target == nil {
			continue
		}
		if !IsStandardField(*target) {
			return fmt.Errorf("field_mapping %q points to unknown standard field %q", source, *target)
		}
	}

	for field := range c.OCRSchema {
		if !IsStandardField(field) {
			return fmt.Errorf("gemini_ocr_schema key %q is not a standard field", field)
		}
	}
	return nil
}

// Registry is an immutable set of country configurations keyed by lower-cased code.
// It is safe for concurrent use because nothing mutates it after NewRegistry returns.
type Registry struct {
	configs map[string]CountryConfig
	codes   []string
}

// NewRegistry validates every entry and builds a Registry.
// Codes are lower-cased; a configuration that breaks an invariant rejects the whole set.
func NewRegistry(entries map[string]CountryConfig) (*Registry, error) {
	if len(entries) == 0 {
		return nil, ErrEmptyConfiguration
	}

	configs := make(map[string]CountryConfig, len(entries))
	for code, cfg := range entries {
		key := strings.ToLower(strings.TrimSpace(code))
		if key == "" {
			return nil, errors.New("country code must not be empty")
		}
		if _, dup := configs[key]; dup {
			return nil, fmt.Errorf("country %q is configured more than once", key)
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("country %q: %w", key, err)
		}
		configs[key] = copyConfig(cfg)
	}

	codes := make([]string, 0, len(configs))
	for code := range configs {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	return &Registry{configs: configs, codes: codes}, nil
}

// Get looks up a country case-insensitively.
func (r *Registry) Get(code string) (CountryConfig, bool) {
	if r == nil {
		return CountryConfig{}, false
	}
	cfg, ok := r.configs[strings.ToLower(strings.TrimSpace(code))]
	return cfg, ok
}

// Codes returns the configured country codes in sorted order.
func (r *Registry) Codes() []string {
	if r == nil {
		return nil
	}
	out := make([]string, len(r.codes))
	copy(out, r.codes)
	return out
}

// Len returns the number of configured countries.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.configs)
}

func copyConfig(c CountryConfig) CountryConfig {
	out := CountryConfig{
		UniqueIDFieldName: c.UniqueIDFieldName,
		CommonFields:      append([]string(nil), c.CommonFields...),
		FieldMapping:      make(map[string]*string, len(c.FieldMapping)),
		OCRSchema:         make(map[string]string, len(c.OCRSchema)),
	}
	for k, v := range c.FieldMapping {
		if v == nil {
			out.FieldMapping[k] = nil
			continue
		}
		target := *v
		out.FieldMapping[k] = &target
	}
	for k, v := range c.OCRSchema {
		out.OCRSchema[k] = v
	}
	return out
}
