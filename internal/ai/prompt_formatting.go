// prompt_formatting.go - Helpers that render prompt sections

package ai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/bosocmputer/document_gateway/internal/countries"
)

// FormatSchemaSection renders field -> description pairs as indented JSON.
// Keys are sorted and non-ASCII text is kept as is.
func FormatSchemaSection(schema map[string]string) string {
	if len(schema) == 0 {
		return "{}"
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	// map keys are emitted in sorted order by encoding/json
	if err := enc.Encode(schema); err != nil {
		return "{}"
	}
	return strings.TrimRight(buf.String(), "\n")
}

// FormatKeywordList renders the requested keywords one per line, in request order.
func FormatKeywordList(keywords []string) string {
	var sb strings.Builder
	for i, kw := range keywords {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "- %s", kw)
	}
	return sb.String()
}

// FormatCountryContext describes the country's identifier and the labels usually printed on its licenses.
func FormatCountryContext(country string, cfg countries.CountryConfig) string {
	var sb strings.Builder
	if cfg.UniqueIDFieldName != "" {
		fmt.Fprintf(&sb, "This is a business license from country code %q. Its unique business identifier is labelled %q on the document.\n",
			strings.ToLower(country), cfg.UniqueIDFieldName)
	}
	if len(cfg.CommonFields) > 0 {
		fmt.Fprintf(&sb, "Labels commonly printed on these licenses: %s.\n", strings.Join(cfg.CommonFields, ", "))
	}
	return sb.String()
}

// FormatCountryCandidates renders the closed list of country codes for the detect prompt.
func FormatCountryCandidates(codes []string, labels map[string]string) string {
	sorted := append([]string(nil), codes...)
	sort.Strings(sorted)

	var sb strings.Builder
	for i, code := range sorted {
		if i > 0 {
			sb.WriteString("\n")
		}
		if label := labels[code]; label != "" {
			fmt.Fprintf(&sb, "- %s (registration number labelled %q)", code, label)
		} else {
			fmt.Fprintf(&sb, "- %s", code)
		}
	}
	return sb.String()
}
