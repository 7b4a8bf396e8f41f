// prompts.go - Prompt templates for every extraction task
package ai

import (
	"fmt"
	"strings"

	"github.com/bosocmputer/document_gateway/internal/countries"
)

// PromptTask selects which instruction text is generated.
// The set of variants is closed: GenericTask, KeywordTask, LicenseTask,
// DetectCountryTask, AdaptiveTask and ReceiptTask.
type PromptTask interface {
	promptTask()
}

// GenericTask asks for document classification plus free structured fields.
type GenericTask struct{}

// KeywordTask asks for the values of a fixed list of keywords.
type KeywordTask struct {
	Keywords []string
}

// LicenseTask asks for the canonical business license fields of one country.
type LicenseTask struct {
	Country string
	Config  countries.CountryConfig
}

// DetectCountryTask asks which configured country issued the document.
// IdentifierLabels optionally maps a code to its registration number label.
type DetectCountryTask struct {
	Candidates       []string
	IdentifierLabels map[string]string
}

// AdaptiveTask lets the model choose the JSON shape.
type AdaptiveTask struct{}

// ReceiptTask asks for a comprehensive receipt structure.
type ReceiptTask struct{}

func (GenericTask) promptTask()       {}
func (KeywordTask) promptTask()       {}
func (LicenseTask) promptTask()       {}
func (DetectCountryTask) promptTask() {}
func (AdaptiveTask) promptTask()      {}
func (ReceiptTask) promptTask()       {}

// UnknownCountry is the sentinel the detect prompt asks for when no candidate fits.
const UnknownCountry = "unknown"

// BuildPrompt renders the instruction text for task. It has no side effects and
// returns the same text for the same task.
func BuildPrompt(task PromptTask) string {
	var body string
	switch t := task.(type) {
	case GenericTask:
		body = buildGenericPrompt()
	case KeywordTask:
		body = buildKeywordPrompt(t.Keywords)
	case LicenseTask:
		body = buildLicensePrompt(t)
	case DetectCountryTask:
		body = buildDetectCountryPrompt(t)
	case AdaptiveTask:
		body = buildAdaptivePrompt()
	case ReceiptTask:
		body = buildReceiptPrompt()
	default:
		panic(fmt.Sprintf("ai: unknown prompt task %T", task))
	}
	return strings.TrimSpace(body) + "\n\n" + GetJSONOnlyRules()
}

func buildGenericPrompt() string {
	return `Analyze this document image.

1. Classify the document: decide what kind of document it is (for example invoice, receipt,
   business_license, id_card, bank_statement, contract, letter, form, other).
2. Explain briefly which visual or textual evidence led to the classification.
3. Extract every piece of information that is clearly readable into structured key/value fields.
   Use short snake_case keys that describe the value. Keep values exactly as printed.

Respond with a JSON object of exactly this shape:
{
  "document_type": "<document type>",
  "classification_reasoning": "<one or two sentences>",
  "extracted_data": {
    "structured_fields": {
      "<field_name>": "<value>"
    }
  }
}`
}

func buildKeywordPrompt(keywords []string) string {
	return fmt.Sprintf(`Analyze this document image and find the value printed for each of the following keywords:

%s

Rules:
- Use each keyword exactly as written above as the JSON key.
- The value is the text the document shows for that keyword, as a string.
- If a keyword is not found in the document, omit that key entirely. Do not emit null for it.
- Do not add keys that are not in the list.`, FormatKeywordList(keywords))
}

func buildLicensePrompt(t LicenseTask) string {
	var sb strings.Builder
	sb.WriteString("Analyze this business license document and extract the following information as a JSON object:\n")
	sb.WriteString(FormatSchemaSection(t.Config.OCRSchema))
	sb.WriteString("\n")

	if ctx := FormatCountryContext(t.Country, t.Config); ctx != "" {
		sb.WriteString("\n")
		sb.WriteString(ctx)
	}

	sb.WriteString(GetLicenseExtractionRules())
	return sb.String()
}

func buildDetectCountryPrompt(t DetectCountryTask) string {
	return fmt.Sprintf(`Look at this business license document and decide which country issued it.

Choose exactly one code from this list of supported countries:
%s

If the document does not clearly belong to any of these countries, answer with "%s".

Respond with a JSON object of exactly this shape:
{"country_code": "<one code from the list, or %s>"}`,
		FormatCountryCandidates(t.Candidates, t.IdentifierLabels), UnknownCountry, UnknownCountry)
}

func buildAdaptivePrompt() string {
	return `Analyze this document image and extract ALL relevant information into a well-structured JSON object.

First decide what kind of document this is, then design the JSON structure that best represents it.

Guidelines:
1. Use clear, descriptive field names that make sense for the data
2. Group related information logically into nested objects
3. Use arrays for repeated items (line items, entries, people)
4. Use numbers for amounts and quantities, strings for identifiers and dates
5. Include a "document_type" field describing the document
6. The top level of the answer must be a single JSON object, never an array or a plain value`
}

func buildReceiptPrompt() string {
	return `Analyze this receipt document and extract ALL relevant information into a well-structured JSON object.

Please create the most appropriate JSON structure based on what you can see in the receipt. Include:
- Merchant/store information (name, address, phone, tax id)
- Transaction details (date, time, receipt number)
- All purchased items with their details (name, quantity, unit price, amount)
- Financial information (subtotal, tax, discounts, total)
- Payment information (method, card details if visible)
- Any other relevant information you can extract

Guidelines:
1. Use clear, descriptive field names that make sense for the data
2. Group related information logically (e.g., merchant, items, totals)
3. For multiple items, use an array
4. Extract monetary values as numbers without currency symbols
5. If you can't read something clearly, use null for that value`
}
