// types.go - Response payloads returned by the extraction service

package extractor

import "github.com/bosocmputer/document_gateway/internal/countries"

// OCRResponse is the answer of the generic /process operation.
type OCRResponse struct {
	DocumentType            string             `json:"document_type"`
	ClassificationReasoning string             `json:"classification_reasoning"`
	ExtractedData           ExtractedData      `json:"extracted_data"`
	ProcessingMetadata      ProcessingMetadata `json:"processing_metadata"`
}

type ExtractedData struct {
	StructuredFields map[string]any `json:"structured_fields"`
}

type ProcessingMetadata struct {
	InputFilename        string `json:"input_filename"`
	PageProcessed        int    `json:"page_processed"`
	ProcessingDurationMs int64  `json:"processing_duration_ms"`
}

// KeywordResponse holds exactly one entry per requested keyword.
type KeywordResponse struct {
	ExtractedKeywords map[string]*string `json:"extracted_keywords"`
}

// LicenseRecord is the canonical business license record. Every field is
// always serialized, missing values as null.
type LicenseRecord struct {
	TaxIDNum      *string `json:"OCR_TAX_ID_NUM"`
	BPNameLocal   *string `json:"OCR_BP_NAME_LOCAL"`
	RepreName     *string `json:"OCR_REPRE_NAME"`
	CompRegNum    *string `json:"OCR_COMP_REG_NUM"`
	FullAddrLocal *string `json:"OCR_FULL_ADDR_LOCAL"`
	BizType       *string `json:"OCR_BIZ_TYPE"`
	IndustryType  *string `json:"OCR_INDUSTRY_TYPE"`
}

// field returns the slot for a canonical field name, nil for unknown names.
func (r *LicenseRecord) field(name string) **string {
	switch name {
	case countries.FieldTaxID:
		return &r.TaxIDNum
	case countries.FieldBusinessName:
		return &r.BPNameLocal
	case countries.FieldRepresentative:
		return &r.RepreName
	case countries.FieldCompanyRegNum:
		return &r.CompRegNum
	case countries.FieldAddress:
		return &r.FullAddrLocal
	case countries.FieldBusinessType:
		return &r.BizType
	case countries.FieldIndustryType:
		return &r.IndustryType
	}
	return nil
}

// Get returns the value of a canonical field.
func (r *LicenseRecord) Get(name string) *string {
	if slot := r.field(name); slot != nil {
		return *slot
	}
	return nil
}

// LicenseResult is a mapped license record plus the country it was read with.
type LicenseResult struct {
	Record          LicenseRecord
	Country         string
	CountryDetected bool
}
