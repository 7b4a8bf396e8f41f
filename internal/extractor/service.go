// service.go - Orchestrates normalize → prompt → model → parse → map

package extractor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bosocmputer/document_gateway/internal/ai"
	"github.com/bosocmputer/document_gateway/internal/common"
	"github.com/bosocmputer/document_gateway/internal/countries"
	"github.com/bosocmputer/document_gateway/internal/processor"
)

// DocumentNormalizer turns an upload into the image sent to the model.
type DocumentNormalizer interface {
	Normalize(ctx context.Context, in processor.DocumentInput) (*processor.NormalizedImage, error)
}

// CountryRegistry hands out the country configuration current at call time.
type CountryRegistry interface {
	Registry() *countries.Registry
}

// Service runs the extraction operations. It holds no per-request state and is
// safe for concurrent use.
type Service struct {
	normalizer DocumentNormalizer
	gateway    ai.Gateway
	countries  CountryRegistry
}

func NewService(normalizer DocumentNormalizer, gateway ai.Gateway, registry CountryRegistry) *Service {
	return &Service{normalizer: normalizer, gateway: gateway, countries: registry}
}

// ErrMissingDocumentType means the generic answer parsed but had no document_type.
var ErrMissingDocumentType = errors.New("model response has no document_type")

// ProcessDocument classifies the document and extracts free structured fields.
func (s *Service) ProcessDocument(ctx context.Context, in processor.DocumentInput) (*OCRResponse, error) {
	start := time.Now()
	rc := common.FromContext(ctx)

	img, err := s.normalize(ctx, in)
	if err != nil {
		return nil, err
	}

	parsed, raw, err := s.extract(ctx, img, ai.GenericTask{})
	if err != nil {
		return nil, err
	}

	rc.StartStep("map_schema")
	docType, ok := parsed["document_type"].(string)
	if !ok || strings.TrimSpace(docType) == "" {
		err := common.NewResponseFormatError("Model response is missing document_type", raw, ErrMissingDocumentType)
		rc.EndStep("failed", nil, err)
		return nil, err
	}
	reasoning, _ := parsed["classification_reasoning"].(string)

	resp := &OCRResponse{
		DocumentType:            docType,
		ClassificationReasoning: reasoning,
		ExtractedData:           ExtractedData{StructuredFields: structuredFields(parsed)},
		ProcessingMetadata: ProcessingMetadata{
			InputFilename:        in.Filename,
			PageProcessed:        img.PageProcessed,
			ProcessingDurationMs: time.Since(start).Milliseconds(),
		},
	}
	rc.EndStep("success", nil, nil)
	return resp, nil
}

// ExtractKeywords reads the value of each keyword in keywordsRaw, a comma
// separated list. The result holds every requested keyword, null when absent.
func (s *Service) ExtractKeywords(ctx context.Context, in processor.DocumentInput, keywordsRaw string) (*KeywordResponse, error) {
	keywords := ParseKeywords(keywordsRaw)
	if len(keywords) == 0 {
		return nil, common.NewValidationError("No valid keywords provided")
	}
	if _, err := processor.Classify(in.Filename); err != nil {
		return nil, err
	}

	img, err := s.normalize(ctx, in)
	if err != nil {
		return nil, err
	}

	parsed, _, err := s.extract(ctx, img, ai.KeywordTask{Keywords: keywords})
	if err != nil {
		return nil, err
	}

	rc := common.FromContext(ctx)
	rc.StartStep("map_schema")
	mapped := MapFixedSet(parsed, keywords, rc)
	rc.EndStep("success", nil, nil)

	return &KeywordResponse{ExtractedKeywords: mapped}, nil
}

// ProcessBusinessLicense extracts the canonical license record. A blank country
// asks the model to detect it first; the license call then uses the detected code.
func (s *Service) ProcessBusinessLicense(ctx context.Context, in processor.DocumentInput, country string) (*LicenseResult, error) {
	if _, err := processor.Classify(in.Filename); err != nil {
		return nil, err
	}

	// one snapshot for the whole request, a concurrent reload does not affect it
	reg := s.registry()
	if reg.Len() == 0 {
		return nil, common.NewServiceUnavailableError(
			"Country configuration is not loaded; business license processing is unavailable",
			countries.ErrEmptyConfiguration)
	}

	country = strings.ToLower(strings.TrimSpace(country))
	detected := country == ""
	if !detected {
		if _, ok := reg.Get(country); !ok {
			return nil, common.NewValidationError("Unsupported country code: %s. Supported countries: %s",
				country, strings.Join(reg.Codes(), ", "))
		}
	}

	img, err := s.normalize(ctx, in)
	if err != nil {
		return nil, err
	}

	rc := common.FromContext(ctx)
	if detected {
		country, err = s.detectCountry(ctx, img, reg)
		if err != nil {
			return nil, err
		}
		rc.LogInfo("🌏 Detected country: %s", country)
	}

	cfg, _ := reg.Get(country)
	parsed, _, err := s.extract(ctx, img, ai.LicenseTask{Country: country, Config: cfg})
	if err != nil {
		return nil, err
	}

	rc.StartStep("map_schema")
	record := MapLicense(parsed, cfg, rc)
	rc.EndStep("success", nil, nil)

	return &LicenseResult{Record: record, Country: country, CountryDetected: detected}, nil
}

// ProcessAdaptive returns whatever JSON object the model chose for the document.
func (s *Service) ProcessAdaptive(ctx context.Context, in processor.DocumentInput) (Record, error) {
	return s.freeForm(ctx, in, ai.AdaptiveTask{})
}

// ProcessReceipt returns the receipt structure the model built.
func (s *Service) ProcessReceipt(ctx context.Context, in processor.DocumentInput) (Record, error) {
	return s.freeForm(ctx, in, ai.ReceiptTask{})
}

// SupportedCountries lists the configured country codes, empty when none are loaded.
func (s *Service) SupportedCountries() []string {
	codes := s.registry().Codes()
	if codes == nil {
		return []string{}
	}
	return codes
}

func (s *Service) freeForm(ctx context.Context, in processor.DocumentInput, task ai.PromptTask) (Record, error) {
	img, err := s.normalize(ctx, in)
	if err != nil {
		return nil, err
	}
	parsed, _, err := s.extract(ctx, img, task)
	return parsed, err
}

func (s *Service) detectCountry(ctx context.Context, img *processor.NormalizedImage, reg *countries.Registry) (string, error) {
	rc := common.FromContext(ctx)
	rc.StartStep("detect_country")

	codes := reg.Codes()
	labels := make(map[string]string, len(codes))
	for _, code := range codes {
		if cfg, ok := reg.Get(code); ok && cfg.UniqueIDFieldName != "" {
			labels[code] = cfg.UniqueIDFieldName
		}
	}

	raw, err := s.generate(ctx, img, ai.DetectCountryTask{Candidates: codes, IdentifierLabels: labels})
	if err != nil {
		rc.EndStep("failed", nil, err)
		return "", err
	}

	parsed, err := ParseModelResponse(raw)
	if err != nil {
		rc.EndStep("failed", nil, err)
		return "", err
	}

	code := ParseCountryCode(parsed)
	if code == "" || code == ai.UnknownCountry {
		err := common.NewValidationError("Could not detect the issuing country of this document. Supported countries: %s",
			strings.Join(codes, ", "))
		rc.EndStep("failed", nil, err)
		return "", err
	}
	if _, ok := reg.Get(code); !ok {
		err := common.NewValidationError("Detected country %q is not supported. Supported countries: %s",
			code, strings.Join(codes, ", "))
		rc.EndStep("failed", nil, err)
		return "", err
	}

	rc.EndStep("success", nil, nil)
	return code, nil
}

func (s *Service) normalize(ctx context.Context, in processor.DocumentInput) (*processor.NormalizedImage, error) {
	rc := common.FromContext(ctx)
	rc.StartStep("normalize_input")

	img, err := s.normalizer.Normalize(ctx, in)
	if err != nil {
		rc.EndStep("failed", nil, err)
		return nil, common.AsAppError(err)
	}

	rc.LogInfo("📄 Normalized %s → %s, %d bytes", in.Filename, img.MIMEType, len(img.Data))
	rc.EndStep("success", nil, nil)
	return img, nil
}

// extract runs one model call and parses its answer into a JSON object.
// The raw text is returned alongside for error reporting.
func (s *Service) extract(ctx context.Context, img *processor.NormalizedImage, task ai.PromptTask) (Record, string, error) {
	rc := common.FromContext(ctx)

	rc.StartStep("model_extraction")
	raw, err := s.generate(ctx, img, task)
	if err != nil {
		rc.EndStep("failed", nil, err)
		return nil, "", err
	}
	rc.EndStep("success", nil, nil)

	rc.StartStep("parse_response")
	parsed, err := ParseModelResponse(raw)
	if err != nil {
		rc.LogError("Unparseable model response: %.200s", raw)
		rc.EndStep("failed", nil, err)
		return nil, raw, err
	}
	rc.EndStep("success", nil, nil)
	return parsed, raw, nil
}

func (s *Service) generate(ctx context.Context, img *processor.NormalizedImage, task ai.PromptTask) (string, error) {
	if s.gateway == nil {
		return "", common.NewExternalServiceError("Model call failed: "+ai.ErrGatewayNotConfigured.Error(), ai.ErrGatewayNotConfigured)
	}

	rc := common.FromContext(ctx)
	rc.StartSubStep("build_prompt")
	prompt := ai.BuildPrompt(task)
	rc.EndSubStep(fmt.Sprintf("%d chars", len(prompt)))

	// the gateway records its own call_model_api sub-step
	raw, err := s.gateway.Generate(ctx, img.Data, img.MIMEType, prompt)
	if err != nil {
		return "", gatewayError(err)
	}
	return raw, nil
}

// gatewayError keeps the gateway's own message, which carries the block reason
// or the categorized transport failure.
func gatewayError(err error) error {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return common.NewExternalServiceError("Model call failed: "+err.Error(), err)
}

func (s *Service) registry() *countries.Registry {
	if s.countries == nil {
		return nil
	}
	return s.countries.Registry()
}

// ParseKeywords splits a comma separated keyword list. Blank entries and
// duplicates are dropped; order is preserved.
func ParseKeywords(raw string) []string {
	var keywords []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(raw, ",") {
		kw := strings.TrimSpace(part)
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		keywords = append(keywords, kw)
	}
	return keywords
}

// structuredFields accepts extracted_data either wrapping structured_fields or
// holding the fields directly.
func structuredFields(parsed Record) map[string]any {
	data, ok := parsed["extracted_data"].(map[string]any)
	if !ok {
		return map[string]any{}
	}
	if fields, ok := data["structured_fields"].(map[string]any); ok {
		return fields
	}
	return data
}

// ModelProvider names the gateway in use, "none" when it is missing.
func (s *Service) ModelProvider() string {
	if s.gateway == nil {
		return "none"
	}
	return s.gateway.Name()
}
