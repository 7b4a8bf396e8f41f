package extractor

import (
	"encoding/json"
	"testing"

	"github.com/bosocmputer/document_gateway/internal/countries"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestMapFixedSet(t *testing.T) {
	parsed := Record{
		"Total":   json.Number("1500.50"),
		"Date":    "2024-01-31",
		"Paid":    true,
		"Items":   []any{"a"},
		"Note":    nil,
		"Surplus": "ignored",
	}
	expected := []string{"Total", "Date", "Paid", "Items", "Note", "Missing"}

	got := MapFixedSet(parsed, expected, nil)

	require.Len(t, got, len(expected))
	assert.Equal(t, "1500.50", *got["Total"])
	assert.Equal(t, "2024-01-31", *got["Date"])
	assert.Nil(t, got["Paid"])
	assert.Nil(t, got["Items"])
	assert.Nil(t, got["Note"])
	assert.Nil(t, got["Missing"])
	assert.NotContains(t, got, "Surplus")
}

func TestMapFixedSet_EmptyAnswer(t *testing.T) {
	got := MapFixedSet(Record{}, []string{"a", "b"}, nil)

	out, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a": null, "b": null}`, string(out))
}

func koreanConfig() countries.CountryConfig {
	return countries.CountryConfig{
		UniqueIDFieldName: "사업자등록번호",
		FieldMapping: map[string]*string{
			"사업자등록번호": strPtr(countries.FieldTaxID),
			"상호":      strPtr(countries.FieldBusinessName),
			"법인명":     strPtr(countries.FieldBusinessName),
			"대표자":     strPtr(countries.FieldRepresentative),
			"개업연월일":   nil,
		},
		OCRSchema: map[string]string{
			countries.FieldTaxID: "사업자등록번호",
		},
	}
}

func TestMapLicense(t *testing.T) {
	parsed := Record{
		"사업자등록번호":      "123-45-67890",
		"상호":           "주식회사 예시",
		"개업연월일":        "2020-01-01",
		"OCR_BIZ_TYPE": "도매 및 소매업",
		"random_key":   "dropped",
	}

	record := MapLicense(parsed, koreanConfig(), nil)

	assert.Equal(t, "123-45-67890", *record.TaxIDNum)
	assert.Equal(t, "주식회사 예시", *record.BPNameLocal)
	assert.Equal(t, "도매 및 소매업", *record.BizType)
	assert.Nil(t, record.RepreName)
	assert.Nil(t, record.CompRegNum)
	assert.Nil(t, record.FullAddrLocal)
	assert.Nil(t, record.IndustryType)
}

func TestMapLicense_NullNeverOverwritesValue(t *testing.T) {
	// "법인명" sorts before "상호"; both map to the business name
	record := MapLicense(Record{"법인명": "ACME Corp", "상호": nil}, koreanConfig(), nil)
	assert.Equal(t, "ACME Corp", *record.BPNameLocal)

	record = MapLicense(Record{"법인명": nil, "상호": "ACME Store"}, koreanConfig(), nil)
	assert.Equal(t, "ACME Store", *record.BPNameLocal)
}

func TestMapLicense_FirstValueInKeyOrderWins(t *testing.T) {
	record := MapLicense(Record{"상호": "Second", "법인명": "First"}, koreanConfig(), nil)
	assert.Equal(t, "First", *record.BPNameLocal)
}

func TestMapLicense_CoercesScalars(t *testing.T) {
	record := MapLicense(Record{
		"사업자등록번호": json.Number("1234567890"),
		"대표자":     map[string]any{"name": "x"},
	}, koreanConfig(), nil)

	assert.Equal(t, "1234567890", *record.TaxIDNum)
	assert.Nil(t, record.RepreName)
}

func TestMapLicense_AlwaysSerializesAllFields(t *testing.T) {
	record := MapLicense(Record{}, koreanConfig(), nil)

	out, err := json.Marshal(record)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(out, &got))
	require.Len(t, got, len(countries.StandardFields))
	for _, field := range countries.StandardFields {
		assert.Contains(t, got, field)
		assert.Nil(t, got[field])
		assert.Nil(t, record.Get(field))
	}
}

func TestParseCountryCode(t *testing.T) {
	assert.Equal(t, "kr", ParseCountryCode(Record{"country_code": " KR "}))
	assert.Equal(t, "unknown", ParseCountryCode(Record{"country_code": "Unknown"}))
	assert.Equal(t, "", ParseCountryCode(Record{"country_code": json.Number("82")}))
	assert.Equal(t, "", ParseCountryCode(Record{}))
}
