package extractor

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/bosocmputer/document_gateway/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONText(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"bare object", `{"a": 1}`, `{"a": 1}`},
		{"surrounding whitespace", "\n\t {\"a\": 1}  \n", `{"a": 1}`},
		{"json fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"json fence without closing line", "```json\n{\"a\": 1}", `{"a": 1}`},
		{"json fence with trailing spaces", "  ```json\n{\"a\": 1}\n```   ", `{"a": 1}`},
		{"json fence on one line", "```json {\"a\": 1}```", `{"a": 1}`},
		{"json fence on one line without space", "```json{\"a\": 1} ```", `{"a": 1}`},
		{"prose around object", `Here is the result: {"a": {"b": 2}} Hope this helps.`, `{"a": {"b": 2}}`},
		{"plain fence is sliced", "```\n{\"a\": 1}\n```", `{"a": 1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSONText(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractJSONText_NoObject(t *testing.T) {
	for _, raw := range []string{"", "   ", "I could not read this document.", "} backwards {", "[1, 2, 3]"} {
		_, err := ExtractJSONText(raw)
		assert.ErrorIs(t, err, ErrNoJSONObject, "raw=%q", raw)
	}
}

func TestParseModelResponse_KeepsNumbersExact(t *testing.T) {
	got, err := ParseModelResponse("```json\n{\"total\": 1500.50, \"count\": 3, \"name\": \"ร้านค้า\"}\n```")
	require.NoError(t, err)

	assert.Equal(t, json.Number("1500.50"), got["total"])
	assert.Equal(t, json.Number("3"), got["count"])
	assert.Equal(t, "ร้านค้า", got["name"])
}

func TestParseModelResponse_OneLineFence(t *testing.T) {
	got, err := ParseModelResponse("```json {\"a\": 1}```")
	require.NoError(t, err)
	assert.Equal(t, json.Number("1"), got["a"])
}

func TestParseModelResponse_BareObjectMatchesDirectParse(t *testing.T) {
	text := `{"a": "x", "b": null, "c": [1, 2], "d": {"e": true}}`

	got, err := ParseModelResponse(text)
	require.NoError(t, err)

	var want map[string]any
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	require.NoError(t, dec.Decode(&want))

	assert.Equal(t, want, got)
}

func TestParseModelResponse_Errors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want error
	}{
		{"no object", "Sorry, the image is too blurry.", ErrNoJSONObject},
		{"malformed", `{"a": }`, ErrInvalidJSON},
		{"trailing data", `{"a": 1} and more}`, ErrInvalidJSON},
		{"array in fence", "```json\n[1, 2]\n```", ErrNotObject},
		{"string in fence", "```json\n\"text\"\n```", ErrNotObject},
		{"empty fence", "```json", ErrInvalidJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseModelResponse(tt.raw)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			var appErr *common.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, common.KindResponseFormat, appErr.Kind)
			assert.Equal(t, tt.raw, appErr.RawResponse)
		})
	}
}

func TestParseModelResponse_InvalidJSONCarriesParserDetail(t *testing.T) {
	_, err := ParseModelResponse(`{"a": 1,}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid character")
}
