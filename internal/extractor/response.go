// response.go - Recovers the JSON object from free-form model text

package extractor

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/bosocmputer/document_gateway/internal/common"
)

// Record is a parsed model answer. Numbers are kept as json.Number.
type Record = map[string]any

var (
	ErrNoJSONObject = errors.New("no JSON object found in model response")
	ErrInvalidJSON  = errors.New("model response is not valid JSON")
	ErrNotObject    = errors.New("model response JSON is not an object")
)

const jsonFenceOpener = "```json"

// ExtractJSONText isolates the JSON candidate in raw. Rules are applied in order
// and the first match wins:
//  1. a leading ```json fence: drop the opener line and a trailing ``` line
//  2. text already starting with '{': used as is
//  3. otherwise the slice from the first '{' to the last '}'
//
// ErrNoJSONObject is returned when none of them applies.
func ExtractJSONText(raw string) (string, error) {
	text := strings.TrimSpace(raw)

	if strings.HasPrefix(text, jsonFenceOpener) {
		return stripFence(text), nil
	}

	if strings.HasPrefix(text, "{") {
		return text, nil
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return "", ErrNoJSONObject
	}
	return text[start : end+1], nil
}

func stripFence(text string) string {
	nl := strings.IndexByte(text, '\n')
	if nl < 0 {
		// whole answer on one line: ```json {...}```
		body := strings.TrimSpace(text[len(jsonFenceOpener):])
		return strings.TrimSpace(strings.TrimSuffix(body, "```"))
	}
	body := strings.TrimSpace(text[nl+1:])

	if lastNL := strings.LastIndexByte(body, '\n'); lastNL >= 0 {
		if strings.TrimSpace(body[lastNL+1:]) == "```" {
			body = body[:lastNL]
		}
	} else if body == "```" {
		body = ""
	} else if strings.HasSuffix(body, "```") {
		body = strings.TrimSuffix(body, "```")
	}
	return strings.TrimSpace(body)
}

// ParseModelResponse turns raw model text into a JSON object.
// Every failure is a response format error that carries raw verbatim.
func ParseModelResponse(raw string) (Record, error) {
	text, err := ExtractJSONText(raw)
	if err != nil {
		return nil, common.NewResponseFormatError("No JSON object found in model response", raw, err)
	}

	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, common.NewResponseFormatError(
			fmt.Sprintf("Failed to parse model response as JSON: %v", err), raw,
			fmt.Errorf("%w: %v", ErrInvalidJSON, err))
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, common.NewResponseFormatError(
			"Failed to parse model response as JSON: unexpected data after the JSON value", raw, ErrInvalidJSON)
	}

	obj, ok := v.(map[string]any)
	if !ok {
		return nil, common.NewResponseFormatError(
			fmt.Sprintf("Model response was not a JSON object (got %s)", jsonKind(v)), raw, ErrNotObject)
	}
	return obj, nil
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case json.Number, float64:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
