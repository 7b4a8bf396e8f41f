package countries

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

const validDocument = `{
  "KR": {
    "unique_id_field_name": "사업자등록번호",
    "common_fields": ["상호", "대표자"],
    "field_mapping": {
      "사업자등록번호": "OCR_TAX_ID_NUM",
      "상호": "OCR_BP_NAME_LOCAL",
      "개업연월일": null
    },
    "gemini_ocr_schema": {
      "OCR_TAX_ID_NUM": "사업자등록번호",
      "OCR_BP_NAME_LOCAL": "상호"
    }
  },
  "th": {
    "unique_id_field_name": "เลขประจำตัวผู้เสียภาษีอากร",
    "common_fields": [],
    "field_mapping": {},
    "gemini_ocr_schema": {}
  }
}`

func TestParseDocument_Valid(t *testing.T) {
	reg, err := ParseDocument([]byte(validDocument))
	require.NoError(t, err)

	assert.Equal(t, []string{"kr", "th"}, reg.Codes())
	assert.Equal(t, 2, reg.Len())

	kr, ok := reg.Get("Kr ")
	require.True(t, ok)
	assert.Equal(t, "사업자등록번호", kr.UniqueIDFieldName)
	assert.Equal(t, []string{"상호", "대표자"}, kr.CommonFields)
	require.Contains(t, kr.FieldMapping, "개업연월일")
	assert.Nil(t, kr.FieldMapping["개업연월일"])
	assert.Equal(t, "OCR_TAX_ID_NUM", *kr.FieldMapping["사업자등록번호"])

	_, ok = reg.Get("brazil")
	assert.False(t, ok)
}

func TestParseDocument_SchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not an object", `["kr"]`},
		{"empty", `{}`},
		{"missing unique id", `{"kr": {"common_fields": []}}`},
		{"mapping value not string", `{"kr": {"unique_id_field_name": "x", "field_mapping": {"a": 1}}}`},
		{"common fields not list", `{"kr": {"unique_id_field_name": "x", "common_fields": "a,b"}}`},
		{"broken json", `{"kr": `},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDocument([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestNewRegistry_RejectsUnknownStandardField(t *testing.T) {
	_, err := NewRegistry(map[string]CountryConfig{
		"kr": {
			UniqueIDFieldName: "id",
			FieldMapping:      map[string]*string{"상호": strPtr("OCR_NOT_A_FIELD")},
		},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OCR_NOT_A_FIELD")
}

func TestNewRegistry_RejectsDuplicateCodes(t *testing.T) {
	_, err := NewRegistry(map[string]CountryConfig{
		"kr": {UniqueIDFieldName: "id"},
		"KR": {UniqueIDFieldName: "id"},
	})
	assert.Error(t, err)
}

func TestNewRegistry_Empty(t *testing.T) {
	_, err := NewRegistry(nil)
	assert.ErrorIs(t, err, ErrEmptyConfiguration)
}

func TestRegistry_EveryMappingTargetIsStandard(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("..", "..", "configs", "country_config.json"))
	require.NoError(t, err)

	reg, err := ParseDocument(data)
	require.NoError(t, err)

	for _, code := range reg.Codes() {
		cfg, _ := reg.Get(code)
		for source, target := range cfg.FieldMapping {
			if target == nil {
				continue
			}
			assert.True(t, IsStandardField(*target), "%s: %s -> %s", code, source, *target)
		}
	}
}

func TestRegistry_NilSafe(t *testing.T) {
	var reg *Registry
	_, ok := reg.Get("kr")
	assert.False(t, ok)
	assert.Nil(t, reg.Codes())
	assert.Equal(t, 0, reg.Len())
}

type stubSource struct {
	reg *Registry
	err error
}

func (s *stubSource) Load(context.Context) (*Registry, error) { return s.reg, s.err }
func (s *stubSource) Describe() string                         { return "stub" }

func TestStore_ReloadKeepsPreviousOnFailure(t *testing.T) {
	first, err := ParseDocument([]byte(validDocument))
	require.NoError(t, err)

	src := &stubSource{reg: first}
	store := NewStore(src)
	assert.False(t, store.Ready())

	require.NoError(t, store.Reload(context.Background()))
	assert.True(t, store.Ready())
	assert.Same(t, first, store.Registry())
	assert.NoError(t, store.LastError())

	src.reg, src.err = nil, errors.New("disk gone")
	assert.Error(t, store.Reload(context.Background()))
	assert.Same(t, first, store.Registry())
	assert.EqualError(t, store.LastError(), "disk gone")
}

func TestFileSource_Load(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "country_config.json")
	require.NoError(t, os.WriteFile(path, []byte(validDocument), 0o600))

	store := NewStore(NewFileSource(path))
	require.NoError(t, store.Reload(context.Background()))
	assert.Equal(t, []string{"kr", "th"}, store.Registry().Codes())
	assert.Equal(t, "file:"+path, store.Source())

	missing := NewStore(NewFileSource(filepath.Join(dir, "missing.json")))
	err := missing.Reload(context.Background())
	require.Error(t, err)
	assert.False(t, missing.Ready())
	assert.ErrorIs(t, err, os.ErrNotExist)
}
