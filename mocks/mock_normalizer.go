package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/bosocmputer/document_gateway/internal/processor"
)

// MockNormalizer is a mock implementation of extractor.DocumentNormalizer.
type MockNormalizer struct {
	mock.Mock
}

func (m *MockNormalizer) Normalize(ctx context.Context, in processor.DocumentInput) (*processor.NormalizedImage, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*processor.NormalizedImage), args.Error(1)
}
