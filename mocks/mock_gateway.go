package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockGateway is a mock implementation of ai.Gateway.
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Generate(ctx context.Context, image []byte, mimeType, prompt string) (string, error) {
	args := m.Called(ctx, image, mimeType, prompt)
	return args.String(0), args.Error(1)
}

func (m *MockGateway) Name() string {
	return "mock"
}

func (m *MockGateway) Close() error {
	args := m.Called()
	return args.Error(0)
}
