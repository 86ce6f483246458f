package mocks

import (
	"github.com/benmeehan/tracker-gateway/internal/models"
	"github.com/stretchr/testify/mock"
)

// MockPositionSink is a mock implementation of the PositionSink interface
type MockPositionSink struct {
	mock.Mock
}

func (m *MockPositionSink) Publish(position *models.Position) error {
	args := m.Called(position)
	return args.Error(0)
}
