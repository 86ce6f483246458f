package mocks

import "github.com/stretchr/testify/mock"

// MockResolver is a mock implementation of the identity Resolver
type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) Resolve(externalID string) (string, bool) {
	args := m.Called(externalID)
	return args.String(0), args.Bool(1)
}
