package mqtt

import (
	"errors"
	"testing"
	"time"

	"github.com/benmeehan/tracker-gateway/internal/mocks"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// TestMqttService_Initialize_MissingCA tests that an unreadable CA certificate aborts initialization.
func TestMqttService_Initialize_MissingCA(t *testing.T) {
	// Setup
	mockFile := new(mocks.MockFileOperations)
	mockFile.On("ReadFileRaw", "ca.pem").Return(nil, errors.New("no such file"))
	s := NewMqttService(mockFile, zerolog.Nop())

	// Execute
	err := s.Initialize("ssl://localhost:8883", "gateway", "ca.pem", time.Second)

	// Assert
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read CA certificate")
	mockFile.AssertExpectations(t)
}

// TestMqttService_Initialize_InvalidCA tests that a certificate that is not PEM is refused.
func TestMqttService_Initialize_InvalidCA(t *testing.T) {
	mockFile := new(mocks.MockFileOperations)
	mockFile.On("ReadFileRaw", "ca.pem").Return([]byte("not a certificate"), nil)
	s := NewMqttService(mockFile, zerolog.Nop())

	err := s.Initialize("ssl://localhost:8883", "gateway", "ca.pem", time.Second)

	assert.EqualError(t, err, "failed to append CA certificate")
}

// TestMqttService_Delegates tests that operations are passed to the underlying client.
func TestMqttService_Delegates(t *testing.T) {
	// Setup
	mockClient := new(mocks.MockMQTTClient)
	mockToken := new(mocks.MockToken)
	mockClient.On("Publish", "positions/dev-1", byte(1), false, mock.Anything).Return(mockToken)
	mockClient.On("Connect").Return(mockToken)
	mockClient.On("Disconnect", uint(250)).Return()
	s := &MqttService{client: mockClient, logger: zerolog.Nop()}

	// Execute
	assert.Equal(t, mockToken, s.Publish("positions/dev-1", 1, false, []byte("{}")))
	assert.Equal(t, mockToken, s.Connect())
	s.Disconnect(250)

	// Assert
	mockClient.AssertExpectations(t)
}
