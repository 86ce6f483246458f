package utils_test

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benmeehan/tracker-gateway/internal/utils"
	"github.com/benmeehan/tracker-gateway/pkg/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoadConfig tests reading every section of the configuration file.
func TestLoadConfig(t *testing.T) {
	// Setup
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
mqtt:
  broker: tcp://localhost:1883
  client_id: gateway
  topic: positions
  qos: 1
  connect_timeout: 30s
identity:
  devices_file: configs/devices.yaml
protocols:
  easytrack:
    enabled: true
    address: ":5021"
  wialon:
    enabled: true
    address: ":5039"
    delimiter: "\r\n"
publisher:
  workers: 4
  publish_timeout: 5s
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	// Execute
	config, err := utils.LoadConfig(path, file.NewFileService())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "tcp://localhost:1883", config.MQTT.Broker)
	assert.Equal(t, 30*time.Second, config.MQTT.ConnectTimeout)
	assert.Equal(t, "configs/devices.yaml", config.Identity.DevicesFile)
	assert.True(t, config.Protocols.EasyTrack.Enabled)
	assert.Equal(t, ":5021", config.Protocols.EasyTrack.Address)
	assert.Equal(t, "", config.Protocols.EasyTrack.Delimiter)
	assert.Equal(t, "\r\n", config.Protocols.Wialon.Delimiter)
	assert.Equal(t, 4, config.Publisher.Workers)
	assert.Equal(t, 5*time.Second, config.Publisher.PublishTimeout)
	assert.Equal(t, "debug", config.Logging.Level)
}

// TestLoadConfig_DefaultConnectTimeout tests that an unset connect timeout gets a finite default.
func TestLoadConfig_DefaultConnectTimeout(t *testing.T) {
	// Setup
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mqtt:\n  broker: tcp://localhost:1883\n"), 0o600))

	// Execute
	config, err := utils.LoadConfig(path, file.NewFileService())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, utils.DefaultConnectTimeout, config.MQTT.ConnectTimeout)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := utils.LoadConfig(filepath.Join(t.TempDir(), "none.yaml"), file.NewFileService())
	assert.Error(t, err)
}

// TestWorkerPool_Shutdown tests that queued jobs finish before Shutdown returns.
func TestWorkerPool_Shutdown(t *testing.T) {
	pool := utils.NewWorkerPool(2, 10)
	var done int32

	for i := 0; i < 10; i++ {
		require.NoError(t, pool.Submit(func() { atomic.AddInt32(&done, 1) }))
	}
	pool.Shutdown()

	assert.Equal(t, int32(10), atomic.LoadInt32(&done))
	assert.ErrorIs(t, pool.Submit(func() {}), utils.ErrPoolClosed)

	// A second shutdown is a no-op.
	pool.Shutdown()
}
