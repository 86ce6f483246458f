package identity_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/benmeehan/tracker-gateway/internal/mocks"
	"github.com/benmeehan/tracker-gateway/pkg/file"
	"github.com/benmeehan/tracker-gateway/pkg/identity"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// TestDeviceRegistry_LoadDevices_Yaml tests loading devices from a YAML file.
func TestDeviceRegistry_LoadDevices_Yaml(t *testing.T) {
	// Setup
	path := filepath.Join(t.TempDir(), "devices.yaml")
	content := "devices:\n" +
		"  - id: dev-1\n    unique_id: \"135790246811220\"\n    name: truck\n" +
		"  - id: dev-2\n    unique_id: \"123456789012345\"\n" +
		"  - id: \"\"\n    unique_id: broken\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	r := identity.NewDeviceRegistry(path, file.NewFileService(), zerolog.Nop())

	// Execute
	err := r.LoadDevices()

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 2, r.Count())

	id, ok := r.Resolve("135790246811220")
	assert.True(t, ok)
	assert.Equal(t, "dev-1", id)

	_, ok = r.Resolve("broken")
	assert.False(t, ok)
	_, ok = r.Resolve("unknown")
	assert.False(t, ok)
}

// TestDeviceRegistry_LoadDevices_Json tests loading devices from a JSON file.
func TestDeviceRegistry_LoadDevices_Json(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devices.json")
	content := `{"devices":[{"id":"dev-9","unique_id":"555"}]}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	r := identity.NewDeviceRegistry(path, file.NewFileService(), zerolog.Nop())
	require.NoError(t, r.LoadDevices())

	id, ok := r.Resolve("555")
	assert.True(t, ok)
	assert.Equal(t, "dev-9", id)
}

// TestDeviceRegistry_LoadDevices_MissingFile tests that a missing file yields an empty registry.
func TestDeviceRegistry_LoadDevices_MissingFile(t *testing.T) {
	r := identity.NewDeviceRegistry(filepath.Join(t.TempDir(), "none.yaml"), file.NewFileService(), zerolog.Nop())

	assert.NoError(t, r.LoadDevices())
	assert.Equal(t, 0, r.Count())
}

// TestDeviceRegistry_LoadDevices_ReadError tests that decode failures are reported.
func TestDeviceRegistry_LoadDevices_ReadError(t *testing.T) {
	// Setup
	mockFile := new(mocks.MockFileOperations)
	mockFile.On("IsFileExists", "devices.yaml").Return(true, nil)
	mockFile.On("ReadYamlFile", "devices.yaml", mock.Anything).Return(errors.New("bad yaml"))

	r := identity.NewDeviceRegistry("devices.yaml", mockFile, zerolog.Nop())

	// Execute
	err := r.LoadDevices()

	// Assert
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "bad yaml")
	mockFile.AssertExpectations(t)
}

func TestDeviceRegistry_Register(t *testing.T) {
	r := identity.NewDeviceRegistry("", file.NewFileService(), zerolog.Nop())

	assert.Error(t, r.Register(identity.Device{ID: "x"}))
	require.NoError(t, r.Register(identity.Device{ID: "dev-1", UniqueID: "42"}))
	require.NoError(t, r.Register(identity.Device{ID: "dev-2", UniqueID: "42"}))

	id, ok := r.Resolve("42")
	assert.True(t, ok)
	assert.Equal(t, "dev-2", id)
}

func TestResolverFunc(t *testing.T) {
	var r identity.Resolver = identity.ResolverFunc(func(externalID string) (string, bool) {
		return "dev-" + externalID, true
	})

	id, ok := r.Resolve("7")
	assert.True(t, ok)
	assert.Equal(t, "dev-7", id)
}

func TestSession_Bind(t *testing.T) {
	s := identity.NewSession()

	_, ok := s.DeviceID()
	assert.False(t, ok)

	s.Bind("dev-1")
	id, ok := s.DeviceID()
	assert.True(t, ok)
	assert.Equal(t, "dev-1", id)
}
