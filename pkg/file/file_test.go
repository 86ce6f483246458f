package file_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/benmeehan/tracker-gateway/pkg/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type devices struct {
	Devices []struct {
		ID       string `json:"id" yaml:"id"`
		UniqueID string `json:"unique_id" yaml:"unique_id"`
	} `json:"devices" yaml:"devices"`
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestFileService_IsFileExists(t *testing.T) {
	fs := file.NewFileService()
	path := writeFile(t, "present.txt", "x")

	exists, err := fs.IsFileExists(path)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = fs.IsFileExists(filepath.Join(t.TempDir(), "missing.txt"))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestFileService_ReadFileRaw(t *testing.T) {
	fs := file.NewFileService()
	path := writeFile(t, "ca.pem", "certificate")

	data, err := fs.ReadFileRaw(path)

	require.NoError(t, err)
	assert.Equal(t, []byte("certificate"), data)
}

func TestFileService_ReadYamlFile(t *testing.T) {
	// Setup
	fs := file.NewFileService()
	path := writeFile(t, "devices.yaml", "devices:\n  - id: van-03\n    unique_id: \"868204005647838\"\n")

	// Execute
	var d devices
	err := fs.ReadYamlFile(path, &d)

	// Assert
	require.NoError(t, err)
	require.Len(t, d.Devices, 1)
	assert.Equal(t, "van-03", d.Devices[0].ID)
	assert.Equal(t, "868204005647838", d.Devices[0].UniqueID)
}

func TestFileService_ReadJsonFile(t *testing.T) {
	fs := file.NewFileService()
	path := writeFile(t, "devices.json", `{"devices":[{"id":"truck-17","unique_id":"135790246811220"}]}`)

	var d devices
	require.NoError(t, fs.ReadJsonFile(path, &d))
	require.Len(t, d.Devices, 1)
	assert.Equal(t, "truck-17", d.Devices[0].ID)
}

func TestFileService_ReadJsonFile_Missing(t *testing.T) {
	fs := file.NewFileService()

	var d devices
	err := fs.ReadJsonFile(filepath.Join(t.TempDir(), "missing.json"), &d)

	assert.True(t, os.IsNotExist(err))
}
