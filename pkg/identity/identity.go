package identity

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/benmeehan/tracker-gateway/pkg/file"
	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/rs/zerolog"
)

// Resolver maps the identifier a tracker reports to an internal device ID.
type Resolver interface {
	Resolve(externalID string) (string, bool)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(externalID string) (string, bool)

// Resolve calls f.
func (f ResolverFunc) Resolve(externalID string) (string, bool) {
	return f(externalID)
}

// Device is a known tracker.
type Device struct {
	ID       string `json:"id" yaml:"id"`
	UniqueID string `json:"unique_id" yaml:"unique_id"`
	Name     string `json:"name,omitempty" yaml:"name,omitempty"`
}

type deviceFile struct {
	Devices []Device `json:"devices" yaml:"devices"`
}

// DeviceRegistry is an in-memory Resolver loaded from a YAML or JSON file.
// Lookups never touch the file, so resolution is safe on the decode path.
type DeviceRegistry struct {
	devicesFile string
	devices     cmap.ConcurrentMap[string, Device]
	fileOps     file.FileOperations
	logger      zerolog.Logger
}

// NewDeviceRegistry initializes an empty registry backed by devicesFile.
func NewDeviceRegistry(devicesFile string, fileOps file.FileOperations, logger zerolog.Logger) *DeviceRegistry {
	return &DeviceRegistry{
		devicesFile: devicesFile,
		devices:     cmap.New[Device](),
		fileOps:     fileOps,
		logger:      logger,
	}
}

// LoadDevices reads the devices file. A missing file leaves the registry empty.
func (r *DeviceRegistry) LoadDevices() error {
	exists, err := r.fileOps.IsFileExists(r.devicesFile)
	if err != nil {
		return err
	}
	if !exists {
		r.logger.Warn().Str("file", r.devicesFile).Msg("Devices file not found, starting with an empty registry")
		return nil
	}

	var df deviceFile
	if strings.EqualFold(filepath.Ext(r.devicesFile), ".json") {
		err = r.fileOps.ReadJsonFile(r.devicesFile, &df)
	} else {
		err = r.fileOps.ReadYamlFile(r.devicesFile, &df)
	}
	if err != nil {
		return fmt.Errorf("failed to read devices file %s: %w", r.devicesFile, err)
	}

	for _, d := range df.Devices {
		if err := r.Register(d); err != nil {
			r.logger.Warn().Err(err).Str("unique_id", d.UniqueID).Msg("Skipping device entry")
		}
	}

	r.logger.Info().Int("devices", r.devices.Count()).Str("file", r.devicesFile).Msg("Device registry loaded")
	return nil
}

// Register adds or replaces a device.
func (r *DeviceRegistry) Register(d Device) error {
	if d.UniqueID == "" || d.ID == "" {
		return fmt.Errorf("device entry needs both id and unique_id")
	}
	r.devices.Set(d.UniqueID, d)
	return nil
}

// Resolve returns the device ID registered for externalID.
func (r *DeviceRegistry) Resolve(externalID string) (string, bool) {
	d, ok := r.devices.Get(externalID)
	if !ok {
		return "", false
	}
	return d.ID, true
}

// Count returns the number of registered devices.
func (r *DeviceRegistry) Count() int {
	return r.devices.Count()
}
