package utils

import (
	"time"

	"github.com/benmeehan/tracker-gateway/pkg/file"
)

// ListenerConfig configures the TCP listener of one protocol.
type ListenerConfig struct {
	Enabled   bool   `yaml:"enabled"`   // Enable/disable the protocol listener
	Address   string `yaml:"address"`   // Address to listen on, e.g. ":5013"
	Delimiter string `yaml:"delimiter"` // Frame delimiter; protocol default when empty
}

// DefaultConnectTimeout bounds the broker connect retries when the
// configuration leaves connect_timeout unset.
const DefaultConnectTimeout = 60 * time.Second

// Config represents the structure of the configuration file.
type Config struct {
	MQTT struct {
		Broker         string        `yaml:"broker"`          // MQTT broker address
		ClientID       string        `yaml:"client_id"`       // MQTT client ID prefix
		CACertificate  string        `yaml:"ca_certificate"`  // Path to the CA certificate, plain TCP when empty
		Topic          string        `yaml:"topic"`           // Topic prefix for decoded positions
		QOS            int           `yaml:"qos"`             // MQTT QoS level for position messages
		ConnectTimeout time.Duration `yaml:"connect_timeout"` // Give up connecting to the broker after this long
	} `yaml:"mqtt"`

	Identity struct {
		DevicesFile string `yaml:"devices_file"` // Path to the known devices file (YAML or JSON)
	} `yaml:"identity"`

	Protocols struct {
		EasyTrack ListenerConfig `yaml:"easytrack"`
		Wialon    ListenerConfig `yaml:"wialon"`
	} `yaml:"protocols"`

	Publisher struct {
		Workers        int           `yaml:"workers"`         // Number of concurrent publishers
		PublishTimeout time.Duration `yaml:"publish_timeout"` // Max time to wait for a publish acknowledgment
	} `yaml:"publisher"`

	Logging struct {
		Level string `yaml:"level"` // zerolog level name
	} `yaml:"logging"`
}

// LoadConfig loads the YAML configuration from the specified file.
// It returns a pointer to the Config struct and an error if loading fails.
func LoadConfig(filename string, fileClient file.FileOperations) (*Config, error) {
	var config Config
	err := fileClient.ReadYamlFile(filename, &config)
	if err != nil {
		return nil, err
	}

	if config.MQTT.ConnectTimeout <= 0 {
		config.MQTT.ConnectTimeout = DefaultConnectTimeout
	}

	return &config, nil
}
