package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/benmeehan/tracker-gateway/internal/service_registry"
	"github.com/benmeehan/tracker-gateway/internal/services"
	"github.com/benmeehan/tracker-gateway/internal/utils"
	"github.com/benmeehan/tracker-gateway/pkg/file"
	"github.com/benmeehan/tracker-gateway/pkg/identity"
	"github.com/benmeehan/tracker-gateway/pkg/mqtt"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the configuration file")
	flag.Parse()

	// Set up structured logging with JSON output
	log := zerolog.New(os.Stdout).With().Timestamp().Logger()

	// Initialize file operations handler
	fileClient := file.NewFileService()

	// Load configuration from file
	config, err := utils.LoadConfig(*configPath, fileClient)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	level := zerolog.InfoLevel
	if config.Logging.Level != "" {
		if level, err = zerolog.ParseLevel(config.Logging.Level); err != nil {
			log.Fatal().Err(err).Msg("Invalid log level")
		}
	}
	log = log.Level(level)

	// Load the devices allowed to connect
	devices := identity.NewDeviceRegistry(config.Identity.DevicesFile, fileClient, log)
	if err := devices.LoadDevices(); err != nil {
		log.Fatal().Err(err).Msg("Failed to load devices")
	}

	// Generate a unique MQTT Client ID by appending a UUID
	config.MQTT.ClientID = config.MQTT.ClientID + "-" + uuid.New().String()
	log.Info().Str("client_id", config.MQTT.ClientID).Msg("Using MQTT Client ID")

	// Initialize the shared MQTT connection
	mqttClient := mqtt.NewMqttService(fileClient, log)
	err = mqttClient.Initialize(config.MQTT.Broker, config.MQTT.ClientID, config.MQTT.CACertificate, config.MQTT.ConnectTimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize MQTT connection")
	}

	workers := config.Publisher.Workers
	if workers <= 0 {
		workers = 4
	}
	publisher := services.NewPositionPublisher(config.MQTT.Topic, config.MQTT.QOS, config.Publisher.PublishTimeout,
		workers, mqttClient, log)

	// Create a new service registry to manage the protocol listeners
	serviceRegistry := service_registry.NewServiceRegistry(devices, publisher, log)
	if err := serviceRegistry.RegisterServices(config); err != nil {
		log.Fatal().Err(err).Msg("Failed to register services")
	}

	if err := serviceRegistry.StartServices(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start services")
	}
	log.Info().Msg("All services started successfully")

	// Handle graceful shutdown
	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)
	<-stopCh

	log.Info().Msg("Shutting down gracefully...")
	if err := serviceRegistry.StopServices(); err != nil {
		log.Error().Err(err).Msg("Failed to stop services cleanly")
	}
	publisher.Close()
	mqttClient.Disconnect(250)
}
