package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/benmeehan/tracker-gateway/internal/models"
	"github.com/benmeehan/tracker-gateway/internal/utils"
	"github.com/benmeehan/tracker-gateway/pkg/mqtt"
	"github.com/rs/zerolog"
)

// PositionSink receives decoded positions.
type PositionSink interface {
	Publish(position *models.Position) error
}

// PositionPublisher forwards positions to the MQTT broker, one topic per device.
// Publishing happens on a worker pool so slow acknowledgments from the broker
// never hold up the connection that produced the position.
type PositionPublisher struct {
	// Configuration fields
	topic   string
	qos     int
	timeout time.Duration

	// Dependencies
	mqttClient mqtt.MQTTClient
	pool       *utils.WorkerPool
	logger     zerolog.Logger
}

// NewPositionPublisher creates a publisher with the given number of workers.
func NewPositionPublisher(topic string, qos int, timeout time.Duration, workers int,
	mqttClient mqtt.MQTTClient, logger zerolog.Logger) *PositionPublisher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &PositionPublisher{
		topic:      topic,
		qos:        qos,
		timeout:    timeout,
		mqttClient: mqttClient,
		pool:       utils.NewWorkerPool(workers, workers*64),
		logger:     logger,
	}
}

// Publish queues the position for delivery.
func (p *PositionPublisher) Publish(position *models.Position) error {
	payload, err := json.Marshal(position)
	if err != nil {
		return fmt.Errorf("failed to serialize position: %w", err)
	}
	topic := p.topic + "/" + position.DeviceID

	return p.pool.Submit(func() {
		if err := p.send(topic, payload); err != nil {
			p.logger.Error().Err(err).Str("topic", topic).Msg("Failed to publish position")
			return
		}
		p.logger.Debug().Str("topic", topic).Msg("Position published")
	})
}

func (p *PositionPublisher) send(topic string, payload []byte) error {
	token := p.mqttClient.Publish(topic, byte(p.qos), false, payload)
	if !token.WaitTimeout(p.timeout) {
		return errors.New("timed out waiting for publish acknowledgment")
	}
	return token.Error()
}

// Close waits for queued positions to be published.
func (p *PositionPublisher) Close() {
	p.pool.Shutdown()
	p.logger.Info().Msg("PositionPublisher closed")
}
