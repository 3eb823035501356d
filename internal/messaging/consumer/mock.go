package consumer

import (
	"context"
	"errors"
	"log"
	"time"

	"trisense/internal/models"
)

// MockConsumer uses fixed predefined sensor payloads for broker-less runs.
type MockConsumer struct {
	logger   *log.Logger
	messages chan *models.SensorMessage
}

// PredefinedMessages stores the payloads to be simulated.
var PredefinedMessages []*models.SensorMessage

// init generates fixed test data when the package is loaded.
func init() {
	now := time.Now().Unix()
	PredefinedMessages = []*models.SensorMessage{
		{
			RequestID: "a1b1c1d1-e1f1-1111-2222-1234567890ab",
			Payload: models.SensorPayload{
				VehicleID:   "VEH-101",
				Temperature: 21,
				Humidity:    55,
				Speed:       32,
				Timestamp:   now - 60,
				Data:        "Temp: 21.0 C, Humidity: 55%, Gyro (rad/s): X: 0.1, Y: -0.2, Z: 0.0, Accel: 9.8 m/s^2",
			},
		},
		{
			RequestID: "a2b2c2d2-e2f2-3333-4444-abcdef123456",
			Payload: models.SensorPayload{
				VehicleID:   "VEH-102",
				Temperature: 24,
				Humidity:    48,
				Speed:       11,
				Timestamp:   now - 30,
			},
		},
		{
			RequestID: "a3b3c3d3-e3f3-5555-6666-fedcba654321",
			Payload: models.SensorPayload{
				VehicleID:   "VEH-101",
				Temperature: 22,
				Humidity:    54,
				Speed:       40,
				Timestamp:   now,
			},
		},
	}
}

// NewMockConsumer creates a MockConsumer and loads predefined payloads.
func NewMockConsumer(logger *log.Logger) *MockConsumer {
	mc := &MockConsumer{
		logger:   logger,
		messages: make(chan *models.SensorMessage, len(PredefinedMessages)+5),
	}
	logger.Println("[MockConsumer] Initializing with predefined messages...")
	for _, msg := range PredefinedMessages {
		mc.messages <- msg
		logger.Printf("[MockConsumer] Added predefined message: request_id=%s", msg.RequestID)
	}
	logger.Println("[MockConsumer] Predefined messages loaded")
	return mc
}

// Consume reads predefined messages from the channel.
func (m *MockConsumer) Consume(ctx context.Context) (msg *models.SensorMessage, ack func(success bool), err error) {
	select {
	case <-ctx.Done():
		m.logger.Println("[MockConsumer] Context cancelled, stopping consumption")
		return nil, nil, ctx.Err()
	case msg := <-m.messages:
		if msg == nil {
			m.logger.Println("[MockConsumer] Message channel closed")
			return nil, nil, errors.New("message channel closed")
		}
		m.logger.Printf("[MockConsumer] Consumed message: request_id=%s", msg.RequestID)

		ackCallback := func(success bool) {
			if success {
				m.logger.Printf("[MockConsumer] ACK received for message: request_id=%s", msg.RequestID)
			} else {
				m.logger.Printf("[MockConsumer] NACK received for message: request_id=%s. Re-queueing (mock)", msg.RequestID)
				select {
				case m.messages <- msg:
				default:
					m.logger.Printf("[MockConsumer] Warning: Failed to re-queue message (channel full?): request_id=%s", msg.RequestID)
				}
			}
		}
		return msg, ackCallback, nil
	}
}

// Close closes the message channel.
func (m *MockConsumer) Close() error {
	m.logger.Println("[MockConsumer] Closing...")
	close(m.messages)
	return nil
}

var _ Consumer = (*MockConsumer)(nil)
