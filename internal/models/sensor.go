package models

import (
	"fmt"
	"regexp"
)

// SensorPayload is the canonical sensor observation submitted to all three
// ledgers. The shape is closed: required fields are validated up front instead
// of being passed through the encoders half-empty.
type SensorPayload struct {
	VehicleID   string  `json:"vehicle_id"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	Speed       float64 `json:"speed"`
	Timestamp   int64   `json:"timestamp"` // whole seconds since epoch

	// Data optionally carries the free-text telemetry detail
	// ("Temp: 23.5 C, Humidity: 40%, ...") used by the tagged-block ledger.
	Data string `json:"data,omitempty"`
}

// Validate checks the required fields of a payload before any ledger is touched.
func (p *SensorPayload) Validate() error {
	if p == nil {
		return fmt.Errorf("payload is nil")
	}
	if p.VehicleID == "" {
		return fmt.Errorf("vehicle_id is required")
	}
	if p.Timestamp <= 0 {
		return fmt.Errorf("timestamp must be positive epoch seconds, got %d", p.Timestamp)
	}
	return nil
}

// SensorMessage is the queue envelope carrying one payload through Kafka.
type SensorMessage struct {
	RequestID string        `json:"request_id"`
	Payload   SensorPayload `json:"payload"`
}

// NotAvailable is the sentinel for telemetry fields missing from the free-text
// detail string. A missing field never aborts the decode of the others.
const NotAvailable = "N/A"

// TelemetryDetail holds the fields extracted from the free-text grammar.
// Values stay textual: they are surfaced exactly as written on the ledger.
type TelemetryDetail struct {
	Temperature string `json:"temperature"`
	Humidity    string `json:"humidity"`
	GyroX       string `json:"gyro_x"`
	GyroY       string `json:"gyro_y"`
	GyroZ       string `json:"gyro_z"`
	Accel       string `json:"accel"`
}

var (
	tempPattern     = regexp.MustCompile(`Temp:\s*([\d.]+)\s*C`)
	humidityPattern = regexp.MustCompile(`Humidity:\s*(\d+)%`)
	gyroPattern     = regexp.MustCompile(`Gyro \(rad/s\):\s*X:\s*(-?[\d.]+),\s*Y:\s*(-?[\d.]+),\s*Z:\s*(-?[\d.]+)`)
	accelPattern    = regexp.MustCompile(`Accel:\s*([\d.]+)\s*m/s\^2`)
)

// ParseTelemetry applies the fixed textual grammar to a free-text detail
// string. Gyroscope components may be negative; the other quantities are not.
func ParseTelemetry(text string) TelemetryDetail {
	d := TelemetryDetail{
		Temperature: NotAvailable,
		Humidity:    NotAvailable,
		GyroX:       NotAvailable,
		GyroY:       NotAvailable,
		GyroZ:       NotAvailable,
		Accel:       NotAvailable,
	}
	if m := tempPattern.FindStringSubmatch(text); m != nil {
		d.Temperature = m[1]
	}
	if m := humidityPattern.FindStringSubmatch(text); m != nil {
		d.Humidity = m[1]
	}
	if m := gyroPattern.FindStringSubmatch(text); m != nil {
		d.GyroX, d.GyroY, d.GyroZ = m[1], m[2], m[3]
	}
	if m := accelPattern.FindStringSubmatch(text); m != nil {
		d.Accel = m[1]
	}
	return d
}

// FeeEstimate is the best-effort execution cost derived for a Move-ledger
// transaction: the native-unit cost plus a fiat conversion. A failed price
// lookup leaves the fiat side at zero.
type FeeEstimate struct {
	Coin string `json:"coin"`
	Fiat string `json:"fiat"`
}
