package tangle

import (
	"encoding/hex"
	"encoding/json"
	"strings"

	"trisense/internal/models"
)

// HexToUTF8 decodes a 0x-prefixed (or bare) hex string to UTF-8 text. On
// malformed hex the input is returned unchanged so the raw value still
// surfaces to the caller.
func HexToUTF8(s string) string {
	trimmed := strings.TrimPrefix(s, "0x")
	b, err := hex.DecodeString(trimmed)
	if err != nil {
		return s
	}
	return string(b)
}

// EncodeMessage serializes the payload to the hex-encoded UTF-8 JSON form
// carried in a tagged data block.
func EncodeMessage(payload *models.SensorPayload) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return "0x" + hex.EncodeToString(body), nil
}

// DecodeMessage parses a block's decoded data field as the JSON payload shape.
// Malformed input yields (nil, false), never an error.
func DecodeMessage(message string) (*models.SensorPayload, bool) {
	var payload models.SensorPayload
	if err := json.Unmarshal([]byte(message), &payload); err != nil {
		return nil, false
	}
	return &payload, true
}

// DecodeTelemetry applies the fixed free-text grammar to the payload's
// embedded detail string. Fields missing from the text come back as the
// "not available" sentinel.
func DecodeTelemetry(payload *models.SensorPayload) models.TelemetryDetail {
	return models.ParseTelemetry(payload.Data)
}
