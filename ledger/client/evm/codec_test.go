package evm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trisense/internal/models"
)

func TestDecodeCallData_RoundTrip(t *testing.T) {
	payload := &models.SensorPayload{
		VehicleID:   "VEH-101",
		Temperature: 23.5,
		Humidity:    40,
		Speed:       88.2,
		Timestamp:   1735689600,
	}

	data, err := EncodeCallData(payload)
	require.NoError(t, err)
	require.Greater(t, len(data), 4+2*wordSize)

	decoded, ok := DecodeCallData(data)
	require.True(t, ok)
	assert.Equal(t, payload, decoded)
}

func TestDecodeCallData_TooShort(t *testing.T) {
	decoded, ok := DecodeCallData([]byte{0x01, 0x02, 0x03})
	assert.False(t, ok)
	assert.Nil(t, decoded)
}

func TestDecodeCallData_LengthWordOverrunsData(t *testing.T) {
	payload := &models.SensorPayload{VehicleID: "VEH-101", Timestamp: 1735689600}
	data, err := EncodeCallData(payload)
	require.NoError(t, err)

	// Corrupt the byte-length word so it claims more bytes than remain.
	lengthWord := data[4+wordSize : 4+2*wordSize]
	for i := range lengthWord {
		lengthWord[i] = 0xff
	}

	decoded, ok := DecodeCallData(data)
	assert.False(t, ok)
	assert.Nil(t, decoded)
}

func TestDecodeCallData_NoEmbeddedJSON(t *testing.T) {
	data, err := contractABI.Pack("storeData", "plain text without any object")
	require.NoError(t, err)

	decoded, ok := DecodeCallData(data)
	assert.False(t, ok)
	assert.Nil(t, decoded)
}

func TestFirstJSONObject_SkipsLeadingNoise(t *testing.T) {
	obj, ok := firstJSONObject(`prefix garbage {"vehicle_id":"VEH-101","timestamp":1}`)
	require.True(t, ok)
	assert.Equal(t, `{"vehicle_id":"VEH-101","timestamp":1}`, obj)
}

func TestFirstJSONObject_SkipsUnparsableCandidate(t *testing.T) {
	obj, ok := firstJSONObject(`{not json} then {"a":1}`)
	require.True(t, ok)
	assert.Equal(t, `{"a":1}`, obj)
}

func TestFirstJSONObject_BracesInsideStringLiterals(t *testing.T) {
	obj, ok := firstJSONObject(`{"data":"Temp: {high}","timestamp":2}`)
	require.True(t, ok)
	assert.Equal(t, `{"data":"Temp: {high}","timestamp":2}`, obj)
}

func TestFirstJSONObject_UnbalancedBraces(t *testing.T) {
	_, ok := firstJSONObject(`{"a": {"b": 1}`)
	assert.False(t, ok)
}
