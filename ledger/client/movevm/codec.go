package movevm

import (
	"encoding/json"

	"trisense/internal/models"
	"trisense/ledger/types"
)

// EncodeArgument serializes the payload to the JSON byte sequence passed as
// the entry function's sole pure argument.
func EncodeArgument(payload *models.SensorPayload) ([]byte, error) {
	return json.Marshal(payload)
}

// DecodeInputs scans a transaction's pure inputs for the first string value
// that parses as JSON. The ledger guarantees nothing about input order, so no
// positional contract is assumed.
func DecodeInputs(inputs []types.MoveInput) (*models.SensorPayload, bool) {
	for _, in := range inputs {
		if in.Type != "pure" {
			continue
		}
		value, ok := in.Value.(string)
		if !ok {
			continue
		}
		var payload models.SensorPayload
		if err := json.Unmarshal([]byte(value), &payload); err != nil {
			continue
		}
		return &payload, true
	}
	return nil, false
}
