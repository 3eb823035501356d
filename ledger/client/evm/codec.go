package evm

import (
	"encoding/json"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"

	"trisense/internal/models"
)

// storeDataABI is the fixed interface of the pre-deployed data-storage
// contract: a single-string entry point plus the event it emits.
const storeDataABI = `[
	{"inputs":[{"internalType":"string","name":"jsonData","type":"string"}],"name":"storeData","outputs":[],"stateMutability":"nonpayable","type":"function"},
	{"anonymous":false,"inputs":[{"indexed":false,"internalType":"string","name":"jsonData","type":"string"}],"name":"DataStored","type":"event"}
]`

var contractABI = mustParseABI()

func mustParseABI() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(storeDataABI))
	if err != nil {
		panic("evm: invalid embedded contract ABI: " + err.Error())
	}
	return parsed
}

// EncodeCallData serializes the payload to canonical JSON and ABI-packs it as
// the sole string argument of storeData, selector included.
func EncodeCallData(payload *models.SensorPayload) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return contractABI.Pack("storeData", string(body))
}

const wordSize = 32

// DecodeCallData recovers the sensor payload from storeData call data. The
// layout is 4-byte selector, one offset word, one byte-length word, then the
// UTF-8 string bytes. All reads are bounds-checked: a length word overrunning
// the remaining data yields (nil, false) instead of a slice panic. The decoded
// text is then scanned for an embedded JSON object.
func DecodeCallData(data []byte) (*models.SensorPayload, bool) {
	if len(data) < 4+2*wordSize {
		return nil, false
	}
	rest := data[4:]
	rest = rest[wordSize:] // offset word, always one argument at 0x20
	length := new(big.Int).SetBytes(rest[:wordSize])
	rest = rest[wordSize:]
	if !length.IsUint64() || length.Uint64() > uint64(len(rest)) {
		return nil, false
	}
	text := string(rest[:length.Uint64()])

	obj, ok := firstJSONObject(text)
	if !ok {
		return nil, false
	}
	var payload models.SensorPayload
	if err := json.Unmarshal([]byte(obj), &payload); err != nil {
		return nil, false
	}
	return &payload, true
}

// firstJSONObject returns the first balanced brace-delimited substring of s
// that parses as JSON. Candidates are tried left to right; a string field
// containing braces can still shift the match, which is inherent to this wire
// format.
func firstJSONObject(s string) (string, bool) {
	for start := strings.IndexByte(s, '{'); start >= 0; {
		end := matchBrace(s, start)
		if end < 0 {
			return "", false
		}
		candidate := s[start : end+1]
		if json.Valid([]byte(candidate)) {
			return candidate, true
		}
		next := strings.IndexByte(s[start+1:], '{')
		if next < 0 {
			return "", false
		}
		start += 1 + next
	}
	return "", false
}

// matchBrace returns the index of the brace closing the one at start, honoring
// JSON string literals and escapes, or -1 if the braces never balance.
func matchBrace(s string, start int) int {
	depth := 0
	inString := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch c {
			case '\\':
				i++
			case '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
