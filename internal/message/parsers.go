package message

import (
	"github.com/andrei-cloud/go_paysec/internal/errorcodes"
)

// Field names.
const (
	FieldPAN          = "PAN"
	FieldPIN          = "PIN"
	FieldIV           = "IV"
	FieldPaddingFlag  = "Padding Flag"
	FieldEncodingFlag = "Encoding Flag"
	FieldBody         = "Body"
)

// Flag values.
const (
	PaddingStandard = '0'
	PaddingLegacy   = '1'
	EncodingSingle  = '1'
	EncodingDouble  = '2'
)

const ivHexLength = 16

// NewPB parses a PB Generate PIN Block command:
// PAN length (2) + PAN + PIN length (2) + PIN.
func NewPB(data []byte) (*BaseMessage, error) {
	m := NewBaseMessage("PB", "Generate a PIN block")

	pan, data, err := lengthPrefixed(data)
	if err != nil {
		return nil, err
	}
	m.SetSensitive(FieldPAN, pan)

	pin, data, err := lengthPrefixed(data)
	if err != nil {
		return nil, err
	}
	m.SetSensitive(FieldPIN, pin)

	if len(data) != 0 {
		return nil, errorcodes.Err15
	}

	return m, nil
}

// NewMC parses an MC Generate CBC MAC command:
// IV (16 hex) + padding flag (1) + body.
func NewMC(data []byte) (*BaseMessage, error) {
	m := NewBaseMessage("MC", "Generate a CBC MAC")
	if len(data) < ivHexLength+1 {
		return nil, errorcodes.Err15
	}
	m.Fields[FieldIV], data = data[:ivHexLength], data[ivHexLength:]
	if !isHex(m.Fields[FieldIV]) {
		return nil, errorcodes.Err15
	}

	m.Fields[FieldPaddingFlag], data = data[:1], data[1:]
	if !oneOf(m.Fields[FieldPaddingFlag][0], PaddingStandard, PaddingLegacy) {
		return nil, errorcodes.Err15
	}
	m.SetSensitive(FieldBody, data)

	return m, nil
}

// NewME parses an ME Generate ECB fold MAC command:
// encoding flag (1) + padding flag (1) + body.
func NewME(data []byte) (*BaseMessage, error) {
	m := NewBaseMessage("ME", "Generate an ECB fold MAC")
	if len(data) < 2 {
		return nil, errorcodes.Err15
	}

	m.Fields[FieldEncodingFlag], data = data[:1], data[1:]
	if !oneOf(m.Fields[FieldEncodingFlag][0], EncodingSingle, EncodingDouble) {
		return nil, errorcodes.Err15
	}
	m.Fields[FieldPaddingFlag], data = data[:1], data[1:]
	if !oneOf(m.Fields[FieldPaddingFlag][0], PaddingStandard, PaddingLegacy) {
		return nil, errorcodes.Err15
	}
	m.SetSensitive(FieldBody, data)

	return m, nil
}

// NewNC parses an NC Diagnostics command. Any payload is ignored.
func NewNC(_ []byte) (*BaseMessage, error) {
	return NewBaseMessage("NC", "Perform diagnostics"), nil
}

// lengthPrefixed reads a two digit decimal length followed by that many bytes.
func lengthPrefixed(data []byte) (field, rest []byte, err error) {
	if len(data) < 2 || !isDigit(data[0]) || !isDigit(data[1]) {
		return nil, nil, errorcodes.Err15
	}
	n := int(data[0]-'0')*10 + int(data[1]-'0')
	data = data[2:]
	if len(data) < n {
		return nil, nil, errorcodes.Err80
	}

	return data[:n], data[n:], nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isHex(b []byte) bool {
	for _, c := range b {
		if !isDigit(c) && (c < 'A' || c > 'F') && (c < 'a' || c > 'f') {
			return false
		}
	}

	return true
}

func oneOf(c byte, allowed ...byte) bool {
	for _, a := range allowed {
		if c == a {
			return true
		}
	}

	return false
}
