package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaskPAN(t *testing.T) {
	t.Parallel()

	tests := []struct {
		pan  string
		want string
	}{
		{pan: "6212142000000000012", want: "621214*********0012"},
		{pan: "4000000000000002", want: "400000******0002"},
		{pan: "12345678901", want: "123456*8901"},
		{pan: "1234567890", want: "**********"},
		{pan: "", want: ""},
	}

	for _, tt := range tests {
		tt := tt // capture range variable.
		t.Run(tt.pan, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, MaskPAN(tt.pan))
		})
	}
}

func TestRequestResponseEvents(t *testing.T) {
	var buf bytes.Buffer
	initLogger(&buf, false, false)
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	LogRequest("req-1", "127.0.0.1", "PB", "Generate PIN block", 27, 1)
	LogResponse("req-1", "127.0.0.1", "PB", "PC", 20, "00", 1)

	dec := json.NewDecoder(&buf)

	var req map[string]any
	require.NoError(t, dec.Decode(&req))
	assert.Equal(t, "request_received", req["event"])
	assert.Equal(t, "req-1", req["request_id"])
	assert.Equal(t, "PB", req["command"])
	assert.InDelta(t, 27, req["request_length"], 0)
	assert.NotContains(t, req, "request_hex")

	var resp map[string]any
	require.NoError(t, dec.Decode(&resp))
	assert.Equal(t, "response_sent", resp["event"])
	assert.Equal(t, "PC", resp["response_command"])
	assert.Equal(t, "00", resp["error_code"])
}

func TestInitLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	initLogger(&buf, true, false)
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())

	initLogger(&buf, false, true)
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}
