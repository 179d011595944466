package message

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrei-cloud/go_paysec/internal/errorcodes"
)

func TestNewPB(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    string
		wantPAN string
		wantPIN string
		wantErr error
	}{
		{name: "valid", data: "196212142000000000012" + "06123456", wantPAN: "6212142000000000012", wantPIN: "123456"},
		{name: "empty pin passes through", data: "164000000000000002" + "00", wantPAN: "4000000000000002"},
		{name: "non numeric length", data: "1X6212142000000000012", wantErr: errorcodes.Err15},
		{name: "truncated pan", data: "19621214", wantErr: errorcodes.Err80},
		{name: "missing pin length", data: "164000000000000002", wantErr: errorcodes.Err15},
		{name: "truncated pin", data: "164000000000000002" + "0612", wantErr: errorcodes.Err80},
		{name: "trailing data", data: "164000000000000002" + "041234X", wantErr: errorcodes.Err15},
		{name: "empty", data: "", wantErr: errorcodes.Err15},
	}

	for _, tt := range tests {
		tt := tt // capture range variable.
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m, err := NewPB([]byte(tt.data))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "PB", m.CommandCode())
			assert.Equal(t, tt.wantPAN, string(m.Get(FieldPAN)))
			assert.Equal(t, tt.wantPIN, string(m.Get(FieldPIN)))
		})
	}
}

func TestNewMC(t *testing.T) {
	t.Parallel()

	m, err := NewMC([]byte("0102030405060708" + "1" + "ABCDEFGH"))
	require.NoError(t, err)
	assert.Equal(t, "0102030405060708", string(m.Get(FieldIV)))
	assert.Equal(t, []byte{PaddingLegacy}, m.Get(FieldPaddingFlag))
	assert.Equal(t, "ABCDEFGH", string(m.Get(FieldBody)))

	m, err = NewMC([]byte("0000000000000000" + "0"))
	require.NoError(t, err)
	assert.Empty(t, m.Get(FieldBody))

	for _, bad := range []string{"", "00000000", "000000000000000G0body", "00000000000000002body"} {
		_, err := NewMC([]byte(bad))
		require.ErrorIs(t, err, errorcodes.Err15, bad)
	}
}

func TestNewME(t *testing.T) {
	t.Parallel()

	m, err := NewME([]byte("20" + "body"))
	require.NoError(t, err)
	assert.Equal(t, []byte{EncodingDouble}, m.Get(FieldEncodingFlag))
	assert.Equal(t, []byte{PaddingStandard}, m.Get(FieldPaddingFlag))
	assert.Equal(t, "body", string(m.Get(FieldBody)))

	for _, bad := range []string{"", "1", "30body", "12body"} {
		_, err := NewME([]byte(bad))
		require.ErrorIs(t, err, errorcodes.Err15, bad)
	}
}

func TestTraceMasksSensitiveFields(t *testing.T) {
	t.Parallel()

	m, err := NewPB([]byte("196212142000000000012" + "06123456"))
	require.NoError(t, err)
	m.Set("Extra", []byte{0xAB})

	trace := m.Trace()
	assert.Contains(t, trace, "Command: PB - Generate a PIN block")
	assert.Contains(t, trace, "[PAN]=<19 bytes>")
	assert.Contains(t, trace, "[PIN]=<6 bytes>")
	assert.Contains(t, trace, "[Extra]=ab")
	assert.NotContains(t, trace, "123456")
	assert.NotContains(t, trace, "6212142000000000012")
}

func TestNewNC(t *testing.T) {
	t.Parallel()

	m, err := NewNC([]byte("ignored"))
	require.NoError(t, err)
	assert.Equal(t, "NC", m.CommandCode())
	assert.Equal(t, "Perform diagnostics", m.Description())
	assert.Empty(t, m.Fields)
}
