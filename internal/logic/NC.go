package logic

import (
	"github.com/rs/zerolog/log"

	"github.com/andrei-cloud/go_paysec/internal/message"
	"github.com/andrei-cloud/go_paysec/internal/terminal"
)

// FirmwareVersion is reported by the NC diagnostics command.
const FirmwareVersion = "0001-PS00"

const ncKCVLength = 16

// ExecuteNC returns "ND00" followed by the 16 character TMK check value and
// the firmware version.
func ExecuteNC(keys *terminal.Keys, input []byte) ([]byte, error) {
	msg, err := message.NewNC(input)
	if err != nil {
		return nil, err
	}

	kcv, err := keys.MasterCheckValue(ncKCVLength)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("firmware", FirmwareVersion).Msg(msg.Description())

	resp := make([]byte, 0, 4+len(kcv)+len(FirmwareVersion))
	resp = append(resp, "ND00"...)
	resp = append(resp, kcv...)
	resp = append(resp, FirmwareVersion...)

	return resp, nil
}
