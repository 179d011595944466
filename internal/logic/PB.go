package logic

import (
	"github.com/rs/zerolog/log"

	"github.com/andrei-cloud/go_paysec/internal/logging"
	"github.com/andrei-cloud/go_paysec/internal/message"
	"github.com/andrei-cloud/go_paysec/internal/terminal"
)

// ExecutePB processes the PB payload and returns "PC00" followed by the
// encrypted PIN block.
func ExecutePB(keys *terminal.Keys, input []byte) ([]byte, error) {
	msg, err := message.NewPB(input)
	if err != nil {
		log.Debug().Err(err).Msg("PB: malformed payload")
		return nil, err
	}

	pan := string(msg.Get(message.FieldPAN))
	log.Debug().
		Str("pan", logging.MaskPAN(pan)).
		Int("pin_length", len(msg.Get(message.FieldPIN))).
		Msg("PB: building PIN block")

	pinBlock, err := keys.PinBlock(pan, string(msg.Get(message.FieldPIN)))
	if err != nil {
		return nil, err
	}

	resp := make([]byte, 0, 4+len(pinBlock))
	resp = append(resp, "PC00"...)
	resp = append(resp, pinBlock...)

	return resp, nil
}
