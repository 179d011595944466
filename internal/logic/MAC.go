package logic

import (
	"encoding/hex"

	"github.com/rs/zerolog/log"

	"github.com/andrei-cloud/go_paysec/internal/errorcodes"
	"github.com/andrei-cloud/go_paysec/internal/message"
	"github.com/andrei-cloud/go_paysec/internal/terminal"
	"github.com/andrei-cloud/go_paysec/pkg/mac"
)

// ExecuteMC processes the MC payload and returns "MD00" followed by the
// 16 character CBC MAC.
func ExecuteMC(keys *terminal.Keys, input []byte) ([]byte, error) {
	msg, err := message.NewMC(input)
	if err != nil {
		log.Debug().Err(err).Msg("MC: malformed payload")
		return nil, err
	}

	var iv [8]byte
	if _, err := hex.Decode(iv[:], msg.Get(message.FieldIV)); err != nil {
		return nil, errorcodes.Err15
	}

	opts := []mac.Option{mac.WithIV(iv)}
	opts = append(opts, paddingOptions(msg)...)

	return macResponse(keys, "MD00", mac.CBC, msg, opts)
}

// ExecuteME processes the ME payload and returns "MF00" followed by the
// ECB fold MAC in the requested encoding.
func ExecuteME(keys *terminal.Keys, input []byte) ([]byte, error) {
	msg, err := message.NewME(input)
	if err != nil {
		log.Debug().Err(err).Msg("ME: malformed payload")
		return nil, err
	}

	opts := paddingOptions(msg)
	if msg.Get(message.FieldEncodingFlag)[0] == message.EncodingDouble {
		opts = append(opts, mac.WithReferenceDoubleHex())
	}

	return macResponse(keys, "MF00", mac.ECBFold, msg, opts)
}

func paddingOptions(msg *message.BaseMessage) []mac.Option {
	if msg.Get(message.FieldPaddingFlag)[0] == message.PaddingLegacy {
		return []mac.Option{mac.WithLegacyPadding()}
	}

	return nil
}

func macResponse(
	keys *terminal.Keys,
	prefix string,
	mode mac.Mode,
	msg *message.BaseMessage,
	opts []mac.Option,
) ([]byte, error) {
	body := msg.Get(message.FieldBody)
	log.Debug().
		Str("command", msg.CommandCode()).
		Str("mode", mode.String()).
		Int("body_length", len(body)).
		Str("trace", msg.Trace()).
		Msg("computing MAC")

	code, err := keys.MAC(mode, body, opts...)
	if err != nil {
		return nil, err
	}

	resp := make([]byte, 0, len(prefix)+len(code))
	resp = append(resp, prefix...)
	resp = append(resp, code...)

	return resp, nil
}
