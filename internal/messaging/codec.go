package messaging

import (
	"fmt"

	"github.com/GriffinCanCode/dicthub/internal/domain/preference"
	"github.com/GriffinCanCode/dicthub/internal/shared/failure"
	"github.com/bytedance/sonic"
	"github.com/tidwall/gjson"
)

type envelope struct {
	Cmd     Command `json:"cmd"`
	Payload any     `json:"payload"`
}

// Encode serializes msg as {"cmd": ..., "payload": ...}.
func Encode(msg Message) ([]byte, error) {
	if msg == nil {
		return nil, fmt.Errorf("encode packet: nil message")
	}
	var payload any = msg
	if p, ok := msg.(UserPreference); ok {
		payload = p.UserPreference
	}
	data, err := sonic.Marshal(envelope{Cmd: msg.Command(), Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("encode %s packet: %w", msg.Command(), err)
	}
	return data, nil
}

// Decode parses and validates one packet. Anything that is not a known
// command with a well formed payload fails with failure.ErrParse. Size limits
// belong to the transport.
func Decode(data []byte) (Message, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: packet is not JSON", failure.ErrParse)
	}

	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, fmt.Errorf("%w: packet is not an object", failure.ErrParse)
	}
	cmd := Command(root.Get("cmd").String())
	if !cmd.Valid() {
		return nil, fmt.Errorf("%w: unknown command %q", failure.ErrParse, cmd)
	}
	payload := root.Get("payload")
	raw := payload.Raw
	if !payload.Exists() || payload.Type == gjson.Null {
		raw = "{}"
	} else if !payload.IsObject() {
		return nil, fmt.Errorf("%w: %s payload is not an object", failure.ErrParse, cmd)
	}

	msg, err := decodePayload(cmd, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s payload: %v", failure.ErrParse, cmd, err)
	}
	return msg, nil
}

func decodePayload(cmd Command, raw string) (Message, error) {
	switch cmd {
	case CmdSandboxStart:
		return SandboxStart{}, nil
	case CmdSandboxReady:
		return SandboxReady{}, nil
	case CmdUserPreference:
		p, err := preference.Decode([]byte(raw))
		if err != nil {
			return nil, err
		}
		return UserPreference{UserPreference: p}, nil
	case CmdPlugins:
		var m Plugins
		if err := sonic.UnmarshalString(raw, &m); err != nil {
			return nil, err
		}
		if err := m.validate(); err != nil {
			return nil, err
		}
		return m, nil
	case CmdQuery:
		var m Query
		if err := sonic.UnmarshalString(raw, &m.Query); err != nil {
			return nil, err
		}
		if err := m.Validate(); err != nil {
			return nil, err
		}
		return m, nil
	case CmdTranslationResult:
		var m TranslationResult
		if err := sonic.UnmarshalString(raw, &m.TranslationResult); err != nil {
			return nil, err
		}
		if err := m.validate(); err != nil {
			return nil, err
		}
		return m, nil
	}
	return nil, fmt.Errorf("unhandled command %s", cmd)
}
