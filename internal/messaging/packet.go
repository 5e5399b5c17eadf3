package messaging

import (
	"fmt"

	"github.com/GriffinCanCode/dicthub/internal/domain/model"
	"github.com/GriffinCanCode/dicthub/internal/domain/preference"
	"github.com/GriffinCanCode/dicthub/internal/shared/utils"
	"github.com/bytedance/sonic"
	"github.com/tidwall/gjson"
)

// Command names the packet kind on the wire.
type Command string

const (
	CmdUserPreference    Command = "USER_PREFERENCE"
	CmdPlugins           Command = "PLUGINS"
	CmdQuery             Command = "QUERY"
	CmdSandboxStart      Command = "SANDBOX_START"
	CmdSandboxReady      Command = "SANDBOX_READY"
	CmdTranslationResult Command = "TRANSLATION_RESULT"
)

// Valid reports whether c is one of the six known commands.
func (c Command) Valid() bool {
	switch c {
	case CmdUserPreference, CmdPlugins, CmdQuery, CmdSandboxStart, CmdSandboxReady, CmdTranslationResult:
		return true
	}
	return false
}

// Message is a typed packet payload. Each command has exactly one type.
type Message interface {
	Command() Command
}

// SandboxStart is the sandbox's hello.
type SandboxStart struct{}

// SandboxReady is sent once every plugin instantiation attempt has settled.
type SandboxReady struct{}

// UserPreference pushes the full preference snapshot to the sandbox.
type UserPreference struct {
	preference.UserPreference
}

// Plugins pushes plugin sources with their option values.
type Plugins struct {
	Plugins []PluginEntry `json:"plugins"`
}

// Query asks the sandbox to translate.
type Query struct {
	model.Query
}

// TranslationResult carries one provider's answer.
type TranslationResult struct {
	model.TranslationResult
}

func (SandboxStart) Command() Command      { return CmdSandboxStart }
func (SandboxReady) Command() Command      { return CmdSandboxReady }
func (UserPreference) Command() Command    { return CmdUserPreference }
func (Plugins) Command() Command           { return CmdPlugins }
func (Query) Command() Command             { return CmdQuery }
func (TranslationResult) Command() Command { return CmdTranslationResult }

// PluginEntry pairs a plugin's content with its options. On the wire it is
// the two element array [content, options].
type PluginEntry struct {
	Content model.PluginContent
	Options model.PluginOptions
}

func (e PluginEntry) MarshalJSON() ([]byte, error) {
	opts := e.Options
	if opts == nil {
		opts = model.PluginOptions{}
	}
	return sonic.Marshal([2]any{e.Content, opts})
}

func (e *PluginEntry) UnmarshalJSON(data []byte) error {
	pair := gjson.ParseBytes(data)
	if !pair.IsArray() {
		return fmt.Errorf("plugin entry is not an array")
	}
	items := pair.Array()
	if len(items) == 0 || len(items) > 2 {
		return fmt.Errorf("plugin entry has %d elements, want 2", len(items))
	}

	var out PluginEntry
	if err := sonic.UnmarshalString(items[0].Raw, &out.Content); err != nil {
		return fmt.Errorf("plugin content: %w", err)
	}
	out.Options = model.PluginOptions{}
	if len(items) == 2 && items[1].IsObject() {
		// Non-string option values are kept in their JSON text form.
		items[1].ForEach(func(k, v gjson.Result) bool {
			out.Options[k.String()] = v.String()
			return true
		})
	}
	*e = out
	return nil
}

func (p Plugins) validate() error {
	for _, e := range p.Plugins {
		if err := utils.ValidatePluginID(e.Content.ID); err != nil {
			return err
		}
	}
	return nil
}

func (r TranslationResult) validate() error {
	return utils.ValidatePluginID(r.PluginID)
}
