package sandbox

import (
	"context"
	"regexp"
	"time"

	"github.com/GriffinCanCode/dicthub/internal/infrastructure/config"
	"github.com/GriffinCanCode/dicthub/internal/infrastructure/httpclient"
)

// State is the sandbox lifecycle stage.
type State int32

const (
	Created State = iota
	Started
	LoadingPlugins
	Ready
	QueryServing
)

func (s State) String() string {
	switch s {
	case Created:
		return "CREATED"
	case Started:
		return "STARTED"
	case LoadingPlugins:
		return "LOADING_PLUGINS"
	case Ready:
		return "READY"
	case QueryServing:
		return "QUERY_SERVING"
	}
	return "UNKNOWN"
}

// Config defines sandbox configuration
type Config struct {
	ScriptTimeout time.Duration // bound on each synchronous entry into plugin code
	EnableConsole bool          // route console.* to the logger
}

// DefaultConfig returns the default sandbox configuration.
func DefaultConfig() Config {
	return Config{
		ScriptTimeout: 5 * time.Second,
		EnableConsole: true,
	}
}

// ConfigFrom converts the application sandbox section.
func ConfigFrom(cfg config.SandboxConfig) Config {
	return Config{
		ScriptTimeout: cfg.ScriptTimeout.Duration,
		EnableConsole: cfg.EnableConsole,
	}
}

// HTTPClient backs the http object plugins see.
type HTTPClient interface {
	Do(ctx context.Context, req httpclient.Request) (*httpclient.Response, error)
}

var factorySeparators = regexp.MustCompile(`[^A-Za-z0-9]`)

// FactoryName is the function a plugin source must define for id.
func FactoryName(id string) string {
	return "create_" + factorySeparators.ReplaceAllString(id, "_")
}
