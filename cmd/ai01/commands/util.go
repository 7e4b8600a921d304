package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/huddle01/ai01-go/pkg/cli"
	"github.com/huddle01/ai01-go/pkg/rtc"
)

// credentials holds everything a session command may need. Environment
// variables win over the selected config context so .env files keep working
// without any config setup.
type credentials struct {
	ProjectID    string
	APIKey       string
	OpenAIAPIKey string
	GeminiAPIKey string
	APIURL       string
	SignalURL    string
}

func resolveCredentials() credentials {
	creds := credentials{
		ProjectID:    os.Getenv("HUDDLE_PROJECT_ID"),
		APIKey:       os.Getenv("HUDDLE_API_KEY"),
		OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
	}

	cfg := getConfig()
	if cfg == nil {
		return creds
	}
	cc, err := cfg.ResolveContext(contextName)
	if err != nil {
		return creds
	}
	if creds.ProjectID == "" {
		creds.ProjectID = cc.ProjectID
	}
	if creds.APIKey == "" {
		creds.APIKey = cc.APIKey
	}
	if creds.OpenAIAPIKey == "" {
		creds.OpenAIAPIKey = cc.OpenAIAPIKey
	}
	if creds.GeminiAPIKey == "" {
		creds.GeminiAPIKey = cc.GeminiAPIKey
	}
	creds.APIURL = cc.APIURL
	creds.SignalURL = cc.SignalURL
	return creds
}

func (c credentials) requireHuddle() error {
	if c.ProjectID == "" || c.APIKey == "" {
		return fmt.Errorf("HUDDLE_PROJECT_ID and HUDDLE_API_KEY are required (set env vars or configure a context)")
	}
	return nil
}

func (c credentials) requireOpenAI() error {
	if c.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required (set env var or configure a context)")
	}
	return nil
}

func (c credentials) requireGemini() error {
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required (set env var or configure a context)")
	}
	return nil
}

// rtcClient builds a Huddle01 client from resolved credentials.
func (c credentials) rtcClient() *rtc.Client {
	var opts []rtc.Option
	if c.APIURL != "" {
		opts = append(opts, rtc.WithAPIURL(c.APIURL))
	}
	if c.SignalURL != "" {
		opts = append(opts, rtc.WithSignalURL(c.SignalURL))
	}
	return rtc.NewClient(c.ProjectID, c.APIKey, opts...)
}

// signalContext returns a context cancelled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// outputResult writes a result as YAML, or JSON when --json is set.
func outputResult(result any) error {
	format := cli.FormatYAML
	if isJSONOutput() {
		format = cli.FormatJSON
	}
	return cli.Output(result, cli.OutputOptions{Format: format})
}
