package commands

import "github.com/huddle01/ai01-go/pkg/cli"

// Persona is the bot configuration loaded with --persona. All fields are
// optional; flags override file values.
type Persona struct {
	// Name is the display name shown to other room participants.
	Name string `yaml:"name" json:"name"`

	// Instructions is the system prompt.
	Instructions string `yaml:"instructions" json:"instructions"`

	// Voice selects the provider voice (e.g. "alloy" for OpenAI,
	// "Puck" for Gemini).
	Voice string `yaml:"voice" json:"voice"`

	// Model overrides the default provider model ID.
	Model string `yaml:"model" json:"model"`

	// Temperature, when set, overrides the provider default.
	Temperature *float64 `yaml:"temperature" json:"temperature"`
}

const defaultInstructions = `You are a helpful voice assistant for a customer
support line. Keep replies short and conversational. Use the complaint book
tools to file new complaints and look up existing ones by their complaint ID.`

func loadPersona(path string) (*Persona, error) {
	p := &Persona{}
	if path == "" {
		return p, nil
	}
	if err := cli.LoadRequest(path, p); err != nil {
		return nil, err
	}
	return p, nil
}
