// Package main provides the ai01 CLI tool.
//
// Usage:
//
//	ai01 [flags] <command> [args]
//
// Commands:
//
//	chatbot  - Voice chatbot in a Huddle01 room via OpenAI Realtime
//	gemini   - Voice chatbot in a Huddle01 room via Gemini Live
//	gtext    - Terminal text chat with Gemini
//	gmulti   - Terminal multimodal chat with Gemini Live
//	room     - Huddle01 room management helpers
//	config   - Configuration management
//
// Credentials come from the environment (optionally a .env file) or from
// contexts stored in ~/.ai01/config.yaml.
package main

import (
	"fmt"
	"os"

	"github.com/huddle01/ai01-go/cmd/ai01/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
