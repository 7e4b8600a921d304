package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/huddle01/ai01-go/pkg/cli"
)

var (
	// Global flags
	cfgFile     string
	contextName string
	envFile     string
	outputJSON  bool
	verbose     bool

	// Global configuration
	globalConfig *cli.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ai01",
	Short: "AI agents for Huddle01 realtime rooms",
	Long: `ai01 - Build and run AI voice agents in Huddle01 rooms.

The agents join a room as a peer, listen to everyone's audio, and answer
through an LLM realtime voice API (OpenAI Realtime or Gemini Live).

Credentials are read from the environment (HUDDLE_PROJECT_ID, HUDDLE_API_KEY,
OPENAI_API_KEY, GEMINI_API_KEY), optionally loaded from a .env file, or from
a named context in ~/.ai01/config.yaml.

Examples:
  # One-off setup
  ai01 config add-context dev --project-id PID --api-key KEY --openai-key sk-...

  # Create a room and drop a bot into it
  ai01 room create --jq .roomId
  ai01 chatbot --room abc-defg-hij

  # Text chat in the terminal
  ai01 gtext
`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.ai01/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&contextName, "context", "c", "", "context name to use")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "load environment variables from file (default: .env if present)")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output as JSON (for piping)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

func initConfig() {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})))

	// .env loading is best effort: an explicit --env-file must exist, the
	// default ./.env may be absent.
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: env file: %v\n", err)
		}
	} else {
		_ = godotenv.Load()
	}

	var err error
	globalConfig, err = cli.LoadConfigWithPath(cfgFile)
	if err != nil {
		// Log but don't exit so env-only invocations still work.
		fmt.Fprintf(os.Stderr, "Warning: config: %v\n", err)
	}
}

// getConfig returns the global configuration
func getConfig() *cli.Config {
	return globalConfig
}

// isJSONOutput returns whether output should be JSON
func isJSONOutput() bool {
	return outputJSON
}

// isVerbose returns whether verbose mode is enabled
func isVerbose() bool {
	return verbose
}
