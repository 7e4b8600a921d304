package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/huddle01/ai01-go/pkg/gemini"
)

var geminiFlags sessionFlags

var geminiCmd = &cobra.Command{
	Use:   "gemini",
	Short: "Run a voice chatbot in a Huddle01 room (Gemini Live)",
	Long: `Join a Huddle01 room as an AI voice agent backed by the Gemini
Live API. Same room flow as 'chatbot' with Google's realtime models.

Examples:
  ai01 gemini --room abc-defg-hij
  ai01 gemini --room abc-defg-hij --persona persona.yaml`,
	RunE: runGemini,
}

func init() {
	geminiCmd.Flags().StringVar(&geminiFlags.roomID, "room", "", "room ID to join (required)")
	geminiCmd.Flags().StringVarP(&geminiFlags.personaFile, "persona", "p", "", "persona YAML/JSON file")
	geminiCmd.Flags().BoolVar(&geminiFlags.record, "record", false, "record the mixed room audio to Ogg/Opus")
	geminiCmd.Flags().StringVar(&geminiFlags.s3Bucket, "s3-bucket", "", "upload recordings to this S3 bucket instead of local disk")
	geminiCmd.Flags().StringVar(&geminiFlags.s3Region, "s3-region", "", "S3 bucket region (default: AWS_REGION)")
	_ = geminiCmd.MarkFlagRequired("room")

	rootCmd.AddCommand(geminiCmd)
}

func runGemini(cmd *cobra.Command, args []string) error {
	creds := resolveCredentials()
	if err := creds.requireHuddle(); err != nil {
		return err
	}
	if err := creds.requireGemini(); err != nil {
		return err
	}

	persona, err := loadPersona(geminiFlags.personaFile)
	if err != nil {
		return fmt.Errorf("load persona: %w", err)
	}
	instructions := persona.Instructions
	if instructions == "" {
		instructions = defaultInstructions
	}
	name := persona.Name
	if name == "" {
		name = "AI Agent"
	}

	ctx, cancel := signalContext()
	defer cancel()

	reg, closeStore, err := openComplaintBook(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	model := gemini.NewLiveModel(creds.GeminiAPIKey, &gemini.LiveConfig{
		Model:        persona.Model,
		Voice:        persona.Voice,
		Instructions: instructions,
		Temperature:  persona.Temperature,
	}, reg)

	return runSession(ctx, creds, model, name, geminiFlags)
}
