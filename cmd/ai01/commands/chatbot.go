package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/huddle01/ai01-go/pkg/openairt"
)

var chatbotFlags sessionFlags

var chatbotCmd = &cobra.Command{
	Use:     "chatbot",
	Aliases: []string{"run"},
	Short:   "Run a voice chatbot in a Huddle01 room (OpenAI Realtime)",
	Long: `Join a Huddle01 room as an AI voice agent backed by the OpenAI
Realtime API. The agent listens to all participants, answers with speech,
and can file and look up complaints through the complaint book tools.

Examples:
  ai01 chatbot --room abc-defg-hij
  ai01 chatbot --room abc-defg-hij --persona support.yaml --record`,
	RunE: runChatbot,
}

func init() {
	chatbotCmd.Flags().StringVar(&chatbotFlags.roomID, "room", "", "room ID to join (required)")
	chatbotCmd.Flags().StringVarP(&chatbotFlags.personaFile, "persona", "p", "", "persona YAML/JSON file")
	chatbotCmd.Flags().BoolVar(&chatbotFlags.record, "record", false, "record the mixed room audio to Ogg/Opus")
	chatbotCmd.Flags().StringVar(&chatbotFlags.s3Bucket, "s3-bucket", "", "upload recordings to this S3 bucket instead of local disk")
	chatbotCmd.Flags().StringVar(&chatbotFlags.s3Region, "s3-region", "", "S3 bucket region (default: AWS_REGION)")
	_ = chatbotCmd.MarkFlagRequired("room")

	rootCmd.AddCommand(chatbotCmd)
}

func runChatbot(cmd *cobra.Command, args []string) error {
	creds := resolveCredentials()
	if err := creds.requireHuddle(); err != nil {
		return err
	}
	if err := creds.requireOpenAI(); err != nil {
		return err
	}

	persona, err := loadPersona(chatbotFlags.personaFile)
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

	model := openairt.NewModel(creds.OpenAIAPIKey, &openairt.ModelConfig{
		Model:        persona.Model,
		Voice:        persona.Voice,
		Instructions: instructions,
		Temperature:  persona.Temperature,
		Tools:        reg,
	})

	return runSession(ctx, creds, model, name, chatbotFlags)
}
