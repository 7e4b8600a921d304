// Package agent assembles a conversational AI participant for Huddle01
// rooms.
//
// An Agent joins a room, mixes all remote participants into a single PCM
// stream, and hands that stream to a realtime Model (OpenAI Realtime or
// Gemini Live). The model's audio replies are written to the agent's
// published room track; when a user starts speaking over the agent, the
// model flushes the track and truncates its conversation state to what was
// actually heard.
//
// Minimal use:
//
//	model := openairt.NewModel(openaiKey, nil)
//	a, err := agent.New(agent.Options{
//		ProjectID: projectID,
//		APIKey:    apiKey,
//		Model:     model,
//	})
//	if err != nil { ... }
//	if err := a.Join(ctx, roomID); err != nil { ... }
//	err = a.Run(ctx)
package agent
