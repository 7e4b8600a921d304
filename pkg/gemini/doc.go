// Package gemini provides Gemini model access for agents: a Live API
// websocket session for realtime audio conversations and a text generator
// on the genai SDK.
//
// The Live API (BidiGenerateContent) streams 16kHz PCM up and receives
// 24kHz PCM replies; turn taking and barge-in detection happen server
// side. LiveModel adapts a session to agent.Model.
//
//	model := gemini.NewLiveModel(apiKey, &gemini.LiveConfig{
//	    Voice:        "Puck",
//	    Instructions: "You are a helpful assistant.",
//	})
//
// For plain text generation (no room, no audio) use Text:
//
//	text, err := gemini.NewText(ctx, apiKey, "gemini-2.0-flash")
//	for chunk, err := range text.Stream(ctx, "Explain WebRTC briefly.") { ... }
package gemini
