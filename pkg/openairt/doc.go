// Package openairt is a websocket client for OpenAI's Realtime API and an
// agent.Model built on top of it.
//
// # Direct session use
//
//	client := openairt.NewClient(apiKey)
//	session, err := client.Connect(ctx, &openairt.ConnectConfig{
//	    Model: openairt.ModelGPT4oRealtimePreview,
//	})
//	if err != nil {
//	    return err
//	}
//	defer session.Close()
//
//	err = session.UpdateSession(&openairt.SessionConfig{
//	    Voice:        openairt.VoiceAlloy,
//	    Instructions: "You are a helpful assistant.",
//	    TurnDetection: &openairt.TurnDetection{
//	        Type: openairt.VADServerVAD,
//	    },
//	})
//
//	for event, err := range session.Events() {
//	    if err != nil {
//	        return err
//	    }
//	    switch event.Type {
//	    case openairt.EventTypeResponseAudioDelta:
//	        play(event.Audio)
//	    case openairt.EventTypeResponseTextDelta:
//	        fmt.Print(event.Delta)
//	    }
//	}
//
// Input audio is 16-bit little-endian PCM, 24kHz, mono
// (pcm.L16Mono24K); AppendAudio base64-encodes it.
//
// # As an agent model
//
// NewModel wraps a session into an agent.Model: room audio is streamed
// into the input buffer, server VAD drives turn taking, audio deltas land
// on the agent's room track, and user barge-in truncates the conversation
// item at the point the user actually heard.
package openairt
