// Package rtc provides a client for the Huddle01 dRTC network.
//
// A Client authenticates against a Huddle01 project (project ID + API key)
// and joins rooms. A Room multiplexes a single WebRTC peer connection:
// local audio is produced onto the room, remote peers' producers are
// consumed (automatically when AutoConsume is set), and lightweight data
// messages can be broadcast over a data channel.
//
// # Joining a room
//
//	client := rtc.NewClient(projectID, apiKey)
//	room, err := client.Join(ctx, roomID, &rtc.JoinOptions{
//	    Role:     rtc.RoleHost,
//	    Metadata: map[string]string{"displayName": "Agent"},
//	    Handlers: &rtc.RoomHandlers{
//	        OnConsumerAdded: func(c *rtc.Consumer) { /* pipe c.Track */ },
//	    },
//	})
//	if err != nil {
//	    return err
//	}
//	defer room.Close()
//
// # Media
//
// Local audio is produced from a LocalAudioTrack, a paced 20ms PCM writer
// that encodes to Opus:
//
//	track := rtc.NewLocalAudioTrack(pcm.L16Mono24K)
//	room.Produce(ctx, &rtc.ProduceOptions{Label: "audio", Track: track})
//
// Remote audio arrives through the OnConsumerAdded callback as a
// RemoteAudioTrack; its decoded PCM can be piped anywhere a pcm.Writer
// points (typically a conversation mixer).
//
// Signaling runs over a websocket; built-in request/response correlation
// keeps produce/consume flows synchronous while server events (peer joins,
// new producers, data messages) are delivered through callbacks.
package rtc
