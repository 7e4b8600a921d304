package rtc

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/pion/webrtc/v3"
)

// Room is a live connection to a Huddle01 room.
//
// Callbacks fire on the signaling read loop or pion's internal goroutines.
// Pass them in JoinOptions.Handlers so the earliest events, including the
// consumers negotiated during an auto-consume join, cannot slip past them.
type Room struct {
	client *Client
	roomID string
	peerID string
	opts   *JoinOptions

	sig *signaler
	pc  *webrtc.PeerConnection
	dc  *webrtc.DataChannel

	negotiateMu sync.Mutex

	mu         sync.Mutex
	peers      map[string]*PeerInfo
	producers  map[string]*ProducerInfo
	consumers  map[string]*Consumer // keyed by transceiver mid until media arrives
	local      *LocalAudioTrack
	producerID string
	handlers   RoomHandlers

	closeOnce sync.Once
	closeCh   chan struct{}
}

// Consumer is a remote producer being consumed by this peer.
type Consumer struct {
	ConsumerID string
	ProducerID string
	PeerID     string
	Label      string
	Kind       string

	// Track carries the decoded remote audio. Set before OnConsumerAdded
	// fires.
	Track *RemoteAudioTrack
}

// connectRoomResponse is the server's reply to connect-room.
type connectRoomResponse struct {
	PeerID    string         `json:"peerId"`
	Peers     []PeerInfo     `json:"peers"`
	Producers []ProducerInfo `json:"producers"`
}

// JoinWithToken connects to a room with a previously obtained token.
func (c *Client) JoinWithToken(ctx context.Context, roomID, token string, opts *JoinOptions) (*Room, error) {
	if opts == nil {
		opts = &JoinOptions{}
	}

	sig, err := dialSignal(ctx, c.signalURL, token)
	if err != nil {
		return nil, err
	}

	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{
			{URLs: []string{"stun:stun.l.google.com:19302"}},
		},
	})
	if err != nil {
		sig.close()
		return nil, fmt.Errorf("rtc: create peer connection: %w", err)
	}

	room := &Room{
		client:    c,
		roomID:    roomID,
		opts:      opts,
		sig:       sig,
		pc:        pc,
		peers:     make(map[string]*PeerInfo),
		producers: make(map[string]*ProducerInfo),
		consumers: make(map[string]*Consumer),
		closeCh:   make(chan struct{}),
	}
	if opts.Handlers != nil {
		room.handlers = *opts.Handlers
	}

	sig.onEvent = room.handleEvent
	sig.start()

	pc.OnTrack(room.handleTrack)
	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		slog.Info("room connection state", "room", roomID, "state", state.String())
		if state == webrtc.PeerConnectionStateFailed {
			room.Close()
		}
	})

	if opts.VolatileMessaging {
		ordered := false
		var maxRetransmits uint16 = 0
		dc, err := pc.CreateDataChannel("volatile", &webrtc.DataChannelInit{
			Ordered:        &ordered,
			MaxRetransmits: &maxRetransmits,
		})
		if err != nil {
			room.Close()
			return nil, fmt.Errorf("rtc: create data channel: %w", err)
		}
		dc.OnMessage(func(msg webrtc.DataChannelMessage) {
			var dm DataMessage
			if json.Unmarshal(msg.Data, &dm) != nil {
				return
			}
			if fn := room.snapshotHandlers().OnDataMessage; fn != nil {
				fn(dm)
			}
		})
		room.dc = dc
	}

	raw, err := sig.request(ctx, opConnectRoom, map[string]any{
		"roomId":      roomID,
		"metadata":    opts.Metadata,
		"autoConsume": opts.AutoConsume,
	})
	if err != nil {
		room.Close()
		return nil, err
	}
	var resp connectRoomResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		room.Close()
		return nil, fmt.Errorf("rtc: decode connect-room response: %w", err)
	}
	room.peerID = resp.PeerID
	for i := range resp.Peers {
		room.peers[resp.Peers[i].PeerID] = &resp.Peers[i]
	}

	// Initial offer/answer. The data channel (if any) needs a first
	// negotiation even before media is added.
	if err := room.negotiate(ctx); err != nil {
		room.Close()
		return nil, err
	}

	if fn := room.snapshotHandlers().OnRoomJoined; fn != nil {
		fn()
	}

	if opts.AutoConsume {
		for i := range resp.Producers {
			p := resp.Producers[i]
			room.mu.Lock()
			room.producers[p.ProducerID] = &p
			room.mu.Unlock()
			go room.consumeLogged(p.ProducerID)
		}
	}

	return room, nil
}

// PeerID returns this peer's ID assigned by the server.
func (r *Room) PeerID() string { return r.peerID }

// RoomID returns the room ID.
func (r *Room) RoomID() string { return r.roomID }

// Peers returns a snapshot of the remote peers currently in the room.
func (r *Room) Peers() []PeerInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]PeerInfo, 0, len(r.peers))
	for _, p := range r.peers {
		out = append(out, *p)
	}
	return out
}

// snapshotHandlers reads the handler set under the room lock. Dispatch
// sites call through the snapshot so a concurrent SetOn* never races
// with the read loop.
func (r *Room) snapshotHandlers() RoomHandlers {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.handlers
}

// SetOnRoomJoined sets the callback invoked after the join handshake.
func (r *Room) SetOnRoomJoined(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers.OnRoomJoined = fn
}

// SetOnRoomClosed sets the callback invoked when the room is closed by the
// server or locally.
func (r *Room) SetOnRoomClosed(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers.OnRoomClosed = fn
}

// SetOnPeerJoined sets the callback for remote peers joining.
func (r *Room) SetOnPeerJoined(fn func(PeerInfo)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers.OnPeerJoined = fn
}

// SetOnPeerLeft sets the callback for remote peers leaving.
func (r *Room) SetOnPeerLeft(fn func(peerID string)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers.OnPeerLeft = fn
}

// SetOnConsumerAdded sets the callback invoked when a remote track is ready
// to be read.
func (r *Room) SetOnConsumerAdded(fn func(*Consumer)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers.OnConsumerAdded = fn
}

// SetOnConsumerClosed sets the callback invoked when a consumer's producer
// goes away.
func (r *Room) SetOnConsumerClosed(fn func(consumerID string)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers.OnConsumerClosed = fn
}

// SetOnDataMessage sets the callback for data messages.
func (r *Room) SetOnDataMessage(fn func(DataMessage)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers.OnDataMessage = fn
}

// Produce publishes a local audio track to the room and starts its pacing
// loop.
func (r *Room) Produce(ctx context.Context, opts *ProduceOptions) error {
	if opts == nil || opts.Track == nil {
		return fmt.Errorf("rtc: produce: track is required")
	}
	label := opts.Label
	if label == "" {
		label = "audio"
	}

	sender, err := r.pc.AddTrack(opts.Track.rtpTrack())
	if err != nil {
		return fmt.Errorf("rtc: add track: %w", err)
	}

	// Drain RTCP so interceptors keep working.
	go func() {
		buf := make([]byte, 1500)
		for {
			if _, _, err := sender.Read(buf); err != nil {
				return
			}
		}
	}()

	if err := r.negotiate(ctx); err != nil {
		return err
	}

	raw, err := r.sig.request(ctx, opProduce, map[string]any{
		"label": label,
		"kind":  "audio",
		"mid":   midForSender(r.pc, sender),
	})
	if err != nil {
		return err
	}
	var resp struct {
		ProducerID string `json:"producerId"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return fmt.Errorf("rtc: decode produce response: %w", err)
	}

	r.mu.Lock()
	r.local = opts.Track
	r.producerID = resp.ProducerID
	r.mu.Unlock()

	opts.Track.start()
	slog.Info("producing", "room", r.roomID, "label", label, "producer", resp.ProducerID)
	return nil
}

// CloseProducer unpublishes the local audio track and stops its pacing
// loop. The agent keeps its room connection and can Produce again.
func (r *Room) CloseProducer(ctx context.Context) error {
	r.mu.Lock()
	id := r.producerID
	local := r.local
	r.producerID = ""
	r.local = nil
	r.mu.Unlock()
	if id == "" {
		return fmt.Errorf("rtc: no active producer")
	}

	if _, err := r.sig.request(ctx, opCloseProd, map[string]any{"producerId": id}); err != nil {
		return err
	}
	if local != nil {
		local.Close()
	}
	slog.Info("producer closed", "room", r.roomID, "producer", id)
	return nil
}

// Consume starts consuming a remote producer. The resulting Consumer is
// delivered through OnConsumerAdded once media flows.
func (r *Room) Consume(ctx context.Context, producerID string) error {
	tr, err := r.pc.AddTransceiverFromKind(webrtc.RTPCodecTypeAudio, webrtc.RTPTransceiverInit{
		Direction: webrtc.RTPTransceiverDirectionRecvonly,
	})
	if err != nil {
		return fmt.Errorf("rtc: add transceiver: %w", err)
	}

	if err := r.negotiate(ctx); err != nil {
		return err
	}

	raw, err := r.sig.request(ctx, opConsume, map[string]any{
		"producerId": producerID,
		"mid":        tr.Mid(),
	})
	if err != nil {
		return err
	}
	var resp struct {
		ConsumerID string `json:"consumerId"`
		PeerID     string `json:"peerId"`
		Label      string `json:"label"`
		Kind       string `json:"kind"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return fmt.Errorf("rtc: decode consume response: %w", err)
	}

	r.mu.Lock()
	r.consumers[tr.Mid()] = &Consumer{
		ConsumerID: resp.ConsumerID,
		ProducerID: producerID,
		PeerID:     resp.PeerID,
		Label:      resp.Label,
		Kind:       resp.Kind,
	}
	r.mu.Unlock()
	return nil
}

// SendData broadcasts a data message to all peers in the room. With
// VolatileMessaging it goes over the unreliable data channel, otherwise
// over the signaling connection.
func (r *Room) SendData(label, payload string) error {
	msg := DataMessage{PeerID: r.peerID, Label: label, Payload: payload}
	if r.dc == nil {
		return r.sig.notify(opData, msg)
	}
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return r.dc.Send(b)
}

// Close leaves the room and releases the peer connection. It is safe to
// call multiple times.
func (r *Room) Close() error {
	r.closeOnce.Do(func() {
		close(r.closeCh)
		r.sig.notify(opLeave, nil)

		r.mu.Lock()
		local := r.local
		consumers := make([]*Consumer, 0, len(r.consumers))
		for _, c := range r.consumers {
			consumers = append(consumers, c)
		}
		r.mu.Unlock()

		if local != nil {
			local.Close()
		}
		for _, c := range consumers {
			if c.Track != nil {
				c.Track.Close()
			}
		}

		r.pc.Close()
		r.sig.close()

		if fn := r.snapshotHandlers().OnRoomClosed; fn != nil {
			fn()
		}
	})
	return nil
}

// Done returns a channel closed when the room connection ends.
func (r *Room) Done() <-chan struct{} { return r.closeCh }

// negotiate runs one offer/answer exchange over signaling. Negotiations are
// serialized; pion handles transceiver reuse across rounds.
func (r *Room) negotiate(ctx context.Context) error {
	r.negotiateMu.Lock()
	defer r.negotiateMu.Unlock()

	offer, err := r.pc.CreateOffer(nil)
	if err != nil {
		return fmt.Errorf("rtc: create offer: %w", err)
	}
	gathered := webrtc.GatheringCompletePromise(r.pc)
	if err := r.pc.SetLocalDescription(offer); err != nil {
		return fmt.Errorf("rtc: set local description: %w", err)
	}
	select {
	case <-gathered:
	case <-ctx.Done():
		return ctx.Err()
	}

	raw, err := r.sig.request(ctx, opNegotiate, map[string]any{
		"type": "offer",
		"sdp":  r.pc.LocalDescription().SDP,
	})
	if err != nil {
		return err
	}
	var resp struct {
		SDP string `json:"sdp"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return fmt.Errorf("rtc: decode negotiate response: %w", err)
	}
	return r.pc.SetRemoteDescription(webrtc.SessionDescription{
		Type: webrtc.SDPTypeAnswer,
		SDP:  resp.SDP,
	})
}

// handleTrack matches incoming media to a pending consumer by mid.
func (r *Room) handleTrack(track *webrtc.TrackRemote, receiver *webrtc.RTPReceiver) {
	mid := midForReceiver(r.pc, receiver)

	r.mu.Lock()
	consumer := r.consumers[mid]
	if consumer != nil {
		consumer.Track = newRemoteAudioTrack(track)
	}
	fn := r.handlers.OnConsumerAdded
	r.mu.Unlock()

	if consumer == nil {
		slog.Warn("track without consumer", "room", r.roomID, "mid", mid)
		return
	}

	slog.Info("consumer media flowing",
		"room", r.roomID,
		"consumer", consumer.ConsumerID,
		"peer", consumer.PeerID,
		"codec", track.Codec().MimeType)

	if fn != nil {
		fn(consumer)
	}
}

func (r *Room) handleEvent(op string, data json.RawMessage) {
	switch op {
	case evtPeerJoined:
		var p PeerInfo
		if json.Unmarshal(data, &p) != nil {
			return
		}
		r.mu.Lock()
		r.peers[p.PeerID] = &p
		fn := r.handlers.OnPeerJoined
		r.mu.Unlock()
		if fn != nil {
			fn(p)
		}

	case evtPeerLeft:
		var e struct {
			PeerID string `json:"peerId"`
		}
		if json.Unmarshal(data, &e) != nil {
			return
		}
		r.mu.Lock()
		delete(r.peers, e.PeerID)
		fn := r.handlers.OnPeerLeft
		r.mu.Unlock()
		if fn != nil {
			fn(e.PeerID)
		}

	case evtNewProducer:
		var p ProducerInfo
		if json.Unmarshal(data, &p) != nil {
			return
		}
		r.mu.Lock()
		r.producers[p.ProducerID] = &p
		r.mu.Unlock()
		if r.opts.AutoConsume && p.Kind == "audio" {
			go r.consumeLogged(p.ProducerID)
		}

	case evtProducerClosed:
		var e struct {
			ProducerID string `json:"producerId"`
		}
		if json.Unmarshal(data, &e) != nil {
			return
		}
		r.mu.Lock()
		delete(r.producers, e.ProducerID)
		var closed *Consumer
		for _, c := range r.consumers {
			if c.ProducerID == e.ProducerID {
				closed = c
				break
			}
		}
		fn := r.handlers.OnConsumerClosed
		r.mu.Unlock()
		if closed != nil {
			if closed.Track != nil {
				closed.Track.Close()
			}
			if fn != nil {
				fn(closed.ConsumerID)
			}
		}

	case evtData:
		var dm DataMessage
		if json.Unmarshal(data, &dm) != nil {
			return
		}
		if fn := r.snapshotHandlers().OnDataMessage; fn != nil {
			fn(dm)
		}

	case evtNegotiate:
		// The server wants a fresh offer/answer round, e.g. after it
		// rewired media on its side. Run it off the read loop so
		// signaling stays responsive.
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
			defer cancel()
			if err := r.negotiate(ctx); err != nil {
				slog.Error("server renegotiation failed", "room", r.roomID, "error", err)
			}
		}()

	case evtRoomClosed:
		r.Close()

	default:
		slog.Debug("unhandled signaling event", "op", op)
	}
}

// consumeLogged wraps Consume for use from event handlers.
func (r *Room) consumeLogged(producerID string) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	if err := r.Consume(ctx, producerID); err != nil {
		slog.Error("auto-consume failed", "room", r.roomID, "producer", producerID, "error", err)
	}
}

func midForSender(pc *webrtc.PeerConnection, sender *webrtc.RTPSender) string {
	for _, tr := range pc.GetTransceivers() {
		if tr.Sender() == sender {
			return tr.Mid()
		}
	}
	return ""
}

func midForReceiver(pc *webrtc.PeerConnection, receiver *webrtc.RTPReceiver) string {
	for _, tr := range pc.GetTransceivers() {
		if tr.Receiver() == receiver {
			return tr.Mid()
		}
	}
	return ""
}
