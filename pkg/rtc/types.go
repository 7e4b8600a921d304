package rtc

// Role determines a peer's permissions inside a room.
type Role string

const (
	// RoleHost can produce media, admit peers and close the room.
	RoleHost Role = "host"
	// RoleCoHost has host permissions except closing the room.
	RoleCoHost Role = "coHost"
	// RoleSpeaker can produce media.
	RoleSpeaker Role = "speaker"
	// RoleListener can only consume media.
	RoleListener Role = "listener"
	// RoleGuest joins the lobby and must be admitted.
	RoleGuest Role = "guest"
)

// JoinOptions configures how a peer joins a room.
type JoinOptions struct {
	// Role is the permission level to request. Default: RoleGuest.
	Role Role

	// Metadata is arbitrary peer metadata visible to other peers
	// (e.g. {"displayName": "Agent"}).
	Metadata map[string]string

	// AutoConsume automatically consumes every remote producer as it
	// appears. When false, call Room.Consume explicitly.
	AutoConsume bool

	// VolatileMessaging enables the unreliable data channel used by
	// SendData. Messages may be dropped under congestion. When false,
	// SendData falls back to the reliable signaling channel.
	VolatileMessaging bool

	// Handlers are installed before the signaling read loop starts, so
	// no event can arrive ahead of them. Handlers can also be changed
	// later with the Room.SetOn* methods.
	Handlers *RoomHandlers
}

// RoomHandlers holds the room lifecycle callbacks. All callbacks are
// invoked from the signaling read loop or pion's internal goroutines;
// they must not block.
type RoomHandlers struct {
	// OnRoomJoined fires after the join handshake completes.
	OnRoomJoined func()

	// OnRoomClosed fires when the room is closed by the server or locally.
	OnRoomClosed func()

	// OnPeerJoined fires for each remote peer joining.
	OnPeerJoined func(PeerInfo)

	// OnPeerLeft fires for each remote peer leaving.
	OnPeerLeft func(peerID string)

	// OnConsumerAdded fires when a remote track is ready to be read.
	OnConsumerAdded func(*Consumer)

	// OnConsumerClosed fires when a consumer's producer goes away.
	OnConsumerClosed func(consumerID string)

	// OnDataMessage fires for each data message received.
	OnDataMessage func(DataMessage)
}

// PeerInfo describes a remote peer in the room.
type PeerInfo struct {
	PeerID   string            `json:"peerId"`
	Role     Role              `json:"role"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// ProducerInfo describes a media producer announced by the server.
type ProducerInfo struct {
	ProducerID string `json:"producerId"`
	PeerID     string `json:"peerId"`
	Label      string `json:"label"`
	Kind       string `json:"kind"` // "audio" or "video"
}

// ProduceOptions configures Room.Produce.
type ProduceOptions struct {
	// Label identifies the producer to other peers (e.g. "audio").
	Label string

	// Track is the local audio source.
	Track *LocalAudioTrack
}

// DataMessage is a volatile message received from another peer.
type DataMessage struct {
	PeerID  string `json:"peerId"`
	Label   string `json:"label,omitempty"`
	Payload string `json:"payload"`
}

// RoomInfo is returned by the room management API.
type RoomInfo struct {
	RoomID    string `json:"roomId"`
	CreatedAt string `json:"createdAt,omitempty"`
	Title     string `json:"title,omitempty"`
}
