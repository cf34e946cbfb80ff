package room

// Track is an immutable playlist entry. JSON keys follow the wire format the
// web client consumes.
type Track struct {
	Id          string `json:"id"`
	Title       string `json:"title"`
	Thumbnail   string `json:"thumbnail"`
	Channel     string `json:"channel"`
	Duration    string `json:"duration,omitempty"`
	PublishedAt string `json:"publishedAt,omitempty"`
}

// State is the authoritative room aggregate as pushed to clients.
// CurrentTrack is nil while nothing is selected. While Playing, the
// effective position for any observer is Position + (now - LastUpdateTime).
type State struct {
	Playlist       []Track `json:"playlist"`
	CurrentTrack   *int    `json:"current_track"`
	Playing        bool    `json:"playing"`
	Position       float64 `json:"position"`
	LastUpdateTime float64 `json:"last_update_time"`
	Volume         float64 `json:"volume"`
}

type PauseReason string

const (
	PauseReasonUser         PauseReason = "user"
	PauseReasonBuffering    PauseReason = "buffering"
	PauseReasonBackgrounded PauseReason = "backgrounded"
	PauseReasonError        PauseReason = "error"
)

func (r PauseReason) Valid() bool {
	switch r {
	case PauseReasonUser, PauseReasonBuffering, PauseReasonBackgrounded, PauseReasonError:
		return true
	}

	return false
}

// Event is the server-to-client envelope.
type Event struct {
	Type      string   `json:"type"`
	Data      any      `json:"data,omitempty"`
	Timestamp *float64 `json:"timestamp,omitempty"`
}

const (
	EventStateUpdate = "state_update"
	EventMasterSync  = "master_sync"
	EventPong        = "pong"
	EventError       = "error"
)
