package room

// NoTrack is the stored sentinel for "nothing selected".
const NoTrack = -1

// Player is the transport-independent playback slice of a room's state as
// stored in the player hash.
type Player struct {
	CurrentTrack   int     `redis:"current_track"`
	Playing        bool    `redis:"playing"`
	Position       float64 `redis:"position"`
	LastUpdateTime float64 `redis:"last_update_time"`
	Volume         float64 `redis:"volume"`
}

// Track is one playlist entry. Entries are immutable once appended.
type Track struct {
	Id          string `json:"id"`
	Title       string `json:"title"`
	Thumbnail   string `json:"thumbnail"`
	Channel     string `json:"channel"`
	Duration    string `json:"duration,omitempty"`
	PublishedAt string `json:"publishedAt,omitempty"`
}

type SetPlayerParams struct {
	CurrentTrack   int
	Playing        bool
	Position       float64
	LastUpdateTime float64
	Volume         float64
	RoomId         string
}

type UpdatePlayerStateParams struct {
	CurrentTrack   int
	Playing        bool
	Position       float64
	LastUpdateTime float64
	RoomId         string
}

type AppendTrackParams struct {
	Track  Track
	RoomId string
}

type RemoveTrackParams struct {
	Index  int
	RoomId string
}
