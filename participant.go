package rtvi

type ParticipantID string

type Participant struct {
	ID    ParticipantID `json:"id"`
	Name  string        `json:"name,omitempty"`
	Local bool          `json:"local"`
}

type MediaTrackID string

type TrackKind string

const (
	TrackKindAudio TrackKind = "audio"
	TrackKindVideo TrackKind = "video"
)

// MediaCategory is the slot a track occupies for a participant.
type MediaCategory string

const (
	MediaCategoryMicrophone  MediaCategory = "microphone"
	MediaCategoryCamera      MediaCategory = "camera"
	MediaCategoryScreenAudio MediaCategory = "screenAudio"
	MediaCategoryScreenVideo MediaCategory = "screenVideo"
)

// MediaCategories lists all categories in a fixed order.
var MediaCategories = []MediaCategory{
	MediaCategoryMicrophone,
	MediaCategoryCamera,
	MediaCategoryScreenAudio,
	MediaCategoryScreenVideo,
}

// Kind returns the media kind carried by tracks of this category.
func (c MediaCategory) Kind() TrackKind {
	switch c {
	case MediaCategoryCamera, MediaCategoryScreenVideo:
		return TrackKindVideo
	default:
		return TrackKindAudio
	}
}

// IsScreen is true for screen share categories.
func (c MediaCategory) IsScreen() bool {
	return c == MediaCategoryScreenAudio || c == MediaCategoryScreenVideo
}

type MediaStreamTrack struct {
	ID   MediaTrackID `json:"id"`
	Kind TrackKind    `json:"kind"`
}

// ParticipantTracks holds one track id per category. An empty id means no
// track is present in that slot.
type ParticipantTracks struct {
	Audio       MediaTrackID `json:"audio,omitempty"`
	Video       MediaTrackID `json:"video,omitempty"`
	ScreenAudio MediaTrackID `json:"screenAudio,omitempty"`
	ScreenVideo MediaTrackID `json:"screenVideo,omitempty"`
}

// Slot returns the track id stored for the given category.
func (p ParticipantTracks) Slot(c MediaCategory) MediaTrackID {
	switch c {
	case MediaCategoryMicrophone:
		return p.Audio
	case MediaCategoryCamera:
		return p.Video
	case MediaCategoryScreenAudio:
		return p.ScreenAudio
	case MediaCategoryScreenVideo:
		return p.ScreenVideo
	}
	return ""
}

// WithSlot returns a copy of p with the slot for c set to id.
func (p ParticipantTracks) WithSlot(c MediaCategory, id MediaTrackID) ParticipantTracks {
	switch c {
	case MediaCategoryMicrophone:
		p.Audio = id
	case MediaCategoryCamera:
		p.Video = id
	case MediaCategoryScreenAudio:
		p.ScreenAudio = id
	case MediaCategoryScreenVideo:
		p.ScreenVideo = id
	}
	return p
}

// IsEmpty is true when no slot holds a track.
func (p ParticipantTracks) IsEmpty() bool {
	return p == ParticipantTracks{}
}

// Tracks is a snapshot of the local and bot tracks taken at one instant.
type Tracks struct {
	Local ParticipantTracks `json:"local"`
	Bot   ParticipantTracks `json:"bot"`
}

type MediaDeviceID string

type MediaDeviceInfo struct {
	ID   MediaDeviceID `json:"id"`
	Name string        `json:"name"`
}
