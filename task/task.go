package task

import (
	"time"
)

type State string

const (
	StatePending     State = "PENDING"
	StateDownloading State = "DOWNLOADING"
	StateSuccess     State = "SUCCESS"
	StateFailure     State = "FAILURE"
)

// stateRank orders states so transitions can only move forward.
// SUCCESS and FAILURE are terminal and share a rank.
var stateRank = map[State]int{
	StatePending:     0,
	StateDownloading: 1,
	StateSuccess:     2,
	StateFailure:     2,
}

type MediaType string

const (
	MediaVideo MediaType = "video"
	MediaAudio MediaType = "audio"
)

func (m MediaType) Valid() bool {
	return m == MediaVideo || m == MediaAudio
}

var (
	VideoQualities = []string{"1080p", "720p", "360p"}
	AudioQualities = []string{"excellent", "good", "ok"}
)

// ValidQuality reports whether quality belongs to the enum permitted
// for the given media type.
func ValidQuality(mediaType MediaType, quality string) bool {
	var allowed []string
	switch mediaType {
	case MediaVideo:
		allowed = VideoQualities
	case MediaAudio:
		allowed = AudioQualities
	default:
		return false
	}
	for _, q := range allowed {
		if q == quality {
			return true
		}
	}
	return false
}

// Result describes the produced artifact of a successful task. Exactly one of
// the local file or RemoteURL is the authoritative copy: after a successful
// upload the local file is removed, and after a failed upload UploadError is
// recorded while the local file keeps serving.
type Result struct {
	FilePath    string    `json:"file_path"`
	Filename    string    `json:"filename"`
	Size        int64     `json:"size"`
	Quality     string    `json:"quality"`
	MediaType   MediaType `json:"type"`
	RemoteURL   string    `json:"remote_url,omitempty"`
	UploadError string    `json:"upload_error,omitempty"`
	Bitrate     int       `json:"bitrate_kbps,omitempty"`
	Height      int       `json:"height,omitempty"`
}

type Task struct {
	ID          string    `json:"task_id"`
	State       State     `json:"state"`
	URL         string    `json:"-"` // Never expose the submitted URL
	MediaType   MediaType `json:"media_type"`
	Quality     string    `json:"quality"`
	Result      *Result   `json:"result,omitempty"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	StartedAt   time.Time `json:"started_at,omitempty"`
	CompletedAt time.Time `json:"completed_at,omitempty"`
}

// clone returns a deep copy so readers never alias registry-owned state.
func (t *Task) clone() Task {
	cp := *t
	if t.Result != nil {
		res := *t.Result
		cp.Result = &res
	}
	return cp
}
