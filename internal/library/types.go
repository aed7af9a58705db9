package library

// ExtensionClass names a group of file extensions that are matched together.
type ExtensionClass struct {
	Name       string
	Extensions []string
}

var (
	// ClassVideo holds the containers ffmpeg is asked to cut.
	ClassVideo = ExtensionClass{
		Name:       "video",
		Extensions: []string{".avi", ".mp4", ".mkv", ".m4v", ".mov", ".webm", ".ts", ".mpg", ".mpeg", ".wmv", ".flv"},
	}
	ClassSubtitle = ExtensionClass{
		Name:       "subtitle",
		Extensions: []string{".srt"},
	}
)

// CollisionPolicy decides what happens when two files of one class map to
// the same key.
type CollisionPolicy int

const (
	// CollisionFail rejects the scan with an AmbiguousKeyError.
	CollisionFail CollisionPolicy = iota
	// CollisionLastWins keeps the file that sorts last by name.
	CollisionLastWins
)

func (p CollisionPolicy) String() string {
	switch p {
	case CollisionLastWins:
		return "last-wins"
	default:
		return "fail"
	}
}
