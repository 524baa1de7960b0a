package spacache

// ProgressEvent represents a progress update during Load.
type ProgressEvent struct {
	// Stage identifies the current phase of the load.
	Stage ProgressStage

	// Path is the file that just finished processing, if applicable.
	Path string

	// FilesDone is the number of files processed so far.
	FilesDone int

	// FilesTotal is the number of files found by enumeration.
	// Zero indicates the total is unknown (during enumeration).
	FilesTotal int
}

// ProgressStage identifies the current phase of a load.
type ProgressStage uint8

const (
	// StageEnumerating indicates the directory tree is being walked.
	StageEnumerating ProgressStage = iota

	// StageLoading indicates files are being read and compressed.
	StageLoading

	// StagePublishing indicates the tables are being frozen.
	StagePublishing
)

// String returns the string representation of the stage.
func (s ProgressStage) String() string {
	switch s {
	case StageEnumerating:
		return "enumerating"
	case StageLoading:
		return "loading"
	case StagePublishing:
		return "publishing"
	default:
		return "unknown"
	}
}

// ProgressFunc receives progress updates during Load.
// Implementations must be safe for concurrent calls.
type ProgressFunc func(ProgressEvent)
