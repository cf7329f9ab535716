package sync

// State is the engine's view of how far the local configuration set can
// be trusted. Failure states are sticky: a later successful operation is
// required to leave them.
type State int

const (
	// Uninitialized means no snapshot has been loaded or fetched yet.
	Uninitialized State = iota

	// MetadataLoaded means a snapshot is held (from cache or from the
	// server) but local files have not been confirmed against it.
	MetadataLoaded

	// Synchronized means every entry matched on disk or was downloaded
	// successfully.
	Synchronized

	// MetadataFetchFailed means the last refresh against the server
	// failed and the in-memory snapshot was cleared.
	MetadataFetchFailed

	// DownloadFailed means the last download batch aborted on a failed
	// entry.
	DownloadFailed
)

// Failed reports whether s is one of the failure states.
func (s State) Failed() bool {
	return s == MetadataFetchFailed || s == DownloadFailed
}

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "Uninitialized"
	case MetadataLoaded:
		return "MetadataLoaded"
	case Synchronized:
		return "Synchronized"
	case MetadataFetchFailed:
		return "MetadataFetchFailed"
	case DownloadFailed:
		return "DownloadFailed"
	default:
		return "Unknown"
	}
}
