package sizestore

// Backend is the transactional key/value storage behind a Store.
//
// Read methods may be called from any goroutine and must not take the
// writer's exclusive lock. Write methods are only ever called from the
// Store's writer goroutine.
type Backend interface {
	// Size returns the recorded size and its write time in epoch seconds.
	Size(path string) (size, updated int64, ok bool, err error)
	// History returns stored paths ordered by rank, 0 first.
	History() ([]string, error)

	PutSize(path string, size, updated int64) error
	// ReplaceHistory clears the history table and rewrites it by rank.
	ReplaceHistory(paths []string) error
	// Prune deletes size records written before cutoff (epoch seconds).
	Prune(cutoff int64) (int, error)

	Close() error
}
