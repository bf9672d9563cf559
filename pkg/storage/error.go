package storage

// ErrNotFound is returned when an artifact doesn't exist in the store.
type ErrNotFound struct {
	ID string
}

func (e ErrNotFound) Error() string {
	if e.ID == "" {
		return "artifact not found"
	}

	return "artifact not found: " + e.ID
}
