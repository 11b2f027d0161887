package types

import (
	"time"

	"github.com/google/uuid"
)

// Descriptor identifies one remote report file
type Descriptor struct {
	Name        string    `json:"name"`
	DownloadURL string    `json:"download_url"`
	RunID       uuid.UUID `json:"-"`
}

// Listing is the result of a single listing call
type Listing struct {
	RunID uuid.UUID
	Files []Descriptor
}

// Outcome is the per-file result of a download attempt sequence
type Outcome struct {
	File      Descriptor
	Succeeded bool
	Attempts  int
	Bytes     int64
	SHA3      string
	Err       error
}

// Summary aggregates the outcomes of one retrieval run
type Summary struct {
	RunID      uuid.UUID
	TotalFound int
	Succeeded  int
	Failed     int
	Duration   time.Duration
}

// Add records an outcome in the summary
func (s *Summary) Add(o Outcome) {
	if o.Succeeded {
		s.Succeeded++
	} else {
		s.Failed++
	}
}
