package downloader

import "fmt"

// DownloadError describes one failed attempt to fetch a report file
type DownloadError struct {
	Name       string
	URL        string
	StatusCode int
	Attempt    int
	Err        error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download of %s (attempt %d) failed: %v", e.Name, e.Attempt, e.Err)
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}
