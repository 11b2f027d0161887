package downloader

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/deploymenttheory/go-covid-reports/internal/logger"
	"github.com/deploymenttheory/go-covid-reports/internal/storage"
	"github.com/deploymenttheory/go-covid-reports/internal/types"
)

const (
	DefaultMaxAttempts = 3
	DefaultRetryDelay  = time.Second
	DefaultFileDelay   = 500 * time.Millisecond
)

// Lister produces the descriptors of one retrieval run
type Lister interface {
	List(ctx context.Context) (types.Listing, error)
}

// Stats holds downloader statistics
type Stats struct {
	FilesFound      int
	FilesDownloaded int
	BytesDownloaded int64
	Attempts        int
	Errors          int
	StartTime       time.Time
	EndTime         time.Time
}

// Options configures the retry and pacing policy
type Options struct {
	MaxAttempts int
	RetryDelay  time.Duration
	FileDelay   time.Duration
	UserAgent   string
}

// DefaultOptions returns the fixed-delay policy: 3 attempts per file,
// 1s between attempts and 500ms between files
func DefaultOptions() Options {
	return Options{
		MaxAttempts: DefaultMaxAttempts,
		RetryDelay:  DefaultRetryDelay,
		FileDelay:   DefaultFileDelay,
	}
}

// Downloader fetches every listed report into a storage, one file at a time
type Downloader struct {
	client *http.Client
	lister Lister
	store  storage.Storage
	opts   Options

	stats      Stats
	statsMutex sync.RWMutex
}

// New creates a new Downloader
func New(client *http.Client, lister Lister, store storage.Storage, opts Options) *Downloader {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	return &Downloader{
		client: client,
		lister: lister,
		store:  store,
		opts:   opts,
	}
}

// DownloadAll ensures the output directory, lists the remote files and
// downloads each of them in listing order. A listing failure ends the run
// with an empty summary and the listing error. Per-file failures are
// counted, never returned. The only other error is ctx cancellation.
func (d *Downloader) DownloadAll(ctx context.Context) (types.Summary, error) {
	d.markStart()
	defer d.markEnd()

	if err := d.store.Ensure(); err != nil {
		return types.Summary{}, err
	}

	listing, err := d.lister.List(ctx)
	if err != nil {
		logger.Errorf("Failed to fetch file list: %v", err)
		return types.Summary{}, err
	}

	summary := types.Summary{RunID: listing.RunID, TotalFound: len(listing.Files)}
	d.addFilesFound(len(listing.Files))

	for i, file := range listing.Files {
		logger.Infof("[%d/%d] Downloading %s...", i+1, len(listing.Files), file.Name)

		outcome, err := d.DownloadOne(ctx, file, d.opts.MaxAttempts)
		if err != nil {
			logger.Warningf("Download run %s interrupted at %s", listing.RunID, file.Name)
			return summary, err
		}
		summary.Add(outcome)

		if err := sleep(ctx, d.opts.FileDelay); err != nil {
			return summary, err
		}
	}

	summary.Duration = d.Duration()

	logger.Infof("Download summary for run %s:", summary.RunID)
	logger.Infof("  Total files found:       %d", summary.TotalFound)
	logger.Infof("  Successfully downloaded: %d", summary.Succeeded)
	logger.Infof("  Failed downloads:        %d", summary.Failed)

	return summary, nil
}

// DownloadOne fetches file into the storage, trying at most maxAttempts
// times with RetryDelay between attempts. maxAttempts <= 0 means
// DefaultMaxAttempts. The returned error is only set when ctx is done.
func (d *Downloader) DownloadOne(ctx context.Context, file types.Descriptor, maxAttempts int) (types.Outcome, error) {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	outcome := types.Outcome{File: file}
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		outcome.Attempts = attempt
		d.incrementAttempts()

		written, digest, err := d.fetch(ctx, file, attempt)
		if err == nil {
			outcome.Succeeded = true
			outcome.Bytes = written
			outcome.SHA3 = digest
			outcome.Err = nil
			d.recordSuccess(written)
			logger.Debugf("Downloaded %s (%d bytes, sha3-256 %s)", file.Name, written, digest)
			return outcome, nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return outcome, ctxErr
		}
		outcome.Err = err

		if attempt == maxAttempts {
			break
		}
		logger.Debugf("Attempt %d/%d for %s failed: %v", attempt, maxAttempts, file.Name, err)
		if err := sleep(ctx, d.opts.RetryDelay); err != nil {
			return outcome, err
		}
	}

	d.incrementErrors()
	logger.Errorf("Failed to download %s: %v", file.Name, outcome.Err)
	return outcome, nil
}

// fetch performs a single attempt
func (d *Downloader) fetch(ctx context.Context, file types.Descriptor, attempt int) (int64, string, error) {
	fail := func(status int, err error) (int64, string, error) {
		return 0, "", &DownloadError{Name: file.Name, URL: file.DownloadURL, StatusCode: status, Attempt: attempt, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.DownloadURL, nil)
	if err != nil {
		return fail(0, fmt.Errorf("setting up request: %w", err))
	}
	if d.opts.UserAgent != "" {
		req.Header.Set("User-Agent", d.opts.UserAgent)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fail(0, fmt.Errorf("get request failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fail(resp.StatusCode, fmt.Errorf("unexpected status code: %d", resp.StatusCode))
	}

	body := newDigestReader(resp.Body)
	written, err := d.store.Store(file.Name, body)
	if err != nil {
		return fail(resp.StatusCode, err)
	}

	return written, body.Sum(), nil
}

// sleep blocks for delay or until ctx is done
func sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(delay)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Stats returns the current download statistics
func (d *Downloader) Stats() Stats {
	d.statsMutex.RLock()
	defer d.statsMutex.RUnlock()
	return d.stats
}

// Duration returns how long the current or last run took
func (d *Downloader) Duration() time.Duration {
	d.statsMutex.RLock()
	defer d.statsMutex.RUnlock()

	if d.stats.StartTime.IsZero() {
		return 0
	}
	if d.stats.EndTime.IsZero() {
		return time.Since(d.stats.StartTime)
	}
	return d.stats.EndTime.Sub(d.stats.StartTime)
}

func (d *Downloader) markStart() {
	d.statsMutex.Lock()
	d.stats = Stats{StartTime: time.Now()}
	d.statsMutex.Unlock()
}

func (d *Downloader) markEnd() {
	d.statsMutex.Lock()
	d.stats.EndTime = time.Now()
	d.statsMutex.Unlock()
}

func (d *Downloader) addFilesFound(n int) {
	d.statsMutex.Lock()
	d.stats.FilesFound += n
	d.statsMutex.Unlock()
}

func (d *Downloader) recordSuccess(bytes int64) {
	d.statsMutex.Lock()
	d.stats.FilesDownloaded++
	d.stats.BytesDownloaded += bytes
	d.statsMutex.Unlock()
}

func (d *Downloader) incrementAttempts() {
	d.statsMutex.Lock()
	d.stats.Attempts++
	d.statsMutex.Unlock()
}

func (d *Downloader) incrementErrors() {
	d.statsMutex.Lock()
	d.stats.Errors++
	d.statsMutex.Unlock()
}
