package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/sha3"

	"github.com/deploymenttheory/go-covid-reports/internal/storage"
	"github.com/deploymenttheory/go-covid-reports/internal/types"
)

// fakeLister returns a fixed set of files, or an error
type fakeLister struct {
	names []string
	base  string
	err   error
}

func (f fakeLister) List(ctx context.Context) (types.Listing, error) {
	if f.err != nil {
		return types.Listing{}, f.err
	}
	listing := types.Listing{RunID: uuid.New()}
	for _, name := range f.names {
		listing.Files = append(listing.Files, types.Descriptor{
			Name:        name,
			DownloadURL: f.base + "/" + name,
			RunID:       listing.RunID,
		})
	}
	return listing, nil
}

// reportServer serves /<name> and fails the first failures[name] requests
type reportServer struct {
	*httptest.Server

	mu       sync.Mutex
	hits     map[string]int
	failures map[string]int
}

func newReportServer(t *testing.T, failures map[string]int) *reportServer {
	s := &reportServer{hits: make(map[string]int), failures: failures}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/")

		s.mu.Lock()
		s.hits[name]++
		hit := s.hits[name]
		s.mu.Unlock()

		if hit <= s.failures[name] {
			http.Error(w, "try again", http.StatusServiceUnavailable)
			return
		}
		fmt.Fprintf(w, "Country_Region,Confirmed\nFrance,%d\n", len(name))
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *reportServer) hitsFor(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[name]
}

func (s *reportServer) totalHits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.hits {
		total += n
	}
	return total
}

func noDelays() Options {
	return Options{MaxAttempts: DefaultMaxAttempts}
}

func descriptor(srv *reportServer, name string) types.Descriptor {
	return types.Descriptor{Name: name, DownloadURL: srv.URL + "/" + name}
}

func TestDownloadAllWritesEveryFile(t *testing.T) {
	srv := newReportServer(t, nil)
	dir := storage.New(filepath.Join(t.TempDir(), "covid_data"))
	lister := fakeLister{names: []string{"01-01-2022.csv", "01-02-2022.csv"}, base: srv.URL}

	d := New(srv.Client(), lister, dir, noDelays())
	summary, err := d.DownloadAll(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, summary.TotalFound)
	require.Equal(t, 2, summary.Succeeded)
	require.Equal(t, 0, summary.Failed)

	for _, name := range lister.names {
		data, err := os.ReadFile(dir.Path(name))
		require.NoError(t, err)
		require.Contains(t, string(data), "France")
		require.Equal(t, 1, srv.hitsFor(name))
	}

	stats := d.Stats()
	require.Equal(t, 2, stats.FilesFound)
	require.Equal(t, 2, stats.FilesDownloaded)
	require.Equal(t, 2, stats.Attempts)
	require.Equal(t, 0, stats.Errors)
}

func TestDownloadAllManyFiles(t *testing.T) {
	srv := newReportServer(t, nil)
	names := make([]string, 25)
	for i := range names {
		names[i] = fmt.Sprintf("01-%02d-2021.csv", i+1)
	}

	d := New(srv.Client(), fakeLister{names: names, base: srv.URL}, storage.New(t.TempDir()), noDelays())
	summary, err := d.DownloadAll(context.Background())
	require.NoError(t, err)
	require.Equal(t, types.Summary{RunID: summary.RunID, TotalFound: 25, Succeeded: 25, Duration: summary.Duration}, summary)
}

func TestDownloadAllListingFailure(t *testing.T) {
	srv := newReportServer(t, nil)
	listingErr := errors.New("listing unreachable")

	d := New(srv.Client(), fakeLister{err: listingErr}, storage.New(t.TempDir()), noDelays())
	summary, err := d.DownloadAll(context.Background())
	require.ErrorIs(t, err, listingErr)
	require.Equal(t, types.Summary{}, summary)
	require.Equal(t, 0, srv.totalHits())
}

func TestDownloadAllNoFiles(t *testing.T) {
	srv := newReportServer(t, nil)
	root := filepath.Join(t.TempDir(), "out")

	d := New(srv.Client(), fakeLister{base: srv.URL}, storage.New(root), noDelays())
	summary, err := d.DownloadAll(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, summary.TotalFound)
	require.Equal(t, 0, summary.Succeeded)
	require.Equal(t, 0, summary.Failed)
	require.Equal(t, 0, srv.totalHits())

	// the directory is still created
	_, err = os.Stat(root)
	require.NoError(t, err)
}

func TestDownloadAllContinuesAfterFailure(t *testing.T) {
	srv := newReportServer(t, map[string]int{"01-02-2022.csv": 100})
	names := []string{"01-01-2022.csv", "01-02-2022.csv", "01-03-2022.csv"}

	d := New(srv.Client(), fakeLister{names: names, base: srv.URL}, storage.New(t.TempDir()), noDelays())
	summary, err := d.DownloadAll(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, summary.TotalFound)
	require.Equal(t, 2, summary.Succeeded)
	require.Equal(t, 1, summary.Failed)
	require.Equal(t, DefaultMaxAttempts, srv.hitsFor("01-02-2022.csv"))
	require.Equal(t, 1, srv.hitsFor("01-03-2022.csv"))
}

func TestDownloadOneAlwaysFailing(t *testing.T) {
	for _, k := range []int{1, 2, 3, 5} {
		t.Run(fmt.Sprintf("attempts=%d", k), func(t *testing.T) {
			srv := newReportServer(t, map[string]int{"bad.csv": 1000})
			d := New(srv.Client(), fakeLister{}, storage.New(t.TempDir()), noDelays())

			outcome, err := d.DownloadOne(context.Background(), descriptor(srv, "bad.csv"), k)
			require.NoError(t, err)
			require.False(t, outcome.Succeeded)
			require.Equal(t, k, outcome.Attempts)
			require.Equal(t, k, srv.hitsFor("bad.csv"))

			var downloadErr *DownloadError
			require.True(t, errors.As(outcome.Err, &downloadErr))
			require.Equal(t, http.StatusServiceUnavailable, downloadErr.StatusCode)
			require.Equal(t, k, downloadErr.Attempt)
		})
	}
}

func TestDownloadOneSucceedsOnLastAllowedAttempt(t *testing.T) {
	for _, k := range []int{1, 2, 3} {
		t.Run(fmt.Sprintf("succeeds on %d", k), func(t *testing.T) {
			srv := newReportServer(t, map[string]int{"flaky.csv": k - 1})
			dir := storage.New(t.TempDir())
			d := New(srv.Client(), fakeLister{}, dir, noDelays())

			outcome, err := d.DownloadOne(context.Background(), descriptor(srv, "flaky.csv"), 3)
			require.NoError(t, err)
			require.True(t, outcome.Succeeded)
			require.Equal(t, k, outcome.Attempts)
			require.Equal(t, k, srv.hitsFor("flaky.csv"))
			require.NoError(t, outcome.Err)

			data, err := os.ReadFile(dir.Path("flaky.csv"))
			require.NoError(t, err)
			require.Equal(t, int64(len(data)), outcome.Bytes)
			require.Equal(t, fmt.Sprintf("%x", sha3.Sum256(data)), outcome.SHA3)
		})
	}
}

func TestDownloadOneDefaultsAttempts(t *testing.T) {
	srv := newReportServer(t, map[string]int{"bad.csv": 1000})
	d := New(srv.Client(), fakeLister{}, storage.New(t.TempDir()), noDelays())

	outcome, err := d.DownloadOne(context.Background(), descriptor(srv, "bad.csv"), 0)
	require.NoError(t, err)
	require.Equal(t, DefaultMaxAttempts, outcome.Attempts)
}

func TestDownloadOneWriteFailureIsRetried(t *testing.T) {
	srv := newReportServer(t, nil)
	// the directory is never created, so every write fails
	dir := storage.New(filepath.Join(t.TempDir(), "missing"))
	d := New(srv.Client(), fakeLister{}, dir, noDelays())

	outcome, err := d.DownloadOne(context.Background(), descriptor(srv, "01-01-2022.csv"), 2)
	require.NoError(t, err)
	require.False(t, outcome.Succeeded)
	require.Equal(t, 2, outcome.Attempts)
	require.Equal(t, 2, srv.hitsFor("01-01-2022.csv"))
}

func TestDownloadOneOverwritesExistingFile(t *testing.T) {
	srv := newReportServer(t, nil)
	dir := storage.New(t.TempDir())
	require.NoError(t, os.WriteFile(dir.Path("01-01-2022.csv"), []byte(strings.Repeat("stale\n", 100)), 0644))

	d := New(srv.Client(), fakeLister{}, dir, noDelays())
	outcome, err := d.DownloadOne(context.Background(), descriptor(srv, "01-01-2022.csv"), 1)
	require.NoError(t, err)
	require.True(t, outcome.Succeeded)

	data, err := os.ReadFile(dir.Path("01-01-2022.csv"))
	require.NoError(t, err)
	require.NotContains(t, string(data), "stale")
}

func TestDownloadOneWaitsBetweenAttempts(t *testing.T) {
	srv := newReportServer(t, map[string]int{"flaky.csv": 2})
	opts := noDelays()
	opts.RetryDelay = 20 * time.Millisecond
	d := New(srv.Client(), fakeLister{}, storage.New(t.TempDir()), opts)

	start := time.Now()
	outcome, err := d.DownloadOne(context.Background(), descriptor(srv, "flaky.csv"), 3)
	require.NoError(t, err)
	require.True(t, outcome.Succeeded)
	require.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestDownloadAllInterrupted(t *testing.T) {
	srv := newReportServer(t, nil)
	opts := noDelays()
	opts.FileDelay = time.Hour
	names := []string{"01-01-2022.csv", "01-02-2022.csv"}
	d := New(srv.Client(), fakeLister{names: names, base: srv.URL}, storage.New(t.TempDir()), opts)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := d.DownloadAll(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Equal(t, 1, srv.totalHits())
}

func TestDownloadAllReportsRunID(t *testing.T) {
	srv := newReportServer(t, nil)
	lister := fakeLister{names: []string{"01-01-2022.csv"}, base: srv.URL}
	d := New(srv.Client(), lister, storage.New(t.TempDir()), noDelays())

	summary, err := d.DownloadAll(context.Background())
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, summary.RunID)
}

func TestDigestReader(t *testing.T) {
	r := newDigestReader(strings.NewReader("abc"))
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, "abc", string(data))
	require.Equal(t, "3a985da74fe225b2045c172d6bd390bd855f086e3e9d525b46bfe24511431532", r.Sum())
}
