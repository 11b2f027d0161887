package listing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/google/uuid"

	"github.com/deploymenttheory/go-covid-reports/internal/logger"
	"github.com/deploymenttheory/go-covid-reports/internal/types"
)

// ReportExtension is the suffix of the files kept from a listing
const ReportExtension = ".csv"

// ListingError reports a failed listing call
type ListingError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *ListingError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("listing %s failed with status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("listing %s failed: %v", e.URL, e.Err)
}

func (e *ListingError) Unwrap() error {
	return e.Err
}

// Options configures a Lister
type Options struct {
	URL       string
	UserAgent string
	Timeout   time.Duration
	Transport http.RoundTripper
}

// Lister enumerates the report files published at a GitHub contents URL
type Lister struct {
	opts Options
}

// New creates a new Lister
func New(opts Options) *Lister {
	return &Lister{opts: opts}
}

// entry is the subset of a GitHub contents API item we rely on
type entry struct {
	Name        string `json:"name"`
	DownloadURL string `json:"download_url"`
}

// List issues a single request to the listing endpoint and returns the
// CSV entries in listing order. Failures are not retried.
func (l *Lister) List(ctx context.Context) (types.Listing, error) {
	if err := ctx.Err(); err != nil {
		return types.Listing{}, err
	}

	c := l.newCollector(ctx)

	var (
		body       []byte
		statusCode int
	)

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "application/vnd.github+json")
		logger.Infof("Fetching repository contents from %s", r.URL.String())
	})

	c.OnResponse(func(r *colly.Response) {
		statusCode = r.StatusCode
		body = r.Body
		logger.Debugf("Got listing response: status=%d, length=%d", r.StatusCode, len(r.Body))
	})

	c.OnError(func(r *colly.Response, err error) {
		statusCode = r.StatusCode
		logger.Warningf("Error on %s: %v", l.opts.URL, err)
	})

	err := c.Visit(l.opts.URL)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return types.Listing{}, ctxErr
	}
	if err != nil {
		return types.Listing{}, &ListingError{URL: l.opts.URL, StatusCode: statusCode, Err: err}
	}

	var entries []entry
	if err := json.Unmarshal(body, &entries); err != nil {
		return types.Listing{}, &ListingError{
			URL:        l.opts.URL,
			StatusCode: statusCode,
			Err:        fmt.Errorf("failed to decode listing: %w", err),
		}
	}

	listing := types.Listing{RunID: uuid.New()}
	for _, e := range entries {
		if !strings.HasSuffix(e.Name, ReportExtension) {
			continue
		}
		listing.Files = append(listing.Files, types.Descriptor{
			Name:        e.Name,
			DownloadURL: e.DownloadURL,
			RunID:       listing.RunID,
		})
	}

	logger.Infof("Found %d CSV files in repository", len(listing.Files))
	return listing, nil
}

// newCollector builds a synchronous collector whose requests are bound to ctx
func (l *Lister) newCollector(ctx context.Context) *colly.Collector {
	options := []colly.CollectorOption{
		colly.StdlibContext(ctx),
		colly.AllowURLRevisit(),
		colly.MaxBodySize(0),
	}
	if l.opts.UserAgent != "" {
		options = append(options, colly.UserAgent(l.opts.UserAgent))
	}

	c := colly.NewCollector(options...)
	if l.opts.Transport != nil {
		c.WithTransport(l.opts.Transport)
	}
	if l.opts.Timeout > 0 {
		c.SetRequestTimeout(l.opts.Timeout)
	}
	return c
}
