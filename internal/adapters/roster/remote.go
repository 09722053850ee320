package roster

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/okian/isp/internal/domain/record"
	"github.com/okian/isp/pkg/logger"
	"github.com/rotisserie/eris"
)

const (
	defaultFetchTimeout = 15 * time.Second
	maxRemoteBytes      = 32 << 20
)

// FetcherOption applies a configuration option to the Fetcher.
type FetcherOption func(*Fetcher)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(h *http.Client) FetcherOption {
	return func(f *Fetcher) {
		if h != nil {
			f.client = h
		}
	}
}

// WithFetchTimeout bounds each remote fetch. It applies per request and
// never changes the HTTP client.
func WithFetchTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithFetcherLogger sets the logger.
func WithFetcherLogger(l logger.Logger) FetcherOption {
	return func(f *Fetcher) {
		if l != nil {
			f.log = l
		}
	}
}

// Fetcher loads a roster exported by a remote spreadsheet script, keyed by
// cohort year.
type Fetcher struct {
	sources map[int]string
	client  *http.Client
	timeout time.Duration
	log     logger.Logger
}

// NewFetcher creates a fetcher for sources, a map of year to export URL.
func NewFetcher(sources map[string]string, opts ...FetcherOption) (*Fetcher, error) {
	f := &Fetcher{
		sources: make(map[int]string, len(sources)),
		client:  &http.Client{},
		timeout: defaultFetchTimeout,
		log:     logger.Get().Named("roster"),
	}
	for k, v := range sources {
		year, err := strconv.Atoi(k)
		if err != nil {
			return nil, eris.Wrapf(err, "roster: source year %q", k)
		}
		if _, err := url.Parse(v); err != nil {
			return nil, eris.Wrapf(err, "roster: source url for %d", year)
		}
		f.sources[year] = v
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Years returns the configured years in ascending order.
func (f *Fetcher) Years() []int {
	out := make([]int, 0, len(f.sources))
	for y := range f.sources {
		out = append(out, y)
	}
	sort.Ints(out)
	return out
}

// Fetch downloads the rows for year. The export may be a bare JSON array of
// rows or an object with a data array.
func (f *Fetcher) Fetch(ctx context.Context, year int) ([]record.Raw, error) {
	src, ok := f.sources[year]
	if !ok {
		return nil, eris.Wrapf(ErrUnknownYear, "roster: %d", year)
	}
	u, err := url.Parse(src)
	if err != nil {
		return nil, eris.Wrap(err, "roster: parse source url")
	}
	q := u.Query()
	q.Set("year", strconv.Itoa(year))
	u.RawQuery = q.Encode()

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "roster: build request")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "roster: fetch")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRemoteBytes))
	if err != nil {
		return nil, eris.Wrap(err, "roster: read body")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("roster: source returned %d", resp.StatusCode)
	}
	rows, err := DecodeRows(body)
	if err != nil {
		return nil, err
	}
	f.log.Info(ctx, "remote roster fetched",
		logger.Int("year", year),
		logger.Int("rows", len(rows)),
		logger.Duration("took", time.Since(start)))
	return rows, nil
}

// DecodeRows accepts `[rows]` or `{"data": [rows]}`.
func DecodeRows(body []byte) ([]record.Raw, error) {
	body = bytes.TrimSpace(body)
	var rows []record.Raw
	if len(body) > 0 && body[0] == '{' {
		var wrapped struct {
			Data []record.Raw `json:"data"`
		}
		if err := json.Unmarshal(body, &wrapped); err != nil {
			return nil, eris.Wrap(err, "roster: decode rows")
		}
		rows = wrapped.Data
	} else if err := json.Unmarshal(body, &rows); err != nil {
		return nil, eris.Wrap(err, "roster: decode rows")
	}
	if len(rows) == 0 {
		return nil, eris.Wrap(ErrEmptyRoster, "roster")
	}
	return rows, nil
}
