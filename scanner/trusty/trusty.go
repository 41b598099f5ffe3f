package trusty

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/deepfence/trustier/scanner"
	"github.com/deepfence/trustier/utils"
	"github.com/package-url/packageurl-go"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var (
	ErrInvalidPurl = errors.New("invalid purl")
	ErrTransport   = errors.New("trust api request failed")
	ErrDecode      = errors.New("unable to decode trust api response")
)

const maxResponseSize = 10 << 20

type Client struct {
	apiURL     string
	httpClient *http.Client
	userAgent  string
}

func NewClient(config utils.Config) *Client {
	apiURL := config.APIURL
	if apiURL == "" {
		apiURL = utils.DefaultAPIURL
	}
	timeout := config.Timeout
	if timeout == 0 {
		timeout = utils.DefaultTimeout
	}
	return &Client{
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  "trustier",
	}
}

// QueryURL builds the package lookup for a purl. Only the name and the
// ecosystem are sent; namespace and version are not part of the query.
func (c *Client) QueryURL(purl string) (string, error) {
	p, err := packageurl.FromString(purl)
	if err != nil {
		return "", errors.Wrapf(ErrInvalidPurl, "%s: %v", purl, err)
	}
	params := url.Values{}
	params.Set("package_name", p.Name)
	params.Set("package_type", strings.ToLower(p.Type))

	sep := "?"
	if strings.Contains(c.apiURL, "?") {
		sep = "&"
	}
	return c.apiURL + sep + params.Encode(), nil
}

// Fetch performs one GET for purl. Errors wrap ErrInvalidPurl when no request
// was sent, ErrTransport for network failures and non-2xx statuses, and
// ErrDecode when the body is not a trust report.
func (c *Client) Fetch(ctx context.Context, purl string) (*scanner.TrustResult, error) {
	requestURL, err := c.QueryURL(purl)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, errors.Wrapf(ErrTransport, "%s: %v", purl, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(ErrTransport, "%s: %v", purl, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, errors.Wrapf(ErrTransport, "%s: reading body: %v", purl, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.Wrapf(ErrTransport, "%s: unexpected status %s", purl, resp.Status)
	}

	if bytes.Equal(bytes.TrimSpace(body), []byte("null")) {
		return nil, errors.Wrapf(ErrDecode, "%s: empty trust report", purl)
	}

	var result scanner.TrustResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, errors.Wrapf(ErrDecode, "%s: %v", purl, err)
	}
	return &result, nil
}

// Sleeper pauses between requests. It returns early with ctx.Err() when the
// context is cancelled.
type Sleeper func(ctx context.Context, d time.Duration) error

func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type Failure struct {
	Purl  string `json:"purl"`
	Error string `json:"error"`
}

type Report struct {
	Results  []scanner.TrustResult `json:"results"`
	Failures []Failure             `json:"failures,omitempty"`
	Requests int                   `json:"requests"`
}

type Fetcher struct {
	client   *Client
	delay    time.Duration
	failFast bool
	sleep    Sleeper
	onFetch  func(purl string)
}

func NewFetcher(client *Client, config utils.Config) *Fetcher {
	return &Fetcher{
		client:   client,
		delay:    config.RateLimit(),
		failFast: config.FailFast,
		sleep:    SleepContext,
	}
}

// WithSleeper replaces the pause between requests.
func (f *Fetcher) WithSleeper(sleep Sleeper) *Fetcher {
	f.sleep = sleep
	return f
}

// OnFetch registers a callback invoked once per purl, after it was processed.
func (f *Fetcher) OnFetch(fn func(purl string)) *Fetcher {
	f.onFetch = fn
	return f
}

// Run queries every purl strictly in order, one request at a time, and pauses
// for the configured delay after each request that was sent. Results keep the
// input order with failed purls left out.
func (f *Fetcher) Run(ctx context.Context, purls []string) (*Report, error) {
	report := &Report{
		Results: make([]scanner.TrustResult, 0, len(purls)),
	}

	for _, p := range purls {
		log.Debugf("Fetching trust information for %s", p)
		result, err := f.client.Fetch(ctx, p)
		f.notify(p)

		sent := !errors.Is(err, ErrInvalidPurl)
		if sent {
			report.Requests++
		}

		if err == nil {
			purl := p
			result.Purl = &purl
			report.Results = append(report.Results, *result)
		} else {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return report, ctxErr
			}
			if f.failFast && errors.Is(err, ErrTransport) {
				return report, err
			}
			logFailure(err)
			report.Failures = append(report.Failures, Failure{Purl: p, Error: err.Error()})
		}

		if !sent {
			continue
		}
		if err := f.sleep(ctx, f.delay); err != nil {
			return report, err
		}
	}

	return report, nil
}

func (f *Fetcher) notify(purl string) {
	if f.onFetch != nil {
		f.onFetch(purl)
	}
}

func logFailure(err error) {
	switch {
	case errors.Is(err, ErrDecode):
		log.Warnf("Failed to parse JSON: %v", err)
	case errors.Is(err, ErrInvalidPurl):
		log.Warnf("Error parsing purl: %v", err)
	default:
		log.Errorf("%v", err)
	}
}

func (r *Report) String() string {
	return fmt.Sprintf("requests=%d results=%d failures=%d", r.Requests, len(r.Results), len(r.Failures))
}
