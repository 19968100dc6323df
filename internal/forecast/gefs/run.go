package gefs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"Zephyr/internal/domain/models"
	domrepo "Zephyr/internal/domain/repository"
	xhttp "Zephyr/pkg/http"
	applogger "Zephyr/pkg/logger"
)

const (
	// DefaultBaseURL is the NOMADS GDS root for GEFS.
	DefaultBaseURL = "https://nomads.ncep.noaa.gov/dods/gefs"

	datasetMarker = "Dataset {"
	userAgent     = "zephyr-gefs-probability/1.0"
)

// cycleHours in descending recency order; discovery prefers the freshest run.
var cycleHours = []int{18, 12, 6, 0}

// Client fetches and parses GEFS ensemble data over the OPeNDAP text
// protocol. All calls are sequential and blocking; only run discovery
// retries, by advancing to the next candidate.
type Client struct {
	baseURL string
	http    *xhttp.Client
	probe   *xhttp.Client
	l       *applogger.Logger
	metrics domrepo.Metrics
	now     func() time.Time
}

// ClientOption configures Client.
type ClientOption func(*Client)

// NewClient creates a GEFS client. Field fetches get a longer timeout than
// the lightweight .dds probes used during run discovery.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		http:    xhttp.NewClient(xhttp.WithTimeout(25 * time.Second)),
		probe:   xhttp.NewClient(xhttp.WithTimeout(12 * time.Second)),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithBaseURL overrides the NOMADS root (used by tests and mirrors).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithFetchTimeout overrides the timeout for field fetches. Probes keep
// their shorter timeout.
func WithFetchTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.http = xhttp.NewClient(xhttp.WithTimeout(d))
		}
	}
}

// WithLogger injects a structured logger.
func WithLogger(l *applogger.Logger) ClientOption {
	return func(c *Client) { c.l = l }
}

// WithMetrics injects a metrics recorder.
func WithMetrics(m domrepo.Metrics) ClientOption {
	return func(c *Client) { c.metrics = m }
}

// WithClock overrides the wall clock (tests).
func WithClock(now func() time.Time) ClientOption {
	return func(c *Client) { c.now = now }
}

// FindLatestRun scans candidate runs from most to least recent: day
// offsets 0..lookbackDays, then cycles 18/12/6/0 within each day. The
// first candidate whose .dds starts with the dataset marker wins;
// transport failures just move on to the next candidate.
func (c *Client) FindLatestRun(ctx context.Context, lookbackDays int) (*models.ForecastRun, error) {
	if lookbackDays < 0 {
		lookbackDays = 0
	}
	nowUTC := c.now().UTC()
	for dayOffset := 0; dayOffset <= lookbackDays; dayOffset++ {
		runDay := nowUTC.AddDate(0, 0, -dayOffset)
		for _, cycle := range cycleHours {
			base := fmt.Sprintf("%s/gefs%s/gefs_pgrb2ap5_all_%02dz", c.baseURL, runDay.Format("20060102"), cycle)
			dds, err := c.getText(ctx, c.probe, base+".dds")
			if err != nil {
				if c.l != nil {
					c.l.Debug("gefs run probe failed",
						applogger.String("dataset_base", base),
						applogger.Error(err),
					)
				}
				continue
			}
			if strings.HasPrefix(strings.TrimLeft(dds, " \t\r\n"), datasetMarker) {
				run := &models.ForecastRun{
					RunDate:     time.Date(runDay.Year(), runDay.Month(), runDay.Day(), 0, 0, 0, 0, time.UTC),
					CycleHour:   cycle,
					DatasetBase: base,
				}
				if c.l != nil {
					c.l.Info("gefs run found",
						applogger.String("run_date", run.RunDate.Format("2006-01-02")),
						applogger.Int("cycle_hour", cycle),
					)
				}
				return run, nil
			}
		}
	}
	return nil, ErrNoDatasetFound
}

func (c *Client) getText(ctx context.Context, client *xhttp.Client, url string) (string, error) {
	start := time.Now()
	var body []byte
	err := client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodGet,
		URL:     url,
		Headers: map[string]string{"User-Agent": userAgent},
	}, &body)
	if c.metrics != nil {
		c.metrics.RecordLatency("gefs_fetch", time.Since(start).Seconds())
	}
	if err != nil {
		return "", fmt.Errorf("gefs fetch %s: %w", url, err)
	}
	return string(body), nil
}
