// Package fetch performs the HTTP retrieval side of the update
// pipeline: GET the artifact, attach configured headers and a tool
// User-Agent, respect proxy environment variables and a configured
// timeout, and stream the body to one or more sinks while reporting
// progress.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	commonshttp "github.com/flanksource/commons/http"
	"github.com/flanksource/commons/logger"

	selferrors "github.com/flanksource/selfupdate/pkg/errors"
)

// ProgressFunc is invoked synchronously on the fetching goroutine for
// every chunk read from the response body, with the size of that chunk
// and the total content length (-1 if the server didn't send one).
type ProgressFunc func(chunkSize int, contentLength int64)

// Client performs artifact downloads with a fixed set of headers, a
// tool User-Agent, and an optional timeout applied to both connect and
// read phases.
type Client struct {
	http      *http.Client
	headers   map[string]string
	userAgent string
}

// NewClient builds a fetch Client. toolName/toolVersion compose the
// User-Agent as "<tool>/<version>". Proxy configuration is read from
// HTTP_PROXY/HTTPS_PROXY at request time via commons/http's transport,
// never cached across requests. Header and body traffic are logged at
// trace level when trace logging is enabled.
func NewClient(toolName, toolVersion string, headers map[string]string, timeout time.Duration) *Client {
	roundTripper := commonshttp.NewClient().Timeout(timeout)
	if logger.IsTraceEnabled() {
		roundTripper = roundTripper.WithHttpLogging(logger.Trace1, logger.Trace2)
	}
	return &Client{
		http: &http.Client{
			Transport: roundTripper,
			Timeout:   timeout,
		},
		headers:   headers,
		userAgent: fmt.Sprintf("%s/%s", toolName, toolVersion),
	}
}

// Fetch issues the GET and streams the response body into writer,
// invoking progress for each chunk. It returns once the entire body has
// been copied (or an error occurs) — verification of what was streamed
// is the caller's responsibility, not this package's.
func (c *Client) Fetch(ctx context.Context, url string, progress ProgressFunc, writer io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return selferrors.Wrap(selferrors.Network, "failed to build request", err)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("User-Agent", c.userAgent)

	logger.V(3).Infof("fetching artifact %s", url)
	resp, err := c.http.Do(req)
	if err != nil {
		return selferrors.Wrap(selferrors.Network, fmt.Sprintf("failed to fetch %s", url), err)
	}
	defer func() { _ = resp.Body.Close() }()

	logger.V(4).Infof("artifact response %s: status=%d content-length=%d", url, resp.StatusCode, resp.ContentLength)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return selferrors.WrapNetwork(fmt.Sprintf("unexpected status fetching %s", url), resp.StatusCode, nil)
	}

	var reader io.Reader = resp.Body
	if progress != nil {
		reader = &progressReader{r: resp.Body, total: resp.ContentLength, cb: progress}
	}

	if _, err := io.Copy(writer, reader); err != nil {
		return selferrors.Wrap(selferrors.Io, "failed while streaming artifact body", err)
	}
	return nil
}

// GetJSON performs a GET and returns the status code and full body,
// for the small manifest responses the Release Manifest Parser decodes
// — unlike Fetch, this is not meant for large artifact bodies.
func (c *Client) GetJSON(ctx context.Context, url string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, nil, selferrors.Wrap(selferrors.Network, "failed to build request", err)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("User-Agent", c.userAgent)

	logger.V(3).Infof("checking endpoint %s", url)
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, selferrors.Wrap(selferrors.Network, fmt.Sprintf("failed to fetch %s", url), err)
	}
	defer func() { _ = resp.Body.Close() }()

	logger.V(4).Infof("endpoint response %s: status=%d", url, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, selferrors.Wrap(selferrors.Network, "failed to read response body", err)
	}
	return resp.StatusCode, body, nil
}

// progressReader wraps an io.Reader, invoking cb on every Read with the
// chunk size actually read and the (possibly unknown) total length.
type progressReader struct {
	r     io.Reader
	total int64
	cb    ProgressFunc
}

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.r.Read(buf)
	if n > 0 && p.cb != nil {
		p.cb(n, p.total)
	}
	return n, err
}
