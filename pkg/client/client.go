// Package client talks to the remote melody generation service: it submits
// encoded melodies, checks job status and downloads finished MIDI files.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/james-see/rollgen/pkg/melody"
	"github.com/tidwall/gjson"
)

const (
	generatePath = "/generate_melody_new"
	statusPath   = "/check_status/"
	downloadPath = "/download_file/"

	// cap on error bodies kept in StatusError
	maxErrorBody = 512
)

// Request holds everything one generation needs
type Request struct {
	Sequence     []melody.Note `json:"sequence"`
	Temperature  float64       `json:"temperature"`
	OutputLength int           `json:"output_length"` // bars
}

// Validate checks parameter ranges before anything is sent
func (r Request) Validate() error {
	if r.Temperature < 0 || r.Temperature > 1 {
		return fmt.Errorf("%w: temperature %.2f outside [0,1]", ErrInvalidRequest, r.Temperature)
	}
	if r.OutputLength <= 0 {
		return fmt.Errorf("%w: output length must be positive, got %d", ErrInvalidRequest, r.OutputLength)
	}
	return nil
}

// Submission is the service's answer to an accepted request
type Submission struct {
	Message string
	SongID  string
}

// Client is a generation service client
type Client struct {
	baseURL string
	http    *http.Client
	framing Framing
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithFraming selects the request body format
func WithFraming(f Framing) Option {
	return func(c *Client) { c.framing = f }
}

// New creates a client for the service at baseURL
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		framing: LegacyFraming{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the service root
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Submit sends a melody for extension and returns the job's song id
func (c *Client) Submit(ctx context.Context, req Request) (*Submission, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	body, err := c.framing.Encode(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+generatePath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", c.framing.ContentType())

	data, err := c.do(httpReq, "submit")
	if err != nil {
		return nil, err
	}
	return ParseSubmission(data)
}

// ParseSubmission extracts the human message and song id from a submit
// response. An explicit song_id field wins; otherwise the id follows the
// last ';' of message.
func ParseSubmission(data []byte) (*Submission, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: body is not JSON", ErrMalformedResponse)
	}
	result := gjson.ParseBytes(data)
	message := result.Get("message")
	if !message.Exists() {
		return nil, fmt.Errorf("%w: missing message", ErrMalformedResponse)
	}

	sub := &Submission{Message: message.String()}
	if id := result.Get("song_id"); id.Exists() {
		sub.SongID = strings.TrimSpace(id.String())
	} else if i := strings.LastIndex(sub.Message, ";"); i >= 0 {
		sub.SongID = strings.TrimSpace(sub.Message[i+1:])
		sub.Message = sub.Message[:i]
	}
	if sub.SongID == "" {
		return nil, fmt.Errorf("%w: no song id in %q", ErrMalformedResponse, message.String())
	}
	return sub, nil
}

// Status returns the job's status text, e.g. "complete" or "failed"
func (c *Client) Status(ctx context.Context, songID string) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+statusPath+url.PathEscape(songID), nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	data, err := c.do(httpReq, "check status")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// DownloadURL is the direct link to a finished melody
func (c *Client) DownloadURL(songID string) string {
	return c.baseURL + downloadPath + url.PathEscape(songID)
}

// Download streams a finished melody into w
func (c *Client) Download(ctx context.Context, songID string, w io.Writer) (int64, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.DownloadURL(songID), nil)
	if err != nil {
		return 0, fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return 0, &TransportError{Op: "download", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, statusError("download", resp)
	}
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("failed to read download: %w", err)
	}
	return n, nil
}

func (c *Client) do(req *http.Request, op string) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(op, resp)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	return data, nil
}

func statusError(op string, resp *http.Response) *StatusError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &StatusError{
		Op:         op,
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(body)),
	}
}
