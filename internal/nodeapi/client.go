package nodeapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/muurk/domocan/internal/logging"
)

const (
	// DefaultPort is the default controller web server port
	DefaultPort = 8080

	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 10 * time.Second

	// DefaultMaxRetries is the default number of retries for List.
	// Mutations are never retried.
	DefaultMaxRetries = 0

	// DefaultRetryDelay is the default delay between retry attempts
	DefaultRetryDelay = 500 * time.Millisecond

	// DefaultMaxRetryDelay is the maximum delay for exponential backoff
	DefaultMaxRetryDelay = 5 * time.Second

	// CommandPath is the controller endpoint all commands are sent to
	CommandPath = "/json.htm"
)

// Client talks to the json.htm command endpoint of a controller
type Client struct {
	// BaseURL is the controller base URL (e.g., "http://192.168.1.10:8080")
	BaseURL string

	// HTTPClient is the underlying HTTP client
	HTTPClient *http.Client

	// MaxRetries is the number of extra attempts List makes on retryable errors
	MaxRetries int

	// RetryDelay is the initial delay between retry attempts
	RetryDelay time.Duration

	// MaxRetryDelay caps exponential backoff
	MaxRetryDelay time.Duration

	// UseExponentialBackoff doubles RetryDelay after each attempt
	UseExponentialBackoff bool

	logger *zap.Logger
}

// NewClient creates a client for a controller at host:port
func NewClient(host string, port int) *Client {
	return NewClientWithURL(fmt.Sprintf("http://%s:%d", host, port))
}

// NewClientWithURL creates a client with a full base URL
// baseURL: e.g. "http://192.168.1.10:8080" (a trailing slash is ignored)
func NewClientWithURL(baseURL string) *Client {
	return &Client{
		BaseURL:               strings.TrimRight(baseURL, "/"),
		HTTPClient:            &http.Client{Timeout: DefaultTimeout},
		MaxRetries:            DefaultMaxRetries,
		RetryDelay:            DefaultRetryDelay,
		MaxRetryDelay:         DefaultMaxRetryDelay,
		UseExponentialBackoff: true,
		logger:                zap.NewNop(),
	}
}

// SetTimeout sets the HTTP request timeout
func (c *Client) SetTimeout(timeout time.Duration) {
	c.HTTPClient.Timeout = timeout
}

// SetRetry configures retry behavior for List
func (c *Client) SetRetry(maxRetries int, retryDelay time.Duration) {
	c.MaxRetries = maxRetries
	c.RetryDelay = retryDelay
}

// SetLogger sets the logger used for per-command debug output
func (c *Client) SetLogger(l *zap.Logger) {
	c.logger = logging.OrNop(l)
}

// Ping checks that the controller answers commands at all
func (c *Client) Ping() error {
	resp, err := c.command(CmdGetVersion, url.Values{})
	if err != nil {
		return err
	}
	if !resp.OK() {
		return NewHTTPError(CmdGetVersion, http.StatusOK, "controller answered with status "+resp.Status)
	}
	return nil
}

// List returns the nodes registered under parent
func (c *Client) List(parent int) ([]Node, error) {
	params := url.Values{}
	params.Set("hid", strconv.Itoa(parent))

	var lastErr error
	currentDelay := c.RetryDelay

	for attempt := 0; attempt <= c.MaxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(currentDelay)

			if c.UseExponentialBackoff {
				currentDelay *= 2
				if currentDelay > c.MaxRetryDelay {
					currentDelay = c.MaxRetryDelay
				}
			}
		}

		resp, err := c.command(CmdGetNodes, params)
		if err == nil {
			if !resp.OK() {
				return nil, &APIError{
					Kind:    KindTransport,
					Command: CmdGetNodes,
					Message: fmt.Sprintf("controller rejected hardware %d", parent),
				}
			}
			nodes := make([]Node, 0, len(resp.Result))
			for _, rec := range resp.Result {
				nodes = append(nodes, rec.Node())
			}
			return nodes, nil
		}

		lastErr = err

		if !IsRetryable(err) {
			return nil, err
		}
	}

	return nil, lastErr
}

// Add registers a new node under parent
func (c *Client) Add(parent int, name string, devType int, busID string) error {
	if name == "" {
		return NewValidationError(CmdAddNode, "name is required")
	}
	if busID == "" {
		return NewValidationError(CmdAddNode, "DomoCAN ID is required")
	}

	params := url.Values{}
	params.Set("hid", strconv.Itoa(parent))
	params.Set("name", name)
	params.Set("devtype", strconv.Itoa(devType))
	params.Set("dcanid", busID)

	resp, err := c.command(CmdAddNode, params)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return NewValidationError(CmdAddNode, "controller rejected the node")
	}
	return nil
}

// Update rewrites node id under parent
func (c *Client) Update(parent int, id string, name string, devType int, busID string) error {
	if name == "" {
		return NewValidationError(CmdUpdateNode, "name is required")
	}
	if busID == "" {
		return NewValidationError(CmdUpdateNode, "DomoCAN ID is required")
	}

	params := url.Values{}
	params.Set("hid", strconv.Itoa(parent))
	params.Set("idx", id)
	params.Set("name", name)
	params.Set("devtype", strconv.Itoa(devType))
	params.Set("dcanid", busID)

	resp, err := c.command(CmdUpdateNode, params)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return NewNotFoundError(CmdUpdateNode, id)
	}
	return nil
}

// Delete removes node id under parent
func (c *Client) Delete(parent int, id string) error {
	params := url.Values{}
	params.Set("hid", strconv.Itoa(parent))
	params.Set("idx", id)

	resp, err := c.command(CmdRemoveNode, params)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return NewNotFoundError(CmdRemoveNode, id)
	}
	return nil
}

// ClearAll removes every node under parent
func (c *Client) ClearAll(parent int) error {
	params := url.Values{}
	params.Set("hid", strconv.Itoa(parent))

	resp, err := c.command(CmdClearNodes, params)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return &APIError{
			Kind:    KindTransport,
			Command: CmdClearNodes,
			Message: fmt.Sprintf("controller rejected clear for hardware %d", parent),
		}
	}
	return nil
}

// CommandURL builds the request URL for a command. Parameter values are
// query-escaped.
func (c *Client) CommandURL(command string, params url.Values) string {
	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	q.Set("type", "command")
	q.Set("param", command)
	return c.BaseURL + CommandPath + "?" + q.Encode()
}

// command performs one round-trip and decodes the response envelope
func (c *Client) command(command string, params url.Values) (*Response, error) {
	requestID := uuid.NewString()
	start := time.Now()
	status := "failed"
	defer func() {
		fields := logging.CommandFields(command, flatten(params), status, time.Since(start))
		c.log().Debug("Controller command", append(fields, zap.String("request_id", requestID))...)
	}()

	req, err := http.NewRequest(http.MethodGet, c.CommandURL(command, params), nil)
	if err != nil {
		return nil, NewTransportError(command, "failed to create request", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, NewTransportError(command, "request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		status = strconv.Itoa(resp.StatusCode)
		return nil, NewHTTPError(command, resp.StatusCode,
			fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewTransportError(command, "failed to read response body", err)
	}

	var decoded Response
	if err := json.Unmarshal(body, &decoded); err != nil {
		status = "unparseable"
		return nil, NewParseError(command, "failed to parse JSON response", err)
	}

	status = decoded.Status
	return &decoded, nil
}

func (c *Client) log() *zap.Logger {
	if c.logger == nil {
		return zap.NewNop()
	}
	return c.logger
}

func flatten(params url.Values) map[string]string {
	out := make(map[string]string, len(params))
	for k := range params {
		out[k] = params.Get(k)
	}
	return out
}
