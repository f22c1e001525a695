package http

import (
	"context"
	"fmt"
	neturl "net/url"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RequestIDHeader carries the call ID on every outbound request
const RequestIDHeader = "X-Request-ID"

// HTTPClient is implemented by Client and MultipartClient.
type HTTPClient interface {
	Execute(ctx context.Context, req Requester) *Call
	Cancel()
}

// Reachability reports whether the network is currently usable.
type Reachability interface {
	IsReachable() bool
}

// MetricsRecorder receives the latency and outcome of every completed call.
type MetricsRecorder interface {
	Record(name string, duration time.Duration, err error)
}

// ProgressHandler receives upload progress as a fraction in (0, 1]
type ProgressHandler func(req Requester, fraction float64)

type sendFunc func(ctx context.Context, call *Call, requestURL string) *RawResponse

type Client struct {
	hostURL         string
	session         *resty.Client
	progressHandler ProgressHandler
	reachability    Reachability
	factory         ResponseFactory
	limiter         *rate.Limiter
	metrics         MetricsRecorder
	logger          *zap.Logger
	defaultHeaders  map[string]string

	mu       sync.Mutex
	inFlight map[string]*Call
}

type ClientOption func(*Client)

func NewClient(hostURL string, opts ...ClientOption) *Client {
	c := &Client{
		hostURL:        hostURL,
		factory:        NewJSONResponse,
		limiter:        rate.NewLimiter(rate.Inf, 0),
		logger:         zap.NewNop(),
		defaultHeaders: make(map[string]string),
		inFlight:       make(map[string]*Call),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.session == nil {
		c.session = resty.New()
	}

	return c
}

// WithSession injects the resty session used as transport
func WithSession(session *resty.Client) ClientOption {
	return func(c *Client) {
		c.session = session
	}
}

// WithProgressHandler sets the upload progress callback used by MultipartClient
func WithProgressHandler(h ProgressHandler) ClientOption {
	return func(c *Client) {
		c.progressHandler = h
	}
}

// WithReachability gates every dispatch on r. Without it the network is assumed reachable.
func WithReachability(r Reachability) ClientOption {
	return func(c *Client) {
		c.reachability = r
	}
}

func WithResponseFactory(f ResponseFactory) ClientOption {
	return func(c *Client) {
		if f != nil {
			c.factory = f
		}
	}
}

// WithRateLimit caps dispatches per second; rps <= 0 means unlimited
func WithRateLimit(rps float64) ClientOption {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func WithMetrics(m MetricsRecorder) ClientOption {
	return func(c *Client) {
		c.metrics = m
	}
}

func WithLogger(l *zap.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

func WithDefaultHeader(key, value string) ClientOption {
	return func(c *Client) {
		c.defaultHeaders[key] = value
	}
}

// WithDefaultHeaders sets multiple default headers for all requests
func WithDefaultHeaders(headers map[string]string) ClientOption {
	return func(c *Client) {
		for k, v := range headers {
			c.defaultHeaders[k] = v
		}
	}
}

func WithUserAgent(ua string) ClientOption {
	return WithDefaultHeader("User-Agent", ua)
}

func (c *Client) HostURL() string {
	return c.hostURL
}

// InFlight returns the number of calls that have been dispatched but not settled
func (c *Client) InFlight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.inFlight)
}

// Execute dispatches an ordinary request. Multipart requests are rejected with
// ErrRequestKindMismatch.
func (c *Client) Execute(ctx context.Context, req Requester) *Call {
	return c.dispatch(ctx, req, KindOrdinary, c.send)
}

// Cancel cancels every call this client still has in flight.
func (c *Client) Cancel() {
	c.mu.Lock()
	calls := make([]*Call, 0, len(c.inFlight))
	for _, call := range c.inFlight {
		calls = append(calls, call)
	}
	c.mu.Unlock()

	for _, call := range calls {
		call.Cancel()
	}
}

func (c *Client) dispatch(ctx context.Context, req Requester, kind Kind, send sendFunc) *Call {
	if req == nil {
		return rejected(nil, fmt.Errorf("%w: nil request", ErrRequestKindMismatch))
	}
	if req.Kind() != kind {
		return rejected(req, fmt.Errorf("%w: %s client received %s request", ErrRequestKindMismatch, kind, req.Kind()))
	}

	log := c.logger.With(
		zap.String("method", req.Method().String()),
		zap.String("path", req.RelativeURL()),
	)

	if c.reachability != nil && !c.reachability.IsReachable() {
		log.Warn("network unreachable, request not sent")
		return rejected(req, &ClientError{Message: NoInternetConnection})
	}

	requestURL, err := c.buildURL(req.RelativeURL())
	if err != nil {
		log.Error("failed to build request URL", zap.Error(err))
		return rejected(req, err)
	}

	timeout := req.Timeout()
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	callCtx, cancel := context.WithCancel(ctx)
	call := newCall(req, cancel)
	log = log.With(zap.String("call_id", call.ID()))
	c.track(call)

	go func() {
		defer cancel()
		defer c.untrack(call)

		if err := c.limiter.Wait(callCtx); err != nil {
			call.fail(fmt.Errorf("rate limit wait: %w", err))
			return
		}

		// the timeout covers the exchange, not time spent throttled
		sendCtx, cancelSend := context.WithTimeout(callCtx, timeout)
		defer cancelSend()

		log.Debug("sending request", zap.String("url", requestURL))
		start := time.Now()
		raw := send(sendCtx, call, requestURL)
		if raw.Duration == 0 {
			raw.Duration = time.Since(start)
		}
		c.complete(call, raw, log)
	}()

	return call
}

func (c *Client) send(ctx context.Context, call *Call, requestURL string) *RawResponse {
	req := call.Request()
	r := c.newRestyRequest(ctx, call)

	if codable, ok := req.(CodableRequester); ok && codable.Body() != nil {
		r.SetHeader("Content-Type", "application/json").SetBody(codable.Body())
	} else if params := req.Parameters(); len(params) > 0 {
		switch {
		case req.Encoding() == EncodingURL && encodesInQuery(req.Method()):
			r.SetQueryParamsFromValues(encodeParameters(params))
		case req.Encoding() == EncodingURL:
			r.SetFormDataFromValues(encodeParameters(params))
		case req.Method() == MethodGet:
			// resty drops GET payloads, so JSON parameters travel in the query string
			r.SetQueryParamsFromValues(encodeParameters(params))
		default:
			r.SetHeader("Content-Type", "application/json").SetBody(params)
		}
	}

	resp, err := r.Execute(req.Method().String(), requestURL)
	return newRawResponse(req, requestURL, resp, err)
}

func (c *Client) newRestyRequest(ctx context.Context, call *Call) *resty.Request {
	r := c.session.R().
		SetContext(ctx).
		SetHeader(RequestIDHeader, call.ID()).
		SetHeaders(c.defaultHeaders).
		SetHeaders(call.Request().Headers())
	return r
}

func (c *Client) complete(call *Call, raw *RawResponse, log *zap.Logger) {
	resp := c.factory(raw)

	var err error
	switch {
	case resp == nil:
		err = fmt.Errorf("response factory returned nil for %s", raw.URL)
	case !resp.Success():
		err = resp.Err()
		if err == nil {
			err = raw.Err
		}
		if err == nil {
			err = &StatusError{StatusCode: raw.StatusCode, Status: raw.Status}
		}
	}

	if c.metrics != nil {
		req := call.Request()
		c.metrics.Record(req.Method().String()+" "+req.RelativeURL(), raw.Duration, err)
	}

	if err != nil {
		log.Debug("request failed",
			zap.Int("status", raw.StatusCode),
			zap.Duration("duration", raw.Duration),
			zap.Error(err))
	} else {
		log.Debug("request completed",
			zap.Int("status", raw.StatusCode),
			zap.Duration("duration", raw.Duration))
	}
	call.settle(resp, err)
}

func (c *Client) track(call *Call) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inFlight[call.ID()] = call
}

func (c *Client) untrack(call *Call) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inFlight, call.ID())
}

func (c *Client) buildURL(relativeURL string) (string, error) {
	full := c.hostURL + relativeURL
	if err := ValidateURL(full); err != nil {
		return "", fmt.Errorf("%w %q: %v", ErrInvalidURL, full, err)
	}
	return full, nil
}

// rejected returns a call that has already failed without reaching the transport
func rejected(req Requester, err error) *Call {
	call := newCall(req, nil)
	call.fail(err)
	return call
}

// ValidateURL checks that a URL is well-formed and uses an allowed scheme
func ValidateURL(rawURL string) error {
	u, err := neturl.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %v", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported URL scheme: %s (only http and https are allowed)", u.Scheme)
	}

	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}

	return nil
}
