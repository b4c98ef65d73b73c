// Package registry talks to the EP register web service: it obtains OAuth
// access tokens and fetches the bibliographic record for one identifier.
package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	ET "github.com/IBM/fp-go/v2/either"
	F "github.com/IBM/fp-go/v2/function"
	IOE "github.com/IBM/fp-go/v2/ioeither"
	Http "github.com/IBM/fp-go/v2/ioeither/http"
	"github.com/IBM/fp-go/v2/retry"
	json "github.com/goccy/go-json"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Qubut/IP-Claim/packages/ep_register/internal/config"
	"github.com/Qubut/IP-Claim/packages/ep_register/internal/normalize"
)

// tokenMargin is subtracted from the advertised token lifetime when the
// lifetime is longer than the margin.
const tokenMargin = 30 * time.Second

// defaultTokenLifetime applies when the token response carries no expires_in.
const defaultTokenLifetime = 20 * time.Minute

var (
	ErrUnauthorized = errors.New("register rejected credentials")
	ErrStatus       = errors.New("unexpected register status")
)

// StatusError carries the HTTP status of a failed register call.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %d from %s", ErrStatus, e.Code, e.URL)
}

func (e *StatusError) Unwrap() error {
	if e.Code == http.StatusUnauthorized || e.Code == http.StatusForbidden {
		return ErrUnauthorized
	}
	return ErrStatus
}

// Retryable reports whether repeating the request may succeed.
func (e *StatusError) Retryable() bool {
	return e.Code == http.StatusTooManyRequests ||
		e.Code == http.StatusUnauthorized ||
		e.Code >= http.StatusInternalServerError
}

type Client struct {
	Cfg             config.Register
	Logger          *zap.SugaredLogger
	Tracer          trace.Tracer
	Meter           metric.Meter
	client          Http.Client
	now             func() time.Time
	mu              sync.Mutex
	token           string
	tokenExpiry     time.Time
	requestsTotal   metric.Int64Counter
	requestsFailed  metric.Int64Counter
	invalidNumbers  metric.Int64Counter
	tokenRefreshes  metric.Int64Counter
	bytesTotal      metric.Int64Counter
	requestDuration metric.Int64Histogram
}

type tokenResponse struct {
	AccessToken string  `json:"access_token"`
	TokenType   string  `json:"token_type"`
	ExpiresIn   seconds `json:"expires_in"`
}

// seconds accepts both 1199 and "1199"; the token endpoint sends a string.
type seconds int

func (s *seconds) UnmarshalJSON(b []byte) error {
	raw := strings.Trim(string(b), `"`)
	if raw == "" || raw == "null" {
		*s = 0
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("expires_in: %w", err)
	}
	*s = seconds(n)
	return nil
}

func NewClient(
	cfg config.Register,
	tracer trace.Tracer,
	logger *zap.SugaredLogger,
	meter metric.Meter,
) (*Client, error) {
	c := &Client{
		Cfg:    cfg,
		Logger: logger,
		Tracer: tracer,
		Meter:  meter,
		client: Http.MakeClient(&http.Client{Timeout: cfg.Timeout}),
		now:    time.Now,
	}

	var err error
	c.requestsTotal, err = meter.Int64Counter(
		"registry.requests.total",
		metric.WithDescription("Number of register requests issued, retries included"),
	)
	if err != nil {
		return nil, err
	}

	c.requestsFailed, err = meter.Int64Counter(
		"registry.requests.failed",
		metric.WithDescription("Number of lookups that failed after retries"),
	)
	if err != nil {
		return nil, err
	}

	c.invalidNumbers, err = meter.Int64Counter(
		"registry.invalid_numbers",
		metric.WithDescription("Number of lookups the register answered with not found"),
	)
	if err != nil {
		return nil, err
	}

	c.tokenRefreshes, err = meter.Int64Counter(
		"registry.token.refreshes",
		metric.WithDescription("Number of access tokens obtained"),
	)
	if err != nil {
		return nil, err
	}

	c.bytesTotal, err = meter.Int64Counter(
		"registry.bytes.total",
		metric.WithDescription("Total bytes of register responses read"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	c.requestDuration, err = meter.Int64Histogram(
		"registry.request.duration",
		metric.WithDescription("Duration of one biblio lookup including retries"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Client) anonymous() bool {
	return c.Cfg.ConsumerKey == ""
}

func (c *Client) policy() retry.RetryPolicy {
	return retry.Monoid.Concat(
		retry.LimitRetries(uint(c.Cfg.MaxRetries)),
		retry.ExponentialBackoff(c.Cfg.RetryBackoff),
	)
}

func shouldRetry(ctx context.Context) func(ET.Either[error, []byte]) bool {
	return ET.Fold(
		func(err error) bool {
			if ctx.Err() != nil {
				return false
			}
			var status *StatusError
			if errors.As(err, &status) {
				return status.Retryable()
			}
			return true
		},
		F.Constant1[[]byte](false),
	)
}

func readBody(resp *http.Response) IOE.IOEither[error, []byte] {
	return IOE.TryCatchError(func() ([]byte, error) {
		return io.ReadAll(resp.Body)
	})
}

func closeBody(resp *http.Response, _ ET.Either[error, []byte]) IOE.IOEither[error, any] {
	return IOE.TryCatchError(func() (any, error) { return nil, resp.Body.Close() })
}

// AccessToken returns a bearer token, reusing the cached one until shortly
// before it expires. Without a consumer key it returns "".
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	if c.anonymous() {
		return "", nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && c.now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	ctx, span := c.Tracer.Start(ctx, "registry.access_token", trace.WithAttributes(
		attribute.String("auth_url", c.Cfg.AuthURL),
	))
	defer span.End()

	requester := IOE.TryCatchError(func() (*http.Request, error) {
		body := url.Values{"grant_type": {"client_credentials"}}.Encode()
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Cfg.AuthURL, strings.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.SetBasicAuth(c.Cfg.ConsumerKey, c.Cfg.ConsumerSecret)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req, nil
	})
	action := func(_ retry.RetryStatus) IOE.IOEither[error, []byte] {
		return IOE.Bracket(
			c.client.Do(requester),
			func(resp *http.Response) IOE.IOEither[error, []byte] {
				c.requestsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("endpoint", "token")))
				if resp.StatusCode != http.StatusOK {
					return IOE.Left[[]byte](error(&StatusError{Code: resp.StatusCode, URL: c.Cfg.AuthURL}))
				}
				return readBody(resp)
			},
			closeBody,
		)
	}
	raw, err := ET.UnwrapError(IOE.Retrying(c.policy(), action, func(res ET.Either[error, []byte]) bool {
		// A 401 from the token endpoint means the credentials are wrong.
		var status *StatusError
		if ET.IsLeft(res) {
			_, err := ET.UnwrapError(res)
			if errors.As(err, &status) && status.Code == http.StatusUnauthorized {
				return false
			}
		}
		return shouldRetry(ctx)(res)
	})())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("access token: %w", err)
	}

	var tok tokenResponse
	if err := json.Unmarshal(raw, &tok); err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("decode access token: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("access token: empty token in response")
	}

	c.token = tok.AccessToken
	c.tokenExpiry = c.now().Add(tokenLifetime(tok.ExpiresIn))
	c.tokenRefreshes.Add(ctx, 1)
	span.SetAttributes(attribute.Int("expires_in", int(tok.ExpiresIn)))
	c.Logger.Debugw("Obtained access token", "expires_in", int(tok.ExpiresIn))
	return c.token, nil
}

func tokenLifetime(expiresIn seconds) time.Duration {
	lifetime := time.Duration(expiresIn) * time.Second
	if lifetime <= 0 {
		lifetime = defaultTokenLifetime
	}
	if lifetime > tokenMargin {
		return lifetime - tokenMargin
	}
	return lifetime
}

func (c *Client) invalidateToken() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
	c.tokenExpiry = time.Time{}
}

// BiblioURL is the register endpoint serving the bibliographic record of id.
func (c *Client) BiblioURL(id normalize.Identifier) string {
	return fmt.Sprintf("%s/rest-services/register/%s/epodoc/%s/biblio",
		strings.TrimRight(c.Cfg.BaseURL, "/"),
		id.Kind,
		url.PathEscape(id.Number),
	)
}

func (c *Client) accept() string {
	if c.Cfg.Format == "xml" {
		return "application/xml"
	}
	return "application/json"
}

// InvalidNumberDocument is the response recorded for a number the register
// does not know.
func InvalidNumberDocument(number string) []byte {
	doc, _ := json.Marshal(map[string]string{"invalid_number": number})
	return doc
}

// FetchBiblio retrieves the raw bibliographic record for id. A 404 yields
// an invalid_number document rather than an error, as does an identifier
// that could not be normalized. ref names the dump file alongside id.
func (c *Client) FetchBiblio(ctx context.Context, id normalize.Identifier, ref string) IOE.IOEither[error, []byte] {
	return IOE.TryCatchError(func() ([]byte, error) {
		return c.fetchBiblio(ctx, id, ref)
	})
}

func (c *Client) fetchBiblio(ctx context.Context, id normalize.Identifier, ref string) ([]byte, error) {
	target := c.BiblioURL(id)
	ctx, span := c.Tracer.Start(ctx, "registry.fetch_biblio", trace.WithAttributes(
		attribute.String("identifier.kind", string(id.Kind)),
		attribute.String("identifier.number", id.Number),
		attribute.String("url", target),
		attribute.Int("max_retries", c.Cfg.MaxRetries),
	))
	defer span.End()
	startTime := time.Now()

	if !id.Valid() {
		span.AddEvent("unnormalized_identifier")
		c.invalidNumbers.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", "unnormalized")))
		c.Logger.Warnw("Identifier could not be normalized", "number", id.Number)
		return c.dump(id, ref, InvalidNumberDocument(id.Number))
	}

	action := func(status retry.RetryStatus) IOE.IOEither[error, []byte] {
		select {
		case <-ctx.Done():
			return IOE.Left[[]byte](ctx.Err())
		default:
		}
		token, err := c.AccessToken(ctx)
		if err != nil {
			return IOE.Left[[]byte](err)
		}
		requester := IOE.TryCatchError(func() (*http.Request, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
			if err != nil {
				return nil, err
			}
			req.Header.Set("Accept", c.accept())
			if token != "" {
				req.Header.Set("Authorization", "Bearer "+token)
			}
			return req, nil
		})
		return IOE.Bracket(
			c.client.Do(requester),
			func(resp *http.Response) IOE.IOEither[error, []byte] {
				c.requestsTotal.Add(ctx, 1, metric.WithAttributes(
					attribute.String("endpoint", "biblio"),
					attribute.Int("status", resp.StatusCode),
				))
				switch {
				case resp.StatusCode == http.StatusNotFound:
					c.invalidNumbers.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", "not_found")))
					span.AddEvent("invalid_number")
					return IOE.Of[error](InvalidNumberDocument(id.Number))
				case resp.StatusCode == http.StatusUnauthorized:
					c.invalidateToken()
					fallthrough
				case resp.StatusCode != http.StatusOK:
					c.Logger.Warnw("Register request failed",
						"number", id.Number,
						"status", resp.StatusCode,
						"attempt", status.IterNumber)
					return IOE.Left[[]byte](error(&StatusError{Code: resp.StatusCode, URL: target}))
				}
				return readBody(resp)
			},
			closeBody,
		)
	}

	raw, err := ET.UnwrapError(IOE.Retrying(c.policy(), action, shouldRetry(ctx))())
	durationMs := time.Since(startTime).Milliseconds()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.requestsFailed.Add(ctx, 1)
		c.requestDuration.Record(ctx, durationMs, metric.WithAttributes(attribute.String("status", "failed")))
		c.Logger.Errorw("Register lookup failed", "number", id.Number, "error", err)
		return nil, fmt.Errorf("fetch %s: %w", id, err)
	}
	c.bytesTotal.Add(ctx, int64(len(raw)))
	c.requestDuration.Record(ctx, durationMs, metric.WithAttributes(attribute.String("status", "success")))
	span.SetAttributes(attribute.Int("response_bytes", len(raw)))
	return c.dump(id, ref, raw)
}

// dump writes raw into the configured dump directory, named after the
// identifier and reference, and passes raw through.
func (c *Client) dump(id normalize.Identifier, ref string, raw []byte) ([]byte, error) {
	if c.Cfg.DumpDir == "" {
		return raw, nil
	}
	ext := ".json"
	if len(raw) > 0 && raw[0] == '<' {
		ext = ".xml"
	}
	path := filepath.Join(c.Cfg.DumpDir, DumpName(id, ref)+ext)
	write := IOE.TryCatchError(func() (any, error) {
		if err := os.MkdirAll(c.Cfg.DumpDir, 0o755); err != nil {
			return nil, err
		}
		return nil, os.WriteFile(path, raw, 0o644)
	})
	_, err := ET.UnwrapError(write())
	if err != nil {
		return nil, fmt.Errorf("dump %s: %w", path, err)
	}
	return raw, nil
}

// DumpName is the file stem of a dumped response: kind, number and, when
// present, the caller's reference, joined by underscores. Each part is
// escaped so ParseDumpName can split it back.
func DumpName(id normalize.Identifier, ref string) string {
	name := string(id.Kind) + "_" + escapeDumpPart(id.Number)
	if ref != "" {
		name += "_" + escapeDumpPart(ref)
	}
	return name
}

// ParseDumpName recovers the identifier and reference from a dump file stem.
func ParseDumpName(stem string) (normalize.Identifier, string, bool) {
	parts := strings.Split(stem, "_")
	if len(parts) < 2 || len(parts) > 3 || parts[1] == "" {
		return normalize.Identifier{}, "", false
	}
	kind := normalize.Kind(parts[0])
	switch kind {
	case normalize.KindApplication, normalize.KindPublication, normalize.KindUnknown:
	default:
		return normalize.Identifier{}, "", false
	}
	number, err := url.PathUnescape(parts[1])
	if err != nil {
		return normalize.Identifier{}, "", false
	}
	var ref string
	if len(parts) == 3 {
		if ref, err = url.PathUnescape(parts[2]); err != nil {
			return normalize.Identifier{}, "", false
		}
	}
	return normalize.Identifier{Kind: kind, Number: number}, ref, true
}

var dumpEscaper = strings.NewReplacer(
	"%", "%25",
	"_", "%5F",
	"/", "%2F",
	"\\", "%5C",
	" ", "%20",
	":", "%3A",
	"*", "%2A",
	"?", "%3F",
	"\"", "%22",
	"<", "%3C",
	">", "%3E",
	"|", "%7C",
)

func escapeDumpPart(s string) string {
	return dumpEscaper.Replace(s)
}
