package swift

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/jmgilman/go/fs/swift/internal/auth"
	"github.com/jmgilman/go/fs/swift/internal/errs"
)

const defaultTimeout = 30 * time.Second

// RestTransport implements Transport against the Swift HTTP API.
//
// It owns the authenticated session: the token and storage URL are fetched
// lazily, cached, and refreshed once when the store answers 401. Request
// timeouts and retries are configured here, never in the layers above.
type RestTransport struct {
	client *resty.Client // buffered responses (HEAD, PUT, DELETE, COPY, listings)
	raw    *resty.Client // streaming responses (GET)
	auth   *auth.Manager
	logger *slog.Logger
	stats  *transportMetrics
}

// NewRestTransport creates a Transport from the connection fields of cfg.
func NewRestTransport(cfg Config) (*RestTransport, error) {
	if cfg.AuthURL == "" || cfg.User == "" || cfg.Key == "" {
		return nil, fmt.Errorf("auth url, user and key are required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(cfg.Retries)

	// Streaming client: no overall timeout, since the caller may hold the
	// body open well past any sensible request deadline.
	raw := resty.New().
		SetRetryCount(cfg.Retries).
		SetDoNotParseResponse(true)

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	creds := auth.Credentials{AuthURL: cfg.AuthURL, User: cfg.User, Key: cfg.Key}

	return &RestTransport{
		client: client,
		raw:    raw,
		auth:   auth.NewManager(creds, client),
		logger: logger,
		stats:  newTransportMetrics(cfg.Registry),
	}, nil
}

// objectURL builds the storage URL for an address, escaping each path
// segment of the object name.
func objectURL(sess auth.Session, addr ObjectAddress) string {
	var b strings.Builder
	b.WriteString(sess.StorageURL)
	b.WriteString("/")
	b.WriteString(url.PathEscape(addr.Container))

	obj := strings.TrimPrefix(addr.Object, "/")
	if obj == "" {
		return b.String()
	}
	trailing := strings.HasSuffix(obj, "/")
	for _, seg := range strings.Split(strings.TrimSuffix(obj, "/"), "/") {
		b.WriteString("/")
		b.WriteString(url.PathEscape(seg))
	}
	if trailing {
		b.WriteString("/")
	}
	return b.String()
}

// execute performs one authenticated request, re-authenticating a single
// time if the cached token has expired. build runs once per attempt, so a
// request body must be readable again when the attempt is replayed.
func (t *RestTransport) execute(
	ctx context.Context,
	client *resty.Client,
	method string,
	addr ObjectAddress,
	build func(*resty.Request) *resty.Request,
) (*resty.Response, error) {
	var resp *resty.Response

	for attempt := 0; attempt < 2; attempt++ {
		sess, err := t.auth.Session(ctx)
		if err != nil {
			return nil, err
		}

		req := client.R().
			SetContext(ctx).
			SetHeader("X-Auth-Token", sess.Token).
			SetHeader(headerTransID, uuid.NewString())
		if build != nil {
			req = build(req)
		}

		start := time.Now()
		resp, err = req.Execute(method, objectURL(sess, addr))
		t.stats.observe(method, resp, time.Since(start))
		if err != nil {
			return nil, fmt.Errorf("swift: %s %s: %w", method, addr, err)
		}

		if resp.StatusCode() == http.StatusUnauthorized && attempt == 0 {
			// Token expired between requests; refresh and retry once.
			t.logger.DebugContext(ctx, "swift token expired, re-authenticating",
				"method", method, "path", addr.String())
			t.auth.Invalidate(sess)
			drainRaw(resp)
			continue
		}
		return resp, nil
	}

	return resp, nil
}

// Head fetches the metadata headers for an address.
func (t *RestTransport) Head(ctx context.Context, addr ObjectAddress) (http.Header, error) {
	resp, err := t.execute(ctx, t.client, http.MethodHead, addr, func(r *resty.Request) *resty.Request {
		return r.SetHeader(headerNewest, "true")
	})
	if err != nil {
		return nil, err
	}
	if err := errs.Translate(http.MethodHead, addr.String(), resp.StatusCode()); err != nil {
		return nil, err
	}

	// The store signals "object absent" with an empty header set even on a
	// nominally successful response.
	if len(resp.Header()) == 0 {
		return nil, fs.ErrNotExist
	}

	return resp.Header(), nil
}

// Get opens the object data for reading.
func (t *RestTransport) Get(ctx context.Context, addr ObjectAddress, rng *ByteRange) (io.ReadCloser, http.Header, error) {
	resp, err := t.execute(ctx, t.raw, http.MethodGet, addr, func(r *resty.Request) *resty.Request {
		r = r.SetHeader(headerNewest, "true")
		if rng != nil {
			if rng.Length > 0 {
				r = r.SetHeader("Range", fmt.Sprintf("bytes=%d-%d", rng.Start, rng.Start+rng.Length-1))
			} else {
				r = r.SetHeader("Range", fmt.Sprintf("bytes=%d-", rng.Start))
			}
		}
		return r
	})
	if err != nil {
		return nil, nil, err
	}
	if err := errs.Translate(http.MethodGet, addr.String(), resp.StatusCode()); err != nil {
		drainRaw(resp)
		return nil, nil, err
	}

	return resp.RawBody(), resp.Header(), nil
}

// Put writes an object of the given length from body. The request can be
// replayed after a token refresh, so a seekable body is rewound before each
// attempt and anything else is buffered up front.
func (t *RestTransport) Put(ctx context.Context, addr ObjectAddress, body io.Reader, length int64, extra http.Header) error {
	var rs io.ReadSeeker
	switch b := body.(type) {
	case nil:
		// Zero-length upload (directory markers, manifests).
	case io.ReadSeeker:
		rs = b
	default:
		buf, err := io.ReadAll(b)
		if err != nil {
			return fmt.Errorf("swift: PUT %s: %w", addr, err)
		}
		rs = bytes.NewReader(buf)
	}

	var rewindErr error
	resp, err := t.execute(ctx, t.client, http.MethodPut, addr, func(r *resty.Request) *resty.Request {
		r = r.SetContentLength(true).
			SetHeader("Content-Length", fmt.Sprintf("%d", length))
		if rs != nil {
			if _, err := rs.Seek(0, io.SeekStart); err != nil {
				rewindErr = err
			}
			r = r.SetBody(rs)
		}
		for name, values := range extra {
			for _, v := range values {
				r = r.SetHeader(name, v)
			}
		}
		return r
	})
	if err != nil {
		return err
	}
	if rewindErr != nil {
		return fmt.Errorf("swift: PUT %s: rewind body: %w", addr, rewindErr)
	}
	return errs.Translate(http.MethodPut, addr.String(), resp.StatusCode())
}

// Delete removes an object. Deleting an already-absent object is not an
// error; it reports false.
func (t *RestTransport) Delete(ctx context.Context, addr ObjectAddress) (bool, error) {
	resp, err := t.execute(ctx, t.client, http.MethodDelete, addr, nil)
	if err != nil {
		return false, err
	}
	if resp.StatusCode() == http.StatusNotFound {
		return false, nil
	}
	if err := errs.Translate(http.MethodDelete, addr.String(), resp.StatusCode()); err != nil {
		return false, err
	}
	return true, nil
}

// Copy duplicates src to dst server-side using the COPY verb.
func (t *RestTransport) Copy(ctx context.Context, src, dst ObjectAddress) (bool, error) {
	resp, err := t.execute(ctx, t.client, "COPY", src, func(r *resty.Request) *resty.Request {
		return r.SetHeader(headerCopyDestination, dst.String())
	})
	if err != nil {
		return false, err
	}
	if resp.StatusCode() == http.StatusNotFound {
		return false, fs.ErrNotExist
	}
	if err := errs.Translate("COPY", src.String(), resp.StatusCode()); err != nil {
		return false, err
	}
	return true, nil
}

// ListPrefix returns the raw newline-delimited object names under the
// address's prefix.
func (t *RestTransport) ListPrefix(ctx context.Context, addr ObjectAddress, marker string) ([]byte, error) {
	container := ObjectAddress{Container: addr.Container}
	resp, err := t.execute(ctx, t.client, http.MethodGet, container, func(r *resty.Request) *resty.Request {
		r = r.SetQueryParam("format", "plain")
		if p := addr.Prefix(); p != "" {
			r = r.SetQueryParam("prefix", p)
		}
		if marker != "" {
			r = r.SetQueryParam("marker", marker)
		}
		return r
	})
	if err != nil {
		return nil, err
	}

	if resp.StatusCode() == http.StatusNoContent {
		return nil, ErrNoContent
	}
	if err := errs.Translate(http.MethodGet, addr.String(), resp.StatusCode()); err != nil {
		return nil, err
	}

	return resp.Body(), nil
}

// Locations returns the raw ring-location response for an object. It targets
// the list_endpoints middleware, which lives beside the storage endpoint:
// "<origin>/endpoints/<account>/<container>/<object>".
func (t *RestTransport) Locations(ctx context.Context, addr ObjectAddress) ([]byte, error) {
	sess, err := t.auth.Session(ctx)
	if err != nil {
		return nil, err
	}

	storage, err := url.Parse(sess.StorageURL)
	if err != nil {
		return nil, fmt.Errorf("swift: invalid storage url: %w", err)
	}
	account := storage.Path[strings.LastIndex(storage.Path, "/")+1:]

	endpoint := fmt.Sprintf("%s://%s/endpoints/%s/%s%s",
		storage.Scheme, storage.Host, account, addr.Container, addr.Object)

	resp, err := t.client.R().
		SetContext(ctx).
		SetHeader("X-Auth-Token", sess.Token).
		Get(endpoint)
	if err != nil {
		return nil, fmt.Errorf("swift: GET %s: %w", endpoint, err)
	}
	if err := errs.Translate(http.MethodGet, addr.String(), resp.StatusCode()); err != nil {
		return nil, err
	}

	return resp.Body(), nil
}

// drainRaw closes an unparsed response body, if one is attached.
func drainRaw(resp *resty.Response) {
	if body := resp.RawBody(); body != nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(body, 1<<20))
		_ = body.Close()
	}
}

// Compile-time interface check.
var _ Transport = (*RestTransport)(nil)
