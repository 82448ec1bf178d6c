// Package upload is the client side of the upload service.
//
// Two request shapes exist:
//
//	POST {endpoint}/upload   multipart: type=i|f, ext=<ext>, file=<bytes>
//	POST {endpoint}/create   JSON: {"payload": <string>, "type": "l"|"t"}
//
// Both answer with a JSON object whose "url" field is a path (or absolute
// URL) naming the created resource. The shareable link is the endpoint
// followed by that path.
package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"go.klb.dev/nanoupload/internal/content"
	"go.klb.dev/nanoupload/internal/failure"
)

const (
	// MaxResponseSize is the largest response body read (1 MiB).
	MaxResponseSize = 1 << 20

	// DefaultTimeout bounds one upload exchange.
	DefaultTimeout = 30 * time.Second
)

// Kind is the request discriminator.
type Kind string

const (
	KindImage Kind = "image"
	KindFile  Kind = "file"
	KindLink  Kind = "link"
	KindText  Kind = "text"
)

// wireType is the one-letter "type" field the service expects.
func (k Kind) wireType() string {
	switch k {
	case KindImage:
		return "i"
	case KindFile:
		return "f"
	case KindLink:
		return "l"
	case KindText:
		return "t"
	}
	return ""
}

func (k Kind) multipart() bool { return k == KindImage || k == KindFile }

// Request is one outbound upload. Payload carries the bytes for image and
// file requests; Text carries the string for link and text requests.
type Request struct {
	Kind        Kind
	Payload     []byte
	Text        string
	Ext         string
	ContentType string
}

// ForClass returns the request kind for a content class. ok is false for
// KindEmpty, which never reaches the service.
func ForClass(k content.Kind) (kind Kind, ok bool) {
	switch k {
	case content.KindImage:
		return KindImage, true
	case content.KindFilePath:
		return KindFile, true
	case content.KindURL:
		return KindLink, true
	case content.KindPlainText:
		return KindText, true
	}
	return "", false
}

// Response is a parsed service answer.
type Response struct {
	// Fragment is the raw "url" value returned by the service.
	Fragment string
	// Link is the shareable link built from the endpoint and Fragment.
	Link string
}

type createBody struct {
	Payload string `json:"payload"`
	Type    string `json:"type"`
}

type responseBody struct {
	URL *string `json:"url"`
}

// Client sends upload requests. The zero value is not usable; call New.
type Client struct {
	hc        *http.Client
	userAgent string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.hc = hc } }

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option { return func(c *Client) { c.userAgent = ua } }

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.hc = &http.Client{Timeout: d}
		}
	}
}

// New returns a Client.
func New(opts ...Option) *Client {
	c := &Client{
		hc:        &http.Client{Timeout: DefaultTimeout},
		userAgent: "nanoupload",
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Dispatch performs exactly one request for req against endpoint and parses
// the answer. It never retries.
func (c *Client) Dispatch(ctx context.Context, req Request, endpoint string) (Response, error) {
	base := strings.TrimRight(endpoint, "/")

	var (
		path        string
		body        []byte
		contentType string
		err         error
	)
	switch {
	case req.Kind.multipart():
		path = "/upload"
		body, contentType, err = multipartBody(req)
	case req.Kind == KindLink || req.Kind == KindText:
		path = "/create"
		body, err = json.Marshal(createBody{Payload: req.Text, Type: req.Kind.wireType()})
		contentType = "application/json"
	default:
		return Response{}, failure.Errorf(failure.KindProtocol, "build request", "unsupported kind %q", req.Kind)
	}
	if err != nil {
		return Response{}, failure.New(failure.KindEncoding, "build request", err)
	}

	op := "POST " + path
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, base+path, bytes.NewReader(body))
	if err != nil {
		// Malformed endpoints only surface here.
		return Response{}, failure.New(failure.KindNetwork, op, err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.hc.Do(httpReq)
	if err != nil {
		return Response{}, failure.New(failure.KindNetwork, op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return Response{}, failure.New(failure.KindNetwork, op, fmt.Errorf("read body: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Response{}, failure.Errorf(failure.KindProtocol, op, "unexpected status %s", resp.Status)
	}
	if len(raw) > MaxResponseSize {
		return Response{}, failure.Errorf(failure.KindProtocol, op, "response exceeds %d bytes", MaxResponseSize)
	}

	fragment, err := parseResponse(raw)
	if err != nil {
		return Response{}, failure.New(failure.KindProtocol, op, err)
	}
	return Response{Fragment: fragment, Link: JoinLink(base, fragment)}, nil
}

func multipartBody(req Request) ([]byte, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	ext := req.Ext
	if ext == "" {
		ext = "bin"
	}
	if err := mw.WriteField("type", req.Kind.wireType()); err != nil {
		return nil, "", err
	}
	if err := mw.WriteField("ext", ext); err != nil {
		return nil, "", err
	}

	ct := req.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="upload.%s"`, ext))
	h.Set("Content-Type", ct)
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(req.Payload); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), mw.FormDataContentType(), nil
}

var errMissingURL = errors.New(`response has no string "url" field`)

func parseResponse(raw []byte) (string, error) {
	var body responseBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return "", fmt.Errorf("malformed response: %w", err)
	}
	if body.URL == nil || *body.URL == "" {
		return "", errMissingURL
	}
	return *body.URL, nil
}

// JoinLink builds the shareable link from the endpoint and the fragment the
// service returned. An absolute URL fragment is returned unchanged.
func JoinLink(endpoint, fragment string) string {
	if content.IsAbsoluteURL(fragment) {
		return fragment
	}
	base := strings.TrimRight(endpoint, "/")
	if !strings.HasPrefix(fragment, "/") {
		fragment = "/" + fragment
	}
	return base + fragment
}
