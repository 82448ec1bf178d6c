package pipeline

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.klb.dev/nanoupload/internal/content"
	"go.klb.dev/nanoupload/internal/failure"
	"go.klb.dev/nanoupload/internal/state"
	"go.klb.dev/nanoupload/internal/upload"
)

type fakeClipboard struct {
	mu       sync.Mutex
	snap     content.Snapshot
	readErr  error
	writeErr error
	written  []string
}

func (f *fakeClipboard) Name() string { return "fake" }
func (f *fakeClipboard) Close()       {}

func (f *fakeClipboard) Read() (content.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap, f.readErr
}

func (f *fakeClipboard) WriteText(s string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.written = append(f.written, s)
	return nil
}

type note struct{ title, body string }

type recorder struct {
	mu    sync.Mutex
	notes []note
}

func (r *recorder) Notify(title, body string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, note{title, body})
}

func (r *recorder) last() note {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notes) == 0 {
		return note{}
	}
	return r.notes[len(r.notes)-1]
}

type request struct {
	path   string
	body   string
	fields map[string]string
}

type service struct {
	*httptest.Server
	calls atomic.Int32
	seen  chan request
}

func newService(t *testing.T, status int, reply string) *service {
	t.Helper()
	s := &service{seen: make(chan request, 4)}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.calls.Add(1)
		req := request{path: r.URL.Path}
		if r.URL.Path == "/upload" {
			_ = r.ParseMultipartForm(1 << 20)
			req.fields = map[string]string{"type": r.FormValue("type"), "ext": r.FormValue("ext")}
		} else {
			b, _ := io.ReadAll(r.Body)
			req.body = string(b)
		}
		s.seen <- req
		w.WriteHeader(status)
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(s.Close)
	return s
}

func newPipeline(cb *fakeClipboard, n *recorder, endpoint string) *Pipeline {
	return &Pipeline{
		Clipboard: cb,
		Uploader:  upload.New(),
		Notifier:  n,
		Endpoints: state.New(endpoint, ""),
	}
}

func TestRunURL(t *testing.T) {
	svc := newService(t, http.StatusOK, `{"url":"/abc123"}`)
	cb := &fakeClipboard{snap: content.TextSnapshot("https://example.com/page")}
	n := &recorder{}

	res, err := newPipeline(cb, n, svc.URL).Run(context.Background())
	require.NoError(t, err)

	got := <-svc.seen
	assert.Equal(t, "/create", got.path)
	assert.Equal(t, `{"payload":"https://example.com/page","type":"l"}`, got.body)
	assert.Equal(t, content.KindURL, res.Class.Kind)
	assert.Equal(t, svc.URL+"/abc123", res.Link)
	assert.Equal(t, []string{svc.URL + "/abc123"}, cb.written)
	assert.Equal(t, note{"Link shortened", svc.URL + "/abc123"}, n.last())
	assert.NotEmpty(t, res.ID)
}

func TestRunFile(t *testing.T) {
	svc := newService(t, http.StatusOK, `{"url":"/f1"}`)
	path := filepath.Join(t.TempDir(), "report.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.7 quarterly"), 0o600))
	cb := &fakeClipboard{snap: content.TextSnapshot(path)}

	res, err := newPipeline(cb, &recorder{}, svc.URL).Run(context.Background())
	require.NoError(t, err)

	got := <-svc.seen
	assert.Equal(t, "/upload", got.path)
	assert.Equal(t, map[string]string{"type": "f", "ext": "pdf"}, got.fields)
	assert.Equal(t, svc.URL+"/f1", res.Link)
	assert.Equal(t, []string{svc.URL + "/f1"}, cb.written)
}

func TestRunImage(t *testing.T) {
	svc := newService(t, http.StatusOK, `{"url":"/i/7"}`)
	img := &content.Image{Width: 2, Height: 1, Pix: []byte{255, 0, 0, 255, 0, 0, 255, 128}}
	cb := &fakeClipboard{snap: content.ImageSnapshot(img)}

	res, err := newPipeline(cb, &recorder{}, svc.URL).Run(context.Background())
	require.NoError(t, err)

	got := <-svc.seen
	assert.Equal(t, map[string]string{"type": "i", "ext": "png"}, got.fields)
	assert.Equal(t, svc.URL+"/i/7", res.Link)
}

func TestRunPlainText(t *testing.T) {
	svc := newService(t, http.StatusOK, `{"url":"/t/1"}`)
	cb := &fakeClipboard{snap: content.TextSnapshot("just some words")}

	_, err := newPipeline(cb, &recorder{}, svc.URL).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, `{"payload":"just some words","type":"t"}`, (<-svc.seen).body)
}

func TestRunEmpty(t *testing.T) {
	svc := newService(t, http.StatusOK, `{"url":"/never"}`)
	cb := &fakeClipboard{}
	n := &recorder{}

	res, err := newPipeline(cb, n, svc.URL).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, content.KindEmpty, res.Class.Kind)
	assert.Equal(t, int32(0), svc.calls.Load())
	assert.Empty(t, cb.written)
	assert.Equal(t, "Nothing to upload", n.last().title)
}

func TestRunServerError(t *testing.T) {
	svc := newService(t, http.StatusInternalServerError, `oops`)
	cb := &fakeClipboard{snap: content.TextSnapshot("https://example.com/page")}
	n := &recorder{}
	p := newPipeline(cb, n, svc.URL)

	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, failure.KindProtocol, failure.KindOf(err))
	assert.Empty(t, cb.written)
	assert.Equal(t, "Upload failed", n.last().title)
	assert.Contains(t, n.last().body, "500")
	assert.Equal(t, int32(1), svc.calls.Load())
}

func TestRunVanishedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gone.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
	snap := content.TextSnapshot(path)
	class := content.Classify(snap)
	require.Equal(t, content.KindFilePath, class.Kind)
	require.NoError(t, os.Remove(path))

	_, err := BuildRequest(class, snap)
	assert.Equal(t, failure.KindIO, failure.KindOf(err))
}

func TestRunBadImageBuffer(t *testing.T) {
	svc := newService(t, http.StatusOK, `{"url":"/x"}`)
	img := &content.Image{Width: 4, Height: 4, Pix: []byte{1, 2, 3}}
	cb := &fakeClipboard{snap: content.ImageSnapshot(img)}
	n := &recorder{}

	_, err := newPipeline(cb, n, svc.URL).Run(context.Background())
	assert.Equal(t, failure.KindEncoding, failure.KindOf(err))
	assert.Equal(t, int32(0), svc.calls.Load())
	assert.Equal(t, "The clipboard image could not be encoded.", n.last().body)
}

func TestRunClipboardFailures(t *testing.T) {
	svc := newService(t, http.StatusOK, `{"url":"/x"}`)

	cb := &fakeClipboard{readErr: errors.New("clipboard locked")}
	_, err := newPipeline(cb, &recorder{}, svc.URL).Run(context.Background())
	assert.Equal(t, failure.KindClipboard, failure.KindOf(err))
	assert.Equal(t, int32(0), svc.calls.Load())

	cb = &fakeClipboard{snap: content.TextSnapshot("hello"), writeErr: errors.New("clipboard locked")}
	n := &recorder{}
	res, err := newPipeline(cb, n, svc.URL).Run(context.Background())
	assert.Equal(t, failure.KindClipboard, failure.KindOf(err))
	assert.Equal(t, svc.URL+"/x", res.Link)
	assert.Equal(t, svc.URL+"/x", n.last().body)
}

func TestRunNoEndpoint(t *testing.T) {
	cb := &fakeClipboard{snap: content.TextSnapshot("hello")}
	n := &recorder{}
	_, err := newPipeline(cb, n, "").Run(context.Background())
	assert.ErrorIs(t, err, ErrNoEndpoint)
	assert.Equal(t, "No upload endpoint is configured.", n.last().body)
}

func TestEndpointReadOncePerRun(t *testing.T) {
	first := newService(t, http.StatusOK, `{"url":"/one"}`)
	second := newService(t, http.StatusOK, `{"url":"/two"}`)
	st := state.New(first.URL, "")
	cb := &fakeClipboard{snap: content.TextSnapshot("hello")}

	// The uploader flips the endpoint mid-run; the run must stay on the old one.
	up := uploaderFunc(func(ctx context.Context, req upload.Request, endpoint string) (upload.Response, error) {
		st.SetEndpoint(second.URL)
		return upload.New().Dispatch(ctx, req, endpoint)
	})
	p := &Pipeline{Clipboard: cb, Uploader: up, Notifier: &recorder{}, Endpoints: st}

	res, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first.URL, res.Endpoint)
	assert.Equal(t, first.URL+"/one", res.Link)
	assert.Equal(t, int32(0), second.calls.Load())

	res, err = p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, second.URL+"/two", res.Link)
}

type uploaderFunc func(ctx context.Context, req upload.Request, endpoint string) (upload.Response, error)

func (f uploaderFunc) Dispatch(ctx context.Context, req upload.Request, endpoint string) (upload.Response, error) {
	return f(ctx, req, endpoint)
}

func TestReason(t *testing.T) {
	assert.Equal(t, "The upload server could not be reached: dial tcp: refused",
		Reason(failure.New(failure.KindNetwork, "POST /create", errors.New("dial tcp: refused"))))
	assert.Equal(t, "something else", Reason(errors.New("something else")))
}
