// Package pipeline runs one capture → classify → upload → write-back pass.
//
// A Pipeline holds only collaborators; all per-run data lives on the stack of
// Run. The endpoint is read from the shared state once at the start of a run
// and never again, so a concurrent SetEndpoint affects the next run only.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"go.klb.dev/nanoupload/internal/clip"
	"go.klb.dev/nanoupload/internal/content"
	"go.klb.dev/nanoupload/internal/encode"
	"go.klb.dev/nanoupload/internal/failure"
	"go.klb.dev/nanoupload/internal/notify"
	"go.klb.dev/nanoupload/internal/upload"
)

// ErrNoEndpoint is returned when a run starts with no endpoint configured.
var ErrNoEndpoint = errors.New("no upload endpoint configured")

// Uploader sends one request. *upload.Client satisfies it.
type Uploader interface {
	Dispatch(ctx context.Context, req upload.Request, endpoint string) (upload.Response, error)
}

// EndpointSource supplies the endpoint for a run. *state.State satisfies it.
type EndpointSource interface {
	Endpoint() string
}

// Result describes a finished run.
type Result struct {
	ID       string
	Endpoint string
	Class    content.Class
	Link     string
}

// Pipeline wires the run stages together.
type Pipeline struct {
	Clipboard  clip.Backend
	Classifier content.Classifier
	Uploader   Uploader
	Notifier   notify.Sink
	Endpoints  EndpointSource
}

// Run performs one full pass. Every failure stops the remaining stages, is
// reported through the notifier and returned; nothing panics.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	res := Result{ID: uuid.NewString(), Endpoint: p.Endpoints.Endpoint()}
	log := slog.With("run", res.ID)

	snap, err := p.Clipboard.Read()
	if err != nil {
		return res, p.fail(log, "read clipboard", asClipboardError("read", err))
	}

	res.Class = p.Classifier.Classify(snap)
	logClass(log, res.Class)

	if res.Class.Kind == content.KindEmpty {
		p.Notifier.Notify("Nothing to upload", "The clipboard is empty.")
		return res, nil
	}
	if res.Endpoint == "" {
		return res, p.fail(log, "upload", ErrNoEndpoint)
	}

	req, err := BuildRequest(res.Class, snap)
	if err != nil {
		return res, p.fail(log, "prepare "+res.Class.Kind.String(), err)
	}

	resp, err := p.Uploader.Dispatch(ctx, req, res.Endpoint)
	if err != nil {
		return res, p.fail(log, "upload", err)
	}
	res.Link = resp.Link
	log.Info("upload complete", "kind", req.Kind, "link", res.Link)

	if err := p.Clipboard.WriteText(res.Link); err != nil {
		err = asClipboardError("write", err)
		p.Notifier.Notify("Uploaded, but the clipboard could not be updated", res.Link)
		log.Warn("clipboard write-back failed", "err", err)
		return res, err
	}

	p.Notifier.Notify(successTitle(res.Class.Kind), res.Link)
	return res, nil
}

func asClipboardError(op string, err error) error {
	if failure.Is(err, failure.KindClipboard) {
		return err
	}
	return failure.New(failure.KindClipboard, op, err)
}

func (p *Pipeline) fail(log *slog.Logger, stage string, err error) error {
	log.Warn("run failed", "stage", stage, "kind", failure.KindOf(err), "err", err)
	p.Notifier.Notify("Upload failed", Reason(err))
	return fmt.Errorf("%s: %w", stage, err)
}

// BuildRequest turns a non-empty class into an upload request. Images are
// PNG-encoded and file paths are read here; both payloads get their content
// type from their leading bytes.
func BuildRequest(class content.Class, snap content.Snapshot) (upload.Request, error) {
	kind, ok := upload.ForClass(class.Kind)
	if !ok {
		return upload.Request{}, fmt.Errorf("nothing to upload for %s", class.Kind)
	}

	switch class.Kind {
	case content.KindImage:
		data, err := encode.EncodeImage(snap.Image)
		if err != nil {
			return upload.Request{}, err
		}
		sniffed := encode.Sniff(data)
		return upload.Request{Kind: kind, Payload: data, Ext: sniffed.Ext, ContentType: sniffed.MIME}, nil

	case content.KindFilePath:
		data, ext, err := encode.ReadFile(class.Value)
		if err != nil {
			return upload.Request{}, err
		}
		return upload.Request{Kind: kind, Payload: data, Ext: ext, ContentType: encode.Sniff(data).MIME}, nil

	default:
		return upload.Request{Kind: kind, Text: class.Value, ContentType: "application/json"}, nil
	}
}

// Reason renders err as a short user-facing sentence.
func Reason(err error) string {
	switch failure.KindOf(err) {
	case failure.KindEncoding:
		return "The clipboard image could not be encoded."
	case failure.KindIO:
		return "The file could not be read: " + rootCause(err)
	case failure.KindNetwork:
		return "The upload server could not be reached: " + rootCause(err)
	case failure.KindProtocol:
		return "The upload server returned an unexpected answer: " + rootCause(err)
	case failure.KindClipboard:
		return "The clipboard is not available: " + rootCause(err)
	}
	if errors.Is(err, ErrNoEndpoint) {
		return "No upload endpoint is configured."
	}
	return err.Error()
}

func rootCause(err error) string {
	var fe *failure.Error
	if errors.As(err, &fe) && fe.Err != nil {
		return fe.Err.Error()
	}
	return err.Error()
}

func successTitle(k content.Kind) string {
	switch k {
	case content.KindImage:
		return "Image uploaded"
	case content.KindFilePath:
		return "File uploaded"
	case content.KindURL:
		return "Link shortened"
	default:
		return "Text shared"
	}
}

// logClass logs the classification at INFO and a text preview at DEBUG,
// truncated to 120 characters.
func logClass(log *slog.Logger, c content.Class) {
	log.Info("clipboard classified", "kind", c.Kind)
	if c.Value == "" || !log.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	preview := c.Value
	if r := []rune(preview); len(r) > 120 {
		preview = string(r[:120]) + "…"
	}
	log.Debug("clipboard value", "preview", preview)
}
