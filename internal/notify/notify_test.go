package notify

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMultiFansOutInOrder(t *testing.T) {
	var got []string
	rec := func(tag string) Sink {
		return Func(func(title, body string) { got = append(got, tag+":"+title+":"+body) })
	}
	Multi{rec("a"), rec("b")}.Notify("Uploaded", "https://x/1")
	assert.Equal(t, []string{"a:Uploaded:https://x/1", "b:Uploaded:https://x/1"}, got)
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	Log{}.Notify("Upload failed", "network error")
	assert.Contains(t, buf.String(), `title="Upload failed"`)
	assert.Contains(t, buf.String(), `body="network error"`)
}
