package wire

import (
	"net"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.klb.dev/nanoupload/internal/message"
)

func pipe(t *testing.T) (*Conn, net.Conn) {
	t.Helper()
	a, b := net.Pipe()
	t.Cleanup(func() {
		_ = a.Close()
		_ = b.Close()
	})
	return New(a), b
}

func TestWriteMsgFraming(t *testing.T) {
	c, raw := pipe(t)

	go func() {
		_ = c.WriteMsg(&message.Message{Type: message.TypeSetEndpoint, Endpoint: "https://up.example"})
	}()

	buf := make([]byte, 256)
	n, err := raw.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, `{"type":"SET_ENDPOINT","endpoint":"https://up.example"}`+"\n", string(buf[:n]))
}

func TestReadMsg(t *testing.T) {
	c, raw := pipe(t)

	go func() {
		_, _ = raw.Write([]byte(`{"type":"SET_HOTKEY","hotkey":"Ctrl+Shift+U"}` + "\n" + `{"type":"STATUS"}` + "\n"))
	}()

	msg, err := c.ReadMsg()
	require.NoError(t, err)
	assert.Equal(t, message.TypeSetHotkey, msg.Type)
	assert.Equal(t, "Ctrl+Shift+U", msg.Hotkey)

	msg, err = c.ReadMsg()
	require.NoError(t, err)
	assert.Equal(t, message.TypeStatus, msg.Type)
}

func TestReadMsgSpansBuffer(t *testing.T) {
	c, raw := pipe(t)
	long := "https://up.example/" + strings.Repeat("a", 10*1024)

	go func() {
		_, _ = raw.Write([]byte(`{"type":"SET_ENDPOINT","endpoint":"` + long + `"}` + "\n"))
	}()

	msg, err := c.ReadMsg()
	require.NoError(t, err)
	assert.Equal(t, long, msg.Endpoint)
}

func TestReadMsgTooLarge(t *testing.T) {
	c, raw := pipe(t)

	go func() {
		_, _ = raw.Write([]byte(strings.Repeat("x", MaxMessageSize+10) + "\n"))
	}()

	_, err := c.ReadMsg()
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestReadMsgGarbage(t *testing.T) {
	c, raw := pipe(t)

	go func() {
		_, _ = raw.Write([]byte("not json\n"))
	}()

	_, err := c.ReadMsg()
	assert.Error(t, err)
}
