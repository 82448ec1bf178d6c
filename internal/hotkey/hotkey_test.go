package hotkey

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		spec string
		want Combo
	}{
		{"Ctrl+U", Combo{Ctrl: true, Key: "U"}},
		{"ctrl + shift + u", Combo{Ctrl: true, Shift: true, Key: "U"}},
		{"Cmd+Option+F5", Combo{Super: true, Alt: true, Key: "F5"}},
		{"CommandOrControl+Shift+9", Combo{CmdOrCtrl: true, Shift: true, Key: "9"}},
		{"Alt+Space", Combo{Alt: true, Key: "Space"}},
		{"Win+Return", Combo{Super: true, Key: "Enter"}},
		{"Control+F12", Combo{Ctrl: true, Key: "F12"}},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			got, err := Parse(tt.spec)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseErrors(t *testing.T) {
	for _, spec := range []string{
		"",
		"U",
		"Ctrl+",
		"Ctrl++U",
		"Ctrl+U+I",
		"Ctrl+Shift",
		"Ctrl+F13",
		"Ctrl+F0",
		"Ctrl+F01",
		"Ctrl+Hyper",
		"Ctrl+@",
	} {
		_, err := Parse(spec)
		assert.Error(t, err, spec)
	}
}

func TestComboString(t *testing.T) {
	c, err := Parse("shift+ctrl+alt+super+u")
	require.NoError(t, err)
	assert.Equal(t, "Ctrl+Shift+Alt+Super+U", c.String())

	c, err = Parse("cmdorctrl+f2")
	require.NoError(t, err)
	assert.Equal(t, "CmdOrCtrl+F2", c.String())
}

type fakeBinding struct {
	reg   *fakeRegistrar
	combo Combo
	fn    func()
}

func (b *fakeBinding) Unregister() error {
	b.reg.mu.Lock()
	defer b.reg.mu.Unlock()
	b.reg.log = append(b.reg.log, "unregister "+b.combo.String())
	delete(b.reg.live, b)
	return b.reg.unregisterErr
}

type fakeRegistrar struct {
	mu            sync.Mutex
	live          map[*fakeBinding]struct{}
	log           []string
	registerErr   error
	unregisterErr error
}

func newFakeRegistrar() *fakeRegistrar {
	return &fakeRegistrar{live: make(map[*fakeBinding]struct{})}
}

func (r *fakeRegistrar) Register(c Combo, fn func()) (Binding, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.registerErr != nil {
		return nil, r.registerErr
	}
	b := &fakeBinding{reg: r, combo: c, fn: fn}
	r.live[b] = struct{}{}
	r.log = append(r.log, "register "+c.String())
	return b, nil
}

func (r *fakeRegistrar) liveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.live)
}

func (r *fakeRegistrar) press() {
	r.mu.Lock()
	var fns []func()
	for b := range r.live {
		fns = append(fns, b.fn)
	}
	r.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func TestRebindReplacesBinding(t *testing.T) {
	reg := newFakeRegistrar()
	m := NewManager(reg)
	var presses []string

	_, err := m.Rebind("Ctrl+U", func() { presses = append(presses, "old") })
	require.NoError(t, err)
	c, err := m.Rebind("Ctrl+Shift+K", func() { presses = append(presses, "new") })
	require.NoError(t, err)

	assert.Equal(t, "Ctrl+Shift+K", c.String())
	assert.Equal(t, 1, reg.liveCount())
	assert.Equal(t, []string{"register Ctrl+U", "unregister Ctrl+U", "register Ctrl+Shift+K"}, reg.log)

	reg.press()
	assert.Equal(t, []string{"new"}, presses)

	active, ok := m.Active()
	assert.True(t, ok)
	assert.Equal(t, c, active)
}

func TestRebindParseErrorKeepsBinding(t *testing.T) {
	reg := newFakeRegistrar()
	m := NewManager(reg)
	_, err := m.Rebind("Ctrl+U", func() {})
	require.NoError(t, err)

	_, err = m.Rebind("Ctrl+Nope", func() {})
	require.Error(t, err)
	assert.Equal(t, 1, reg.liveCount())
	active, ok := m.Active()
	assert.True(t, ok)
	assert.Equal(t, "Ctrl+U", active.String())
}

func TestRebindRegisterFailureLeavesNothing(t *testing.T) {
	reg := newFakeRegistrar()
	m := NewManager(reg)
	_, err := m.Rebind("Ctrl+U", func() {})
	require.NoError(t, err)

	reg.registerErr = errors.New("combo taken by another app")
	_, err = m.Rebind("Ctrl+T", func() {})
	require.Error(t, err)
	assert.Equal(t, 0, reg.liveCount())
	_, ok := m.Active()
	assert.False(t, ok)
}

func TestRebindUnregisterErrorStillReplaces(t *testing.T) {
	reg := newFakeRegistrar()
	m := NewManager(reg)
	_, err := m.Rebind("Ctrl+U", func() {})
	require.NoError(t, err)

	reg.unregisterErr = errors.New("already gone")
	_, err = m.Rebind("Ctrl+I", func() {})
	require.NoError(t, err)
	assert.Equal(t, 1, reg.liveCount())
}

func TestConcurrentRebindKeepsOneBinding(t *testing.T) {
	reg := newFakeRegistrar()
	m := NewManager(reg)
	specs := []string{"Ctrl+A", "Ctrl+B", "Ctrl+C", "Alt+D", "Shift+E"}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = m.Rebind(specs[i%len(specs)], func() {})
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, reg.liveCount())

	require.NoError(t, m.UnregisterAll())
	assert.Equal(t, 0, reg.liveCount())
}

func TestUnavailableRegistrar(t *testing.T) {
	cause := errors.New("no X display")
	m := NewManager(Unavailable(cause))

	_, err := m.Rebind("Ctrl+U", func() {})
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	_, ok := m.Active()
	assert.False(t, ok)
}
