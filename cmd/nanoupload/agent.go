package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/nanoupload/internal/clip"
	"go.klb.dev/nanoupload/internal/control"
	"go.klb.dev/nanoupload/internal/dispatch"
	"go.klb.dev/nanoupload/internal/hotkey"
	"go.klb.dev/nanoupload/internal/hotkey/native"
	"go.klb.dev/nanoupload/internal/ipc"
	"go.klb.dev/nanoupload/internal/notify"
	"go.klb.dev/nanoupload/internal/pipeline"
	"go.klb.dev/nanoupload/internal/state"
	"go.klb.dev/nanoupload/internal/upload"
)

func newRunCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the hotkey agent",
		Long: `Starts the nanoupload agent. The agent registers the global hotkey,
listens on the local control socket and uploads the clipboard every time the
hotkey is pressed. Presses that arrive while an upload is already waiting to
start are dropped.

Changes to endpoint and hotkey in the config file are applied without a
restart.

Config file search order:
  /etc/nanoupload/nanoupload.toml
  $HOME/.config/nanoupload/nanoupload.toml
  path supplied via --config

Precedence (lowest → highest): defaults → config file → NANOUPLOAD_* env vars → flags`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(cmd *cobra.Command, _ []string) error { return runAgent(cmd.Context(), v) },
	}

	addUploadFlags(cmd)
	cmd.Flags().String("hotkey", state.DefaultHotkey, "global hotkey, e.g. Ctrl+Shift+U or CmdOrCtrl+U")
	addLoggingFlags(cmd)
	addConfigFlag(cmd)

	return cmd
}

func runAgent(ctx context.Context, v *viper.Viper) error {
	closeLog, err := setupLogging(v)
	defer closeLog()
	if err != nil {
		return err
	}

	ln, err := ipc.Listen()
	if err != nil {
		return fmt.Errorf("control socket %s: %w", ipc.SocketPath(), err)
	}

	backend := clip.New()
	defer backend.Close()

	st := state.New(v.GetString("endpoint"), configuredHotkey(v))
	p := &pipeline.Pipeline{
		Clipboard: backend,
		Uploader:  newUploader(v),
		Notifier:  newNotifier(v),
		Endpoints: st,
	}
	worker := dispatch.New(func(ctx context.Context) error {
		_, err := p.Run(ctx)
		return err
	})

	hotkeys := hotkey.NewManager(openRegistrar(native.NewRegistrar))
	defer func() {
		if err := hotkeys.UnregisterAll(); err != nil {
			slog.Warn("hotkey unregister failed", "err", err)
		}
	}()

	ctl := &control.Controller{
		State:   st,
		Hotkeys: hotkeys,
		Worker:  worker,
		Version: Version,
		Backend: backend.Name(),
		Started: time.Now(),
	}
	if _, err := ctl.SetHotkey(st.Hotkey()); err != nil {
		slog.Warn("hotkey not registered; use \"nanoupload trigger\" instead", "hotkey", st.Hotkey(), "err", err)
	}

	slog.Info("nanoupload agent starting",
		"version", Version,
		"clipboard", backend.Name(),
		"endpoint", st.Endpoint(),
		"hotkey", st.Hotkey(),
		"socket", ipc.SocketPath(),
	)
	if st.Endpoint() == "" {
		slog.Warn("no endpoint configured; set one with \"nanoupload endpoint set <url>\"")
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	watchConfig(v, newReloader(v, ctl))

	go func() {
		if err := ctl.Serve(ctx, ln); err != nil {
			slog.Error("control socket stopped", "err", err)
		}
	}()

	err = worker.Run(ctx)
	slog.Info("nanoupload agent stopped", "stats", worker.Stats())
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// openRegistrar builds the platform hotkey registrar. Without one (no X
// display, unsupported OS) the agent still runs; only the hotkey is missing.
func openRegistrar(open func() (hotkey.Registrar, error)) hotkey.Registrar {
	reg, err := open()
	if err != nil {
		slog.Warn("global hotkeys unavailable; use \"nanoupload trigger\" instead", "err", err)
		return hotkey.Unavailable(err)
	}
	return reg
}

// watchConfig re-applies endpoint and hotkey whenever the config file
// changes. Viper re-reads the file before calling back.
func watchConfig(v *viper.Viper, r *reloader) {
	if v.ConfigFileUsed() == "" {
		slog.Debug("no config file, hot reload disabled")
		return
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		slog.Debug("config file changed", "path", e.Name, "op", e.Op.String())
		r.apply()
	})
	v.WatchConfig()
	slog.Debug("watching config file", "path", v.ConfigFileUsed())
}

// reloader pushes config-file edits into the running agent. Only values that
// differ from the previous load are applied, so a runtime "endpoint set" or
// "hotkey set" survives edits to unrelated keys.
type reloader struct {
	v   *viper.Viper
	ctl *control.Controller

	endpoint string
	hotkey   string
}

func newReloader(v *viper.Viper, ctl *control.Controller) *reloader {
	return &reloader{
		v:        v,
		ctl:      ctl,
		endpoint: v.GetString("endpoint"),
		hotkey:   canonicalHotkey(configuredHotkey(v)),
	}
}

func (r *reloader) apply() {
	if endpoint := r.v.GetString("endpoint"); endpoint != r.endpoint {
		r.endpoint = endpoint
		r.ctl.SetEndpoint(endpoint)
	}

	spec := configuredHotkey(r.v)
	if canonicalHotkey(spec) == r.hotkey {
		return
	}
	r.hotkey = canonicalHotkey(spec)
	if _, err := r.ctl.SetHotkey(spec); err != nil {
		slog.Warn("config: hotkey not applied", "hotkey", spec, "err", err)
	}
}

// canonicalHotkey normalises spec for comparison; unparsable specs compare
// as written.
func canonicalHotkey(spec string) string {
	if c, err := hotkey.Parse(spec); err == nil {
		return c.String()
	}
	return spec
}

func newUploader(v *viper.Viper) *upload.Client {
	timeout := v.GetDuration("upload-timeout")
	if timeout <= 0 {
		timeout = upload.DefaultTimeout
	}
	return upload.New(
		upload.WithTimeout(timeout),
		upload.WithUserAgent("nanoupload/"+Version),
	)
}

func newNotifier(v *viper.Viper) notify.Sink {
	if v.GetBool("no-notify") {
		return notify.Log{}
	}
	return notify.Multi{notify.Log{}, notify.NewDesktop("")}
}
