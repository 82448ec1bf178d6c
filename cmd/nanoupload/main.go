// nanoupload: share the clipboard with one keystroke.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"go.klb.dev/nanoupload/internal/logging"
)

// Version is set at build time via -ldflags "-X main.Version=x.y.z".
var Version = "dev"

func execute() {
	root := newRootCmd()
	if err := root.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "nanoupload",
		Short: "Upload the clipboard with a global hotkey",
		Long: `nanoupload captures the system clipboard when its hotkey is pressed,
works out what it holds (image, link, file path or text) and sends it to an
upload service. The resulting link replaces the clipboard contents.

Run "nanoupload run" to start the agent. The endpoint, hotkey, trigger and
status commands talk to a running agent over its local control socket.

Config file search order (first found wins):
  /etc/nanoupload/nanoupload.toml
  $HOME/.config/nanoupload/nanoupload.toml
  path supplied via --config

All flags can be set via NANOUPLOAD_<FLAG> env vars or config-file keys.
See "nanoupload run --help" for the full flag reference.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newRunCmd(),
		newUploadCmd(),
		newEndpointCmd(),
		newHotkeyCmd(),
		newTriggerCmd(),
		newStatusCmd(),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "nanoupload %s\n", Version)
		},
	}
}

// resolveLogging sets up the global slog logger after flags are parsed.
func resolveLogging(interactive bool, formatStr, levelStr string, w *os.File) {
	format := logging.ParseFormat(formatStr)
	level := logging.ParseLevel(levelStr)
	if levelStr == "" {
		if interactive {
			level = logging.ParseLevel("debug")
		} else {
			level = logging.ParseLevel("info")
		}
	}
	logging.Setup(w, format, level)
}
