package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/nanoupload/internal/clip"
	"go.klb.dev/nanoupload/internal/content"
	"go.klb.dev/nanoupload/internal/failure"
	"go.klb.dev/nanoupload/internal/pipeline"
	"go.klb.dev/nanoupload/internal/state"
)

func newUploadCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "upload [file]",
		Short: "Upload the clipboard (or a file) once, without the agent",
		Long: `Runs a single upload in this process and prints the resulting link.

With no argument the clipboard is captured and classified exactly as on a
hotkey press. With a file argument that file is uploaded instead. In both
cases the link is written back to the clipboard when one is available.`,
		Args:    cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpload(cmd.Context(), cmd, v, args)
		},
	}

	addUploadFlags(cmd)
	addLoggingFlags(cmd)
	addConfigFlag(cmd)

	return cmd
}

func runUpload(ctx context.Context, cmd *cobra.Command, v *viper.Viper, args []string) error {
	closeLog, err := setupLogging(v)
	defer closeLog()
	if err != nil {
		return err
	}

	backend := clip.New()
	defer backend.Close()

	var cb clip.Backend = backend
	if len(args) == 1 {
		path, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}
		fi, err := os.Stat(path)
		if err != nil {
			return err
		}
		if !fi.Mode().IsRegular() {
			return fmt.Errorf("%s: not a regular file", path)
		}
		cb = fileClipboard{Backend: backend, path: path}
	}

	p := &pipeline.Pipeline{
		Clipboard: cb,
		Uploader:  newUploader(v),
		Notifier:  newNotifier(v),
		Endpoints: state.New(v.GetString("endpoint"), ""),
	}
	res, err := p.Run(ctx)
	if res.Link == "" {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), res.Link)
	// The link is on stdout; a clipboard that refused it is not a failure here.
	if failure.Is(err, failure.KindClipboard) {
		return nil
	}
	return err
}

// fileClipboard presents a file path as the clipboard contents while still
// writing the link back to the real clipboard.
type fileClipboard struct {
	clip.Backend
	path string
}

func (f fileClipboard) Read() (content.Snapshot, error) {
	return content.TextSnapshot(f.path), nil
}
