package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/nanoupload/internal/logging"
	"go.klb.dev/nanoupload/internal/state"
	"go.klb.dev/nanoupload/internal/upload"
)

// bindViper wires a command's flags into a viper instance with the standard
// config file search order and NANOUPLOAD_* env var prefix.
//
// Precedence (lowest → highest): defaults → config file → NANOUPLOAD_* env vars → flags
// Dashes in keys become underscores in env names: NANOUPLOAD_UPLOAD_TIMEOUT.
func bindViper(cmd *cobra.Command, v *viper.Viper) error {
	configFlag, _ := cmd.Flags().GetString("config")
	if configFlag != "" {
		v.SetConfigFile(configFlag)
	} else {
		v.SetConfigName("nanoupload")
		v.SetConfigType("toml")
		v.AddConfigPath("/etc/nanoupload/")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(fmt.Sprintf("%s/.config/nanoupload", home))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("config: %w", err)
		}
	}

	v.SetEnvPrefix("NANOUPLOAD")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}
	return nil
}

// addLoggingFlags adds the standard logging flags to a command.
func addLoggingFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("no-background", false, "run interactively: tinter logs + debug level")
	cmd.Flags().String("log-format", "auto", "log format: auto|text|json")
	cmd.Flags().String("log-level", "", "log level: debug|info|warn|error (default: info for service, debug for interactive)")
	cmd.Flags().String("log-file", "", "append logs to this file instead of stderr")
}

// addConfigFlag adds the --config flag to a command.
func addConfigFlag(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "path to config file (overrides auto-discovery)")
}

// addUploadFlags adds the flags shared by every command that uploads.
func addUploadFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("endpoint", "", "upload service base URL")
	f.Duration("upload-timeout", upload.DefaultTimeout, "per-upload HTTP timeout")
	f.Bool("no-notify", false, "log notifications instead of showing them on the desktop")
}

// setupLogging reads logging flags from viper and configures slog. The
// returned func closes the log file, if one was opened.
func setupLogging(v *viper.Viper) (func(), error) {
	out := os.Stderr
	closeFn := func() {}
	if path := v.GetString("log-file"); path != "" {
		f, err := logging.OpenFile(path)
		if err != nil {
			return closeFn, err
		}
		out, closeFn = f, func() { _ = f.Close() }
	}
	interactive := v.GetBool("no-background") || logging.IsTTY(out)
	resolveLogging(interactive, v.GetString("log-format"), v.GetString("log-level"), out)
	return closeFn, nil
}

// configuredHotkey returns the hotkey setting, falling back to the default.
func configuredHotkey(v *viper.Viper) string {
	if hk := v.GetString("hotkey"); hk != "" {
		return hk
	}
	return state.DefaultHotkey
}
