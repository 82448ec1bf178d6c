package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"go.klb.dev/nanoupload/internal/hotkey"
	"go.klb.dev/nanoupload/internal/message"
)

func newHotkeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hotkey",
		Short: "Show or change the running agent's global hotkey",
		Long: `Reads or replaces the global hotkey of the running agent. Setting a new
hotkey unregisters the old one first; if the new combination cannot be
registered the agent is left without a hotkey until the next successful set.

Combinations are modifiers and one key joined by "+", for example:
  Ctrl+U  Ctrl+Shift+F5  CmdOrCtrl+Space  Alt+Super+9`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "get",
			Short: "Print the current hotkey",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				reply, err := ask(cmd.Context(), &message.Message{Type: message.TypeGetHotkey})
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), reply.Hotkey)
				return nil
			},
		},
		&cobra.Command{
			Use:   "set <combo>",
			Short: "Register a new hotkey",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				// Reject typos locally instead of unbinding the agent's key.
				if _, err := hotkey.Parse(args[0]); err != nil {
					return err
				}
				reply, err := ask(cmd.Context(), &message.Message{Type: message.TypeSetHotkey, Hotkey: args[0]})
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), reply.Hotkey)
				return nil
			},
		},
	)
	return cmd
}
