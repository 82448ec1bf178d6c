package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"go.klb.dev/nanoupload/internal/message"
)

func newTriggerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "trigger",
		Short: "Press the hotkey from the command line",
		Long: `Asks the running agent to upload the clipboard, exactly as if the hotkey
had been pressed. Useful as a window-manager keybinding on systems where the
agent cannot grab a global hotkey itself.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reply, err := ask(cmd.Context(), &message.Message{Type: message.TypeTrigger})
			if err != nil {
				return err
			}
			if reply.Accepted != nil && !*reply.Accepted {
				fmt.Fprintln(cmd.ErrOrStderr(), "an upload is already pending; trigger dropped")
			}
			return nil
		},
	}
}
