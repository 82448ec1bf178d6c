package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"go.klb.dev/nanoupload/internal/message"
)

func newEndpointCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "endpoint",
		Short: "Show or change the running agent's upload endpoint",
		Long: `Reads or replaces the upload endpoint of the running agent. The change
takes effect from the next upload and is not written to the config file.`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "get",
			Short: "Print the current endpoint",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				reply, err := ask(cmd.Context(), &message.Message{Type: message.TypeGetEndpoint})
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), reply.Endpoint)
				return nil
			},
		},
		&cobra.Command{
			Use:   "set <url>",
			Short: "Replace the endpoint",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				_, err := ask(cmd.Context(), &message.Message{Type: message.TypeSetEndpoint, Endpoint: args[0]})
				return err
			},
		},
	)
	return cmd
}
