package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/nanoupload/internal/ipc"
	"go.klb.dev/nanoupload/internal/message"
)

func newStatusCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the running agent's settings and counters",
		Long: `Displays the endpoint, hotkey and upload counters of the running agent,
queried over the local control socket.`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(cmd *cobra.Command, _ []string) error {
			reply, err := ask(cmd.Context(), &message.Message{Type: message.TypeStatus})
			if err != nil {
				return err
			}
			if reply.Status == nil {
				return fmt.Errorf("status: empty reply")
			}
			if v.GetBool("json") {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(reply.Status)
			}
			printStatus(cmd.OutOrStdout(), reply.Status, time.Now())
			return nil
		},
	}

	cmd.Flags().Bool("json", false, "output raw JSON")
	addConfigFlag(cmd)

	return cmd
}

func printStatus(out io.Writer, s *message.Status, now time.Time) {
	w := newTabWriter(out)

	endpoint := s.Endpoint
	if endpoint == "" {
		endpoint = "(not set)"
	}
	hk := s.Hotkey
	if !s.Bound {
		hk += " (not registered)"
	}

	fmt.Fprintf(w, "Version:\t%s\n", s.Version)
	fmt.Fprintf(w, "Socket:\t%s\n", ipc.SocketPath())
	if !s.StartedAt.IsZero() {
		fmt.Fprintf(w, "Started:\t%s (%s)\n", s.StartedAt.UTC().Format(time.RFC3339), fmtAge(s.StartedAt, now))
	}
	fmt.Fprintf(w, "Clipboard:\t%s\n", s.Backend)
	fmt.Fprintf(w, "Endpoint:\t%s\n", endpoint)
	fmt.Fprintf(w, "Hotkey:\t%s\n", hk)
	fmt.Fprintf(w, "Worker:\t%s\n", s.Worker.State)
	fmt.Fprintln(w)
	_ = w.Flush()

	tw := newTabWriter(out)
	_, _ = fmt.Fprintf(tw, "ACCEPTED\tDROPPED\tCOMPLETED\tFAILED\n")
	_, _ = fmt.Fprintf(tw, "--------\t-------\t---------\t------\n")
	_, _ = fmt.Fprintf(tw, "%d\t%d\t%d\t%d\n",
		s.Worker.Accepted, s.Worker.Dropped, s.Worker.Completed, s.Worker.Failed)
	_ = tw.Flush()
}

func fmtAge(t, now time.Time) string {
	age := now.Sub(t).Round(time.Second)
	if age < time.Minute {
		return fmt.Sprintf("%ds ago", int(age.Seconds()))
	}
	if age < time.Hour {
		return fmt.Sprintf("%dm ago", int(age.Minutes()))
	}
	return t.Format("15:04:05")
}

func newTabWriter(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 1, 0, 2, ' ', 0)
}
