package commands

import (
	"errors"
	"io"
	"os"
	"time"

	"hephix-backend/internal/app"
	"hephix-backend/internal/components/telemetry"
	"hephix-backend/internal/session"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var refreshSession *bool

func init() {
	refreshSession = sessionCmd.Flags().Bool("refresh", false, "Drop any cached credential before acquiring.")
	rootCmd.AddCommand(sessionCmd)
}

var sessionCmd = &cobra.Command{
	Use:   "session [--refresh]",
	Short: "Acquires a darel.lv browser session and prints its cookies.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		sessions := app.NewSessions(cfg, telemetry.SlogAPI{})
		if *refreshSession {
			sessions.Invalidate()
		}

		cred, ok := sessions.Credential(cmd.Context())
		if !ok {
			return errors.New("no session could be acquired, see the log for details")
		}
		renderCredential(os.Stdout, cred)
		return nil
	},
}

func renderCredential(w io.Writer, cred session.Credential) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Cookie", "Domain", "Path", "Value"})
	for _, c := range cred.Cookies {
		t.AppendRow(table.Row{c.Name, c.Domain, c.Path, c.Value})
	}
	t.AppendFooter(table.Row{"Expires", cred.ExpiresAt().Format(time.RFC3339)})
	t.SetStyle(table.StyleRounded)
	t.Render()
}
