package cmd

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/dashlink/dashlink/internal/app"
	"github.com/dashlink/dashlink/internal/oauth"
	strutil "github.com/dashlink/dashlink/pkg/strings"
)

func newProvidersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List the configured OAuth providers",
		Long: `Lists every supported provider together with its client registration.
Registrations that were skipped because they are incomplete are reported
below the table.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			registry, warnings, err := app.LoadRegistry(cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			t := table.NewWriter()
			t.SetOutputMirror(out)
			t.SetStyle(table.StyleRounded)
			t.AppendHeader(table.Row{"Provider", "ID", "Status", "Client ID", "Redirect URI", "Scope"})
			for _, p := range oauth.AllProviderTypes() {
				s, ok := registry.Get(p)
				if !ok {
					t.AppendRow(table.Row{p, p.ProviderID(), text.FgHiBlack.Sprint("not configured"), "", "", ""})
					continue
				}
				scope := strutil.TruncateCell(strutil.CompactScope(s.Scope), strutil.DefaultCellMaxLen)
				t.AppendRow(table.Row{p, p.ProviderID(), text.FgGreen.Sprint("configured"), s.ClientID, s.RedirectURI, scope})
			}
			t.Render()

			if warnings.HasErrors() {
				fmt.Fprintln(out, text.FgYellow.Sprint(warnings.GetDetailedReport()))
			}
			return nil
		},
	}
}
