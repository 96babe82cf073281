package cmd

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/dashlink/dashlink/internal/app"
	"github.com/dashlink/dashlink/internal/oauth"
)

func newCredentialsCmd() *cobra.Command {
	var userID string
	var showToken bool

	cmd := &cobra.Command{
		Use:   "credentials <provider> <dataSourceId>",
		Short: "Resolve the bearer credential of a data source",
		Long: `Resolves the credential linked to a data source, refreshing the token
when it is about to expire. The access token is redacted unless
--show-token is given.

Only meaningful with the file or redis token store, since the memory store
starts empty.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, err := oauth.ParseProviderType(args[0])
			if err != nil {
				return err
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			registry, _, err := app.LoadRegistry(cfg)
			if err != nil {
				return err
			}

			store, err := app.OpenStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			manager := app.NewManager(cfg, registry, store.Store)
			user := oauth.NewUserContext(userID)
			cred := manager.ResolveCredentials(cmd.Context(), user, args[1], provider)
			if cred == nil {
				return fmt.Errorf("%w: %s/%s", errNoCredentials, provider, args[1])
			}

			token := oauth.NewRedactedToken(cred.AccessToken).Hint()
			if showToken {
				token = cred.AccessToken
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleRounded)
			t.AppendRow(table.Row{"Provider", provider})
			t.AppendRow(table.Row{"Data source", args[1]})
			t.AppendRow(table.Row{"User", cred.UserID})
			t.AppendRow(table.Row{"Access token", token})
			if stored, err := store.Store.GetDataSourceToken(cmd.Context(), user.EffectiveID(), args[1], provider); err == nil && stored != nil {
				t.AppendRow(table.Row{"Token id", stored.ID})
				t.AppendRow(table.Row{"Expires", expiresLabel(stored)})
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "Application user id (default guest)")
	cmd.Flags().BoolVar(&showToken, "show-token", false, "Print the access token in clear text")
	return cmd
}

func expiresLabel(t *oauth.Token) string {
	if t.Expiration == 0 {
		return "never"
	}
	return t.ExpiresAt().UTC().Format(time.RFC3339)
}
