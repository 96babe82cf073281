package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dashlink/dashlink/internal/app"
	"github.com/dashlink/dashlink/internal/oauth"
	"github.com/dashlink/dashlink/internal/tokenstore"
)

func newAuthURLCmd() *cobra.Command {
	var userID, dataSourceID, finalURL string

	cmd := &cobra.Command{
		Use:   "auth-url <provider>",
		Short: "Print the consent URL for a provider",
		Long: `Prints the provider authorization URL a user would be redirected to.
The provider may be given by name (GOOGLE_DRIVE) or id (googledrive).`,
		Example: `  dashlink auth-url GOOGLE_ANALYTICS --user alice --data-source ds-42`,
		Args:    cobra.ExactArgs(1),
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

			// Building the URL never touches the store.
			manager := app.NewManager(cfg, registry, tokenstore.NewMemoryStore())
			authURL, err := manager.AuthorizationURL(oauth.NewUserContext(userID), provider, dataSourceID, finalURL)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), authURL)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "Application user id (default guest)")
	cmd.Flags().StringVar(&dataSourceID, "data-source", "", "Data source to link the token to")
	cmd.Flags().StringVar(&finalURL, "final-url", "", "Where the browser lands after the callback")
	return cmd
}
