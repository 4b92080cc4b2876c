package root

import (
	"github.com/crucial707/sqlgate/cmd/cli/client"
	"github.com/crucial707/sqlgate/cmd/cli/config"
	"github.com/spf13/cobra"
)

var apiURL string

// Exported RootCmd
var RootCmd = &cobra.Command{
	Use:           "sqlgate",
	Short:         "sqlgate CLI",
	Long:          "Command line interface for the sqlgate user API and SQL gateway",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	RootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "API base URL (default $SQLGATE_API_URL or "+config.DefaultAPIURL+")")
}

// GetRoot returns the RootCmd.
func GetRoot() *cobra.Command {
	return RootCmd
}

// Client returns an API client for the URL chosen by flag or environment.
func Client() *client.Client {
	if apiURL != "" {
		return client.New(apiURL)
	}
	return client.New(config.APIURL())
}
