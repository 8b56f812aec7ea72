package commands

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Harsh-BH/edgeclassify/internal/client"
)

const defaultServer = "http://localhost:8080"

var settings = viper.New()

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "classifyctl",
	Short: "Submit object classification jobs to edge devices and poll for results",
	Long: `classifyctl talks to the edge classification API.

A submitted job is handed to the device and returns at once with a
correlation ID. The annotated image appears later; use "poll" to check
for it or wait until it arrives.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
	FParseErrWhitelist: cobra.FParseErrWhitelist{},
}

// Execute runs the root command.
func Execute() error {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	return rootCmd.Execute()
}

// SetVersion sets the version reported by --version.
func SetVersion(v string) {
	rootCmd.Version = v
}

func newClient() *client.Client {
	return client.New(settings.GetString("server"))
}

func init() {
	rootCmd.PersistentFlags().String("server", defaultServer, "API base URL (env CLASSIFY_SERVER)")
	settings.BindPFlag("server", rootCmd.PersistentFlags().Lookup("server"))
	settings.BindEnv("server", "CLASSIFY_SERVER")
}
