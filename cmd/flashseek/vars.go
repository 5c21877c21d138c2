package cli

import (
	"github.com/spf13/cobra"

	"github.com/dt10812/FlashSeekBrowse/internal/config"
)

// AppVersion is stamped at build time via -ldflags.
var AppVersion = "dev"

// Shared CLI flags (used across multiple command files)
var (
	cfgFile string
	homeURL string
	verbose bool
)

// ShellConfig holds the loaded browser configuration (set by main)
var ShellConfig *config.Config

// SetupRootCmd configures the root command with all subcommands and flags
func SetupRootCmd(c *config.Config) *cobra.Command {
	ShellConfig = c

	rootCmd := &cobra.Command{
		Use:   "flashseek",
		Short: "FlashSeek - a lightweight tabbed browser",
		Long: `FlashSeek is a tabbed browser over the native platform webview with
anti-fingerprinting script injection and an HTTPS-upgrade gate.

Just type 'flashseek' to open the browser window.`,
		Run: func(cmd *cobra.Command, args []string) {
			if homeURL != "" {
				ShellConfig.HomeURL = homeURL
			}
			RunDesktop(args)
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: embedded defaults)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Root-only flags
	rootCmd.Flags().StringVar(&homeURL, "home", "", "override the home page URL")

	rootCmd.AddCommand(VersionCmd())
	rootCmd.AddCommand(ResolveCmd())

	return rootCmd
}
