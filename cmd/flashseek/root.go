package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dt10812/FlashSeekBrowse/internal/omnibox"
	"github.com/dt10812/FlashSeekBrowse/internal/settings"
)

// VersionCmd prints the build version.
func VersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the FlashSeek version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("flashseek %s\n", AppVersion)
		},
	}
}

// ResolveCmd classifies address-bar input without opening a window.
// Handy for checking what a given string would load.
func ResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <input>",
		Short: "Show the URL an address-bar input resolves to",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			engine, ok := settings.ParseSearchEngine(ShellConfig.SearchEngine)
			if !ok {
				engine = settings.DuckDuckGo
			}
			r := omnibox.NewResolver(ShellConfig.HomeURL)
			target, err := r.Resolve(args[0], engine)
			if err != nil {
				fmt.Fprintf(os.Stderr, "not a valid address or search: %q\n", args[0])
				os.Exit(1)
			}
			fmt.Println(target)
		},
	}
}
