//go:build !desktop

package cli

import (
	"fmt"
	"os"
)

// RunDesktop requires native webview support. Build with -tags desktop.
func RunDesktop(args []string) {
	fmt.Println("This build has no native webview support.")
	fmt.Println("Rebuild with: go build -tags desktop ./...")
	os.Exit(1)
}
