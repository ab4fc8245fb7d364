package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"warden/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "warden",
	Short: "Warden ownership and borrow verifier",
	Long:  `Warden checks compiler-produced IR units against the single-owner, move-on-assignment, shared-vs-unique borrowing discipline`,
}

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Int("max-diagnostics", 100, "maximum number of diagnostics to keep per unit")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// useColor resolves the --color tri-state against the actual output device.
func useColor(mode string, out *os.File) bool {
	switch mode {
	case "on":
		return true
	case "off":
		return false
	default:
		return isTerminal(out)
	}
}
