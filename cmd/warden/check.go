package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"warden/internal/check"
	"warden/internal/diagfmt"
	"warden/internal/driver"
	"warden/internal/ir"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] <unit.wir|unit.wir.json|directory>",
	Short: "Verify ownership and borrowing rules for IR units",
	Long:  `Verify one unit file or every unit file within a directory against the ownership and borrowing rules, reporting each violation with its location`,
	Args:  cobra.ExactArgs(1),
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().String("format", "pretty", "output format (pretty|json)")
	checkCmd.Flags().Int("jobs", 0, "max parallel workers for directory processing (0=auto)")
	checkCmd.Flags().Bool("with-notes", false, "include diagnostic notes in output")
	checkCmd.Flags().Bool("emit-events", false, "emit the checker's debug event stream after diagnostics")
	checkCmd.Flags().Bool("disk-cache", false, "enable persistent disk cache for unit verdicts")
	checkCmd.Flags().Bool("ui", false, "show interactive progress for directory processing")
	checkCmd.Flags().Bool("fullpath", false, "emit absolute file paths in output")
}

func runCheck(cmd *cobra.Command, args []string) error {
	path := args[0]

	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	withNotes, err := cmd.Flags().GetBool("with-notes")
	if err != nil {
		return fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	emitEvents, err := cmd.Flags().GetBool("emit-events")
	if err != nil {
		return fmt.Errorf("failed to get emit-events flag: %w", err)
	}
	useDiskCache, err := cmd.Flags().GetBool("disk-cache")
	if err != nil {
		return fmt.Errorf("failed to get disk-cache flag: %w", err)
	}
	withUI, err := cmd.Flags().GetBool("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	fullPath, err := cmd.Flags().GetBool("fullpath")
	if err != nil {
		return fmt.Errorf("failed to get fullpath flag: %w", err)
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	colorMode, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return fmt.Errorf("failed to get color flag: %w", err)
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return fmt.Errorf("failed to get quiet flag: %w", err)
	}

	// Manifest values fill in whatever the command line left at defaults.
	if manifest, ok, mErr := loadProjectManifest(manifestStartDir(path)); mErr != nil {
		return mErr
	} else if ok {
		if !cmd.Flags().Changed("format") && manifest.Config.Check.Format != "" {
			format = manifest.Config.Check.Format
		}
		if !cmd.Flags().Changed("jobs") && manifest.Config.Check.Jobs > 0 {
			jobs = manifest.Config.Check.Jobs
		}
		if !cmd.Root().PersistentFlags().Changed("max-diagnostics") && manifest.Config.Check.MaxDiagnostics > 0 {
			maxDiagnostics = manifest.Config.Check.MaxDiagnostics
		}
	}

	if format != "pretty" && format != "json" {
		return fmt.Errorf("unknown format %q (want pretty or json)", format)
	}

	opts := driver.Options{
		MaxDiagnostics: maxDiagnostics,
		Jobs:           jobs,
		RecordEvents:   emitEvents,
	}
	if useDiskCache {
		cache, cErr := driver.OpenDiskCache("warden")
		if cErr != nil {
			return fmt.Errorf("failed to open disk cache: %w", cErr)
		}
		opts.Cache = cache
	}

	fileSet, results, err := runVerification(cmd, path, opts, withUI && !quiet && format == "pretty")
	if err != nil {
		return err
	}

	pathMode := diagfmt.PathModeRelative
	if fullPath {
		pathMode = diagfmt.PathModeAbsolute
	}

	merged := driver.MergeBags(results)
	switch format {
	case "json":
		jErr := diagfmt.JSON(os.Stdout, merged, fileSet, diagfmt.JSONOpts{
			PathMode:     pathMode,
			IncludeNotes: withNotes,
		})
		if jErr != nil {
			return fmt.Errorf("failed to encode diagnostics: %w", jErr)
		}
	case "pretty":
		diagfmt.Pretty(os.Stdout, merged, fileSet, diagfmt.PrettyOpts{
			Color:     useColor(colorMode, os.Stdout),
			PathMode:  pathMode,
			ShowNotes: withNotes,
		})
		if !quiet {
			printSummary(results)
		}
	}

	if emitEvents {
		printEvents(results)
	}

	if merged.HasErrors() {
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		return fmt.Errorf("") // Silent error - diagnostics already printed
	}
	return nil
}

func manifestStartDir(path string) string {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return path
	}
	return filepath.Dir(path)
}

func printSummary(results []driver.UnitResult) {
	clean := 0
	broken := 0
	cached := 0
	for _, r := range results {
		if r.Bag.HasErrors() {
			broken++
		} else {
			clean++
		}
		if r.FromCache {
			cached++
		}
	}
	fmt.Printf("checked %d unit(s): %d ok, %d with violations", len(results), clean, broken)
	if cached > 0 {
		fmt.Printf(" (%d from cache)", cached)
	}
	fmt.Println()
}

func printEvents(results []driver.UnitResult) {
	for _, r := range results {
		if len(r.Events) == 0 {
			continue
		}
		fmt.Printf("events for %s:\n", r.Path)
		for _, ev := range r.Events {
			fmt.Printf("  %s%s\n", ev.Kind, describeEvent(r, ev))
		}
	}
}

func describeEvent(r driver.UnitResult, ev check.Event) string {
	out := ""
	if ev.Stmt != ir.NoStmtID {
		out += fmt.Sprintf(" stmt=%d", ev.Stmt)
	}
	if ev.Binding.IsValid() && r.Unit != nil {
		out += fmt.Sprintf(" binding=%d", ev.Binding)
	}
	if ev.Ref.IsValid() {
		out += fmt.Sprintf(" ref=%d", ev.Ref)
	}
	return out
}
