package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"warden/internal/driver"
	"warden/internal/pipeline"
	"warden/internal/source"
	"warden/internal/ui"
)

type verifyOutcome struct {
	fileSet *source.FileSet
	results []driver.UnitResult
	err     error
}

// runVerification dispatches to the interactive progress UI when requested
// and the output device is a terminal, otherwise runs the driver directly.
func runVerification(cmd *cobra.Command, path string, opts driver.Options, wantUI bool) (*source.FileSet, []driver.UnitResult, error) {
	if !wantUI || !isTerminal(os.Stdout) {
		return driver.VerifyPath(cmd.Context(), path, opts)
	}

	files := []string{path}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		listed, lErr := driver.ListUnitFiles(path)
		if lErr != nil {
			return nil, nil, lErr
		}
		files = listed
	}
	if len(files) == 0 {
		return driver.VerifyPath(cmd.Context(), path, opts)
	}

	events := make(chan pipeline.Event, 256)
	outcomeCh := make(chan verifyOutcome, 1)

	go func() {
		optsCopy := opts
		optsCopy.Progress = pipeline.ChannelSink{Ch: events}
		fileSet, results, err := driver.VerifyPath(cmd.Context(), path, optsCopy)
		outcomeCh <- verifyOutcome{fileSet: fileSet, results: results, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(fmt.Sprintf("checking %s", path), files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.fileSet, outcome.results, uiErr
	}
	return outcome.fileSet, outcome.results, outcome.err
}
