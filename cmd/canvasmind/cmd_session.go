package main

import (
	"errors"
	"fmt"

	"canvasmind/cmd/canvasmind/ui"
	"canvasmind/internal/project"

	"github.com/spf13/cobra"
)

// suggestCmd prints proactive suggestions and the project outlook
var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Show proactive suggestions for the current project",
	Args:  cobra.NoArgs,
	RunE:  runSuggest,
}

// summaryCmd prints the session's projects
var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Summarize the projects of a session",
	Args:  cobra.NoArgs,
	RunE:  runSummary,
}

func runSuggest(cmd *cobra.Command, args []string) error {
	if err := checkFormat(outputFormat, false); err != nil {
		return err
	}
	reqCtx, err := parseContext(nil, recentQueries)
	if err != nil {
		return err
	}

	ctx, cancel := newContext()
	defer cancel()

	suggestions, err := engine.ProactiveSuggestions(ctx, sessionID, reqCtx)
	if err != nil {
		return err
	}
	report := suggestReport{Suggestions: suggestions}
	outlook, err := engine.ProjectOutlook(ctx, sessionID, reqCtx)
	switch {
	case errors.Is(err, project.ErrProjectNotFound):
		// No project yet: nothing to look ahead to.
	case err != nil:
		return err
	default:
		report.Outlook = outlook
	}

	out := ""
	if outputFormat == formatJSON {
		if out, err = renderJSON(report); err != nil {
			return err
		}
	} else {
		out = suggestText(report, ui.DefaultStyles())
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

func runSummary(cmd *cobra.Command, args []string) error {
	if err := checkFormat(outputFormat, false); err != nil {
		return err
	}

	ctx, cancel := newContext()
	defer cancel()

	sum, err := engine.SessionSummary(ctx, sessionID)
	if err != nil {
		return err
	}

	out := ""
	if outputFormat == formatJSON {
		if out, err = renderJSON(sum); err != nil {
			return err
		}
	} else {
		out = summaryText(sum, ui.DefaultStyles())
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}
