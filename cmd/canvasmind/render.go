package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"canvasmind/cmd/canvasmind/ui"
	"canvasmind/internal/orchestrator"
	"canvasmind/internal/project"
	"canvasmind/internal/types"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// Output formats.
const (
	formatText     = "text"
	formatJSON     = "json"
	formatMarkdown = "markdown"
)

func checkFormat(format string, allowMarkdown bool) error {
	switch format {
	case formatText, formatJSON:
		return nil
	case formatMarkdown:
		if allowMarkdown {
			return nil
		}
	}
	return fmt.Errorf("unsupported output format %q", format)
}

func renderJSON(v interface{}) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode result: %w", err)
	}
	return string(data), nil
}

// =============================================================================
// ANALYSIS RESULT
// =============================================================================

func renderResult(res *types.AnalysisResult, format string, styles ui.Styles) (string, error) {
	switch format {
	case formatJSON:
		return renderJSON(res)
	case formatMarkdown:
		return renderMarkdown(resultMarkdown(res), 80)
	default:
		return resultText(res, styles), nil
	}
}

func renderMarkdown(md string, width int) (string, error) {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	out, err := renderer.Render(md)
	if err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return out, nil
}

func resultText(res *types.AnalysisResult, s ui.Styles) string {
	var b strings.Builder
	row := func(label, value string) {
		b.WriteString(s.Label.Render(label))
		b.WriteString(value)
		b.WriteString("\n")
	}

	header := fmt.Sprintf("Confidence %d", res.Confidence)
	b.WriteString(s.Confidence(res.Confidence).Render(header))
	if res.FromCache {
		b.WriteString(" " + s.Muted.Render("(cached)"))
	}
	if res.Fallback {
		b.WriteString(" " + s.Warning.Render("(degraded)"))
	}
	b.WriteString("\n\n")

	if res.Cluster != nil {
		row("Cluster", fmt.Sprintf("%s (%.0f%%)", res.Cluster.ClusterName, res.Cluster.Confidence))
	} else {
		row("Cluster", s.Muted.Render("none"))
	}
	if len(res.Intents) > 0 {
		names := make([]string, 0, len(res.Intents))
		for _, in := range res.Intents {
			names = append(names, fmt.Sprintf("%s %.2f", in.Type, in.Confidence))
		}
		row("Intents", strings.Join(names, ", "))
	}
	if p := res.Project; p != nil {
		status := "continued"
		if p.IsNew {
			status = "new"
		}
		row("Project", fmt.Sprintf("%s [%s, %s]", p.Title, p.Phase, status))
		if !p.IsNew {
			row("Compatible", fmt.Sprintf("%d", res.Compatibility))
		}
	}

	if len(res.Predictions) > 0 {
		b.WriteString("\n" + s.Title.Render("Next steps") + "\n")
		for i, p := range res.Predictions {
			fmt.Fprintf(&b, "%d. %s %s\n", i+1, s.Bold.Render(p.Description), s.Muted.Render(fmt.Sprintf("(%s, %.2f)", p.Action, p.Probability)))
			for _, prompt := range p.SuggestedPrompts {
				b.WriteString("   " + s.Muted.Render("> "+prompt) + "\n")
			}
		}
	}

	if len(res.Recommendations) > 0 {
		b.WriteString("\n" + s.Title.Render("Recommendations") + "\n")
		for _, r := range res.Recommendations {
			b.WriteString(s.Priority(r.Priority).Render("• ") + r.Message + "\n")
		}
	}

	if len(res.Failures) > 0 {
		b.WriteString("\n" + s.Warning.Render("Degraded components") + "\n")
		for _, f := range res.Failures {
			fmt.Fprintf(&b, "  %s: %s\n", f.Component, f.Error)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func resultMarkdown(res *types.AnalysisResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Analysis\n\n> %s\n\n", res.Query)
	fmt.Fprintf(&b, "**Confidence:** %d", res.Confidence)
	if res.Fallback {
		b.WriteString(" _(degraded)_")
	}
	b.WriteString("\n\n")

	if res.Cluster != nil {
		fmt.Fprintf(&b, "- **Cluster:** %s (%.0f%%)\n", res.Cluster.ClusterName, res.Cluster.Confidence)
	}
	for _, in := range res.Intents {
		fmt.Fprintf(&b, "- **Intent:** %s (%.2f)\n", in.Type, in.Confidence)
	}
	if p := res.Project; p != nil {
		fmt.Fprintf(&b, "- **Project:** %s, phase `%s`, %d artifacts\n", p.Title, p.Phase, p.ArtifactsCount)
	}

	if len(res.Predictions) > 0 {
		b.WriteString("\n## Next steps\n\n")
		for i, p := range res.Predictions {
			fmt.Fprintf(&b, "%d. **%s** `%s` %.2f\n", i+1, p.Description, p.Action, p.Probability)
			for _, prompt := range p.SuggestedPrompts {
				fmt.Fprintf(&b, "   - %s\n", prompt)
			}
		}
	}

	var findings []string
	for _, part := range res.Enrichments {
		for _, f := range part.Findings {
			findings = append(findings, fmt.Sprintf("- _%s_ %s", part.Module, f.Detail))
		}
	}
	if len(findings) > 0 {
		b.WriteString("\n## Findings\n\n" + strings.Join(findings, "\n") + "\n")
	}

	if len(res.Recommendations) > 0 {
		b.WriteString("\n## Recommendations\n\n")
		for _, r := range res.Recommendations {
			fmt.Fprintf(&b, "- [%s] %s\n", r.Priority, r.Message)
		}
	}
	return b.String()
}

// =============================================================================
// SESSION VIEWS
// =============================================================================

// suggestReport is what `suggest` prints: suggestions plus the outlook.
type suggestReport struct {
	Suggestions []orchestrator.Suggestion `json:"suggestions"`
	Outlook     *orchestrator.Outlook     `json:"outlook,omitempty"`
}

func suggestText(r suggestReport, s ui.Styles) string {
	var b strings.Builder
	if len(r.Suggestions) == 0 {
		b.WriteString(s.Muted.Render("No confident suggestions yet.") + "\n")
	} else {
		b.WriteString(s.Title.Render("Suggestions") + "\n")
		for _, sg := range r.Suggestions {
			fmt.Fprintf(&b, "• %s %s\n", s.Bold.Render(sg.Message), s.Muted.Render(fmt.Sprintf("(%s, %.2f)", sg.Action, sg.Confidence)))
			for _, p := range sg.Prompts {
				b.WriteString("  " + s.Muted.Render("> "+p) + "\n")
			}
		}
	}

	if o := r.Outlook; o != nil {
		b.WriteString("\n" + s.Title.Render("Outlook") + "\n")
		if o.Project != nil {
			fmt.Fprintf(&b, "%s%s [%s]\n", s.Label.Render("Project"), o.Project.Title, o.Project.Phase)
		}
		for _, g := range o.Goals {
			fmt.Fprintf(&b, "%s%s %s\n", s.Label.Render("Goal"), g.Goal, s.Muted.Render(fmt.Sprintf("(%.1f, %s)", g.Probability, g.Timeframe)))
		}
		fmt.Fprintf(&b, "%s%s\n", s.Label.Render("Satisfaction"), o.Trends.Satisfaction)
		if o.Trends.IncreasingComplexity {
			fmt.Fprintf(&b, "%s%s\n", s.Label.Render("Complexity"), "increasing")
		}
		if o.Trends.FocusShift != "" {
			fmt.Fprintf(&b, "%s%s\n", s.Label.Render("Focus"), o.Trends.FocusShift)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func summaryText(sum project.Summary, s ui.Styles) string {
	var b strings.Builder
	b.WriteString(s.Title.Render("Session "+sum.SessionID) + "\n")
	fmt.Fprintf(&b, "%s%d\n", s.Label.Render("Projects"), sum.TotalProjects)
	fmt.Fprintf(&b, "%s%d\n", s.Label.Render("Artifacts"), sum.TotalArtifacts)
	for _, p := range sum.Projects {
		marker := "  "
		if sum.ActiveProject != nil && sum.ActiveProject.ID == p.ID {
			marker = s.Success.Render("* ")
		}
		fmt.Fprintf(&b, "%s%s %s\n", marker, p.Title, s.Muted.Render(fmt.Sprintf("[%s, %s, %d artifacts]", p.Concept, p.Phase, p.ArtifactsCount)))
	}
	return strings.TrimRight(b.String(), "\n")
}

// statsReport is what `stats` prints.
type statsReport struct {
	Statistics types.Stats          `json:"statistics"`
	Modules    []types.ModuleHealth `json:"modules"`
}

func statsText(r statsReport, s ui.Styles) string {
	st := r.Statistics
	var b strings.Builder
	b.WriteString(s.Title.Render("Statistics") + "\n")
	for _, kv := range []struct {
		label string
		value int64
	}{
		{"Queries", st.QueriesProcessed},
		{"Projects", st.ProjectsCreated},
		{"Predictions", st.PredictionsGenerated},
		{"Cache hits", st.CacheHits},
		{"Cache misses", st.CacheMisses},
		{"Errors", st.ErrorCount},
		{"Avg ms", st.AverageResponseMs},
	} {
		fmt.Fprintf(&b, "%s%d\n", s.Label.Render(kv.label), kv.value)
	}
	fmt.Fprintf(&b, "%s%s\n", s.Label.Render("Health"), s.Confidence(st.SystemHealth).Render(fmt.Sprintf("%d", st.SystemHealth)))

	b.WriteString("\n" + s.Title.Render("Modules") + "\n")
	rows := make([]string, 0, len(r.Modules))
	for _, m := range r.Modules {
		status := s.Success.Render("ok")
		if !m.Available {
			status = s.Warning.Render("fallback")
		}
		line := fmt.Sprintf("%-24s %-10s %s", m.Name, m.Role, status)
		if m.Reason != "" {
			line += " " + s.Muted.Render(m.Reason)
		}
		rows = append(rows, line)
	}
	b.WriteString(lipgloss.JoinVertical(lipgloss.Left, rows...))
	return strings.TrimRight(b.String(), "\n")
}
