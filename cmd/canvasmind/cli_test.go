package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"canvasmind/cmd/canvasmind/ui"
	"canvasmind/internal/project"
	"canvasmind/internal/types"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// setupCLI points the global flags at a temp workspace and opens an engine
// the way PersistentPreRunE does.
func setupCLI(t *testing.T) string {
	t.Helper()
	logger = zap.NewNop()

	ws := t.TempDir()
	workspace = ws
	configPath, dbPath = "", ""
	verbose = false
	timeout = 10 * time.Second
	resetCommandFlags("alice")

	openWorkspace(t)
	t.Cleanup(func() {
		closeWorkspace(t)
		workspace = ""
	})
	return ws
}

func resetCommandFlags(session string) {
	sessionID = session
	contextPairs, recentQueries = nil, nil
	outputFormat = formatText
	artifactType, artifactDesc = "", ""
}

func openWorkspace(t *testing.T) {
	t.Helper()
	cfg, err := loadConfig()
	require.NoError(t, err)
	e, closeFn, err := openEngine(cfg)
	require.NoError(t, err)
	engine, engineClose = e, closeFn
}

func closeWorkspace(t *testing.T) {
	t.Helper()
	if engineClose != nil {
		assert.NoError(t, engineClose())
	}
	engine, engineClose = nil, nil
}

func newTestCmd() (*cobra.Command, *bytes.Buffer) {
	out := &bytes.Buffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(out)
	return cmd, out
}

func TestLoadConfigPlacesStateInWorkspace(t *testing.T) {
	ws := setupCLI(t)

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(ws, stateDir, dbFileName), cfg.Projects.DatabasePath)
	assert.Equal(t, filepath.Join(ws, stateDir, usageFileName), cfg.Usage.Path)

	dbPath = filepath.Join(ws, "elsewhere.db")
	defer func() { dbPath = "" }()
	cfg, err = loadConfig()
	require.NoError(t, err)
	assert.Equal(t, dbPath, cfg.Projects.DatabasePath)
}

func TestLoadConfigReadsWorkspaceFile(t *testing.T) {
	ws := setupCLI(t)

	cfgFile := filepath.Join(ws, stateDir, configFileName)
	require.NoError(t, os.MkdirAll(filepath.Dir(cfgFile), 0755))
	require.NoError(t, os.WriteFile(cfgFile, []byte("cache:\n  ttl: 1m\n  capacity: 7\n"), 0644))

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Cache.Capacity)
	assert.Equal(t, time.Minute, cfg.GetCacheTTL())
}

func TestAnalyzeCmdJSON(t *testing.T) {
	setupCLI(t)
	outputFormat = formatJSON

	cmd, out := newTestCmd()
	require.NoError(t, runAnalyze(cmd, []string{"Создай", "логотип", "для", "кофейни"}))

	var res types.AnalysisResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	require.NotNil(t, res.Cluster)
	assert.Equal(t, "branding", res.Cluster.ClusterName)
	assert.Equal(t, "alice", res.SessionID)
	require.NotNil(t, res.Project)
	assert.True(t, res.Project.IsNew)
	assert.Equal(t, types.PhaseInitial, res.Project.Phase)
	require.NotEmpty(t, res.Predictions)
	assert.Equal(t, "create_initial_design", res.Predictions[0].Action)
}

func TestAnalyzeCmdText(t *testing.T) {
	setupCLI(t)

	cmd, out := newTestCmd()
	require.NoError(t, runAnalyze(cmd, []string{"Создай логотип для кофейни"}))

	text := out.String()
	assert.Contains(t, text, "branding")
	assert.Contains(t, text, "Next steps")
	assert.Contains(t, text, "create_initial_design")
}

func TestAnalyzeCmdRejectsBadInput(t *testing.T) {
	setupCLI(t)
	cmd, _ := newTestCmd()

	err := runAnalyze(cmd, []string{"   "})
	assert.ErrorIs(t, err, types.ErrInvalidInput)

	contextPairs = []string{"novalue"}
	err = runAnalyze(cmd, []string{"логотип"})
	assert.ErrorIs(t, err, types.ErrInvalidInput)

	contextPairs = nil
	outputFormat = "yaml"
	assert.Error(t, runAnalyze(cmd, []string{"логотип"}))
}

func TestArtifactAndSuggestCmds(t *testing.T) {
	setupCLI(t)
	cmd, out := newTestCmd()

	require.NoError(t, runAnalyze(cmd, []string{"Создай логотип для кофейни"}))

	artifactType, artifactDesc = "Image", "логотип кофейни"
	out.Reset()
	require.NoError(t, runArtifactAdd(cmd, nil))
	assert.Contains(t, out.String(), string(types.PhaseAfterImageCreation))

	outputFormat = formatJSON
	out.Reset()
	require.NoError(t, runSuggest(cmd, nil))

	var report suggestReport
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	require.NotEmpty(t, report.Suggestions)
	assert.Equal(t, "vectorize", report.Suggestions[0].Action)
	require.NotNil(t, report.Outlook)
	assert.NotEmpty(t, report.Outlook.Goals)
}

func TestArtifactAddCmdErrors(t *testing.T) {
	setupCLI(t)
	cmd, _ := newTestCmd()

	artifactType = "sculpture"
	assert.ErrorIs(t, runArtifactAdd(cmd, nil), types.ErrInvalidInput)

	// No project in the session yet.
	artifactType = "image"
	assert.ErrorIs(t, runArtifactAdd(cmd, nil), project.ErrProjectNotFound)
}

func TestSuggestCmdWithoutProject(t *testing.T) {
	setupCLI(t)
	cmd, out := newTestCmd()

	require.NoError(t, runSuggest(cmd, nil))
	assert.Contains(t, out.String(), "No confident suggestions")
}

func TestStateSurvivesRestart(t *testing.T) {
	setupCLI(t)
	cmd, out := newTestCmd()

	require.NoError(t, runAnalyze(cmd, []string{"Создай логотип для кофейни"}))
	artifactType = "image"
	require.NoError(t, runArtifactAdd(cmd, nil))

	// A second invocation sees the same project and statistics.
	closeWorkspace(t)
	openWorkspace(t)

	outputFormat = formatJSON
	out.Reset()
	require.NoError(t, runSummary(cmd, nil))
	var sum project.Summary
	require.NoError(t, json.Unmarshal(out.Bytes(), &sum))
	assert.Equal(t, 1, sum.TotalProjects)
	assert.Equal(t, 1, sum.TotalArtifacts)
	require.NotNil(t, sum.ActiveProject)
	assert.Equal(t, types.PhaseAfterImageCreation, sum.ActiveProject.Phase)

	out.Reset()
	require.NoError(t, runStats(cmd, nil))
	var report statsReport
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.Equal(t, int64(1), report.Statistics.QueriesProcessed)
	assert.Equal(t, int64(1), report.Statistics.ProjectsCreated)
	assert.NotEmpty(t, report.Modules)
}

func TestStatsCmdText(t *testing.T) {
	setupCLI(t)
	cmd, out := newTestCmd()

	require.NoError(t, runStats(cmd, nil))
	text := out.String()
	assert.Contains(t, text, "Statistics")
	assert.Contains(t, text, "semantic_classifier")
	assert.Contains(t, text, "context_clues")
}

func TestParseContext(t *testing.T) {
	got, err := parseContext(nil, nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = parseContext([]string{"hasRecentImages=true", " previousCategory = logo "}, []string{"первый", "второй"})
	require.NoError(t, err)
	rc := types.ParseRequestContext(got)
	assert.True(t, rc.HasRecentImages)
	assert.Equal(t, "logo", rc.PreviousCategory)
	assert.Equal(t, []string{"первый", "второй"}, rc.RecentQueries)

	_, err = parseContext([]string{"=x"}, nil)
	assert.True(t, errors.Is(err, types.ErrInvalidInput))
}

func TestRenderMarkdown(t *testing.T) {
	setupCLI(t)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	res, err := engine.AnalyzeRequest(ctx, "Создай логотип для кофейни", "md", nil)
	require.NoError(t, err)

	md := resultMarkdown(res)
	assert.True(t, strings.HasPrefix(md, "# Analysis"))
	assert.Contains(t, md, "## Next steps")

	out, err := renderResult(res, formatMarkdown, ui.NewStyles(ui.LightTheme()))
	require.NoError(t, err)
	assert.Contains(t, out, "branding")
}
