package main

import (
	"fmt"
	"strings"

	"canvasmind/cmd/canvasmind/ui"
	"canvasmind/internal/types"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	artifactType string
	artifactDesc string
)

var knownArtifactTypes = []types.ArtifactType{
	types.ArtifactImage,
	types.ArtifactVector,
	types.ArtifactEmbroidery,
	types.ArtifactMockup,
	types.ArtifactDocument,
}

// artifactCmd groups artifact operations
var artifactCmd = &cobra.Command{
	Use:   "artifact",
	Short: "Manage artifacts of the current project",
}

var artifactAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Record an artifact produced for the session's current project",
	Long: `Appends an artifact to the current project. The project's phase, and
with it the predicted next steps, follow from its artifacts.

Example:
  canvasmind artifact add -s alice -t image -d "логотип кофейни, 3 цвета"`,
	Args: cobra.NoArgs,
	RunE: runArtifactAdd,
}

func runArtifactAdd(cmd *cobra.Command, args []string) error {
	typ := types.ArtifactType(strings.ToLower(strings.TrimSpace(artifactType)))
	if !knownArtifactType(typ) {
		return fmt.Errorf("%w: unknown artifact type %q", types.ErrInvalidInput, artifactType)
	}

	ctx, cancel := newContext()
	defer cancel()

	snap, err := engine.AddArtifact(ctx, sessionID, types.Artifact{Type: typ, Description: artifactDesc})
	if snap == nil {
		return err
	}
	if err != nil {
		// Kept in memory for this run only.
		logger.Warn("artifact not persisted", zap.String("project", snap.ID), zap.Error(err))
	}

	s := ui.DefaultStyles()
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n",
		s.Success.Render("added"),
		snap.Title,
		s.Muted.Render(fmt.Sprintf("[%s, %d artifacts]", snap.Phase, snap.ArtifactsCount)))
	return nil
}

func knownArtifactType(t types.ArtifactType) bool {
	for _, k := range knownArtifactTypes {
		if t == k {
			return true
		}
	}
	return false
}
