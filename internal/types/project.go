package types

import (
	"strings"
	"time"
)

// =============================================================================
// PROJECT TYPES AND CONSTANTS
// =============================================================================

// ArtifactType classifies what a produced artifact is. It drives phase detection.
type ArtifactType string

const (
	ArtifactImage      ArtifactType = "image"
	ArtifactVector     ArtifactType = "vector"
	ArtifactEmbroidery ArtifactType = "embroidery"
	ArtifactMockup     ArtifactType = "mockup"
	ArtifactDocument   ArtifactType = "document"
)

// Phase is the derived lifecycle stage of a project.
type Phase string

const (
	PhaseInitial            Phase = "initial"
	PhaseAfterImageCreation Phase = "after_image_creation"
	PhaseAfterVectorization Phase = "after_vectorization"
	PhaseDevelopment        Phase = "development"
	PhaseMature             Phase = "mature"
)

// AllPhases lists every phase in lifecycle order.
var AllPhases = []Phase{
	PhaseInitial,
	PhaseAfterImageCreation,
	PhaseAfterVectorization,
	PhaseDevelopment,
	PhaseMature,
}

// ValidPhase reports whether p is a known phase.
func ValidPhase(p Phase) bool {
	for _, known := range AllPhases {
		if p == known {
			return true
		}
	}
	return false
}

// Artifact is something produced for a project (an image, a vector file...).
type Artifact struct {
	Type        ArtifactType `json:"type"`
	Description string       `json:"description"`
	CreatedAt   time.Time    `json:"created_at"`
}

// Project groups the related requests and artifacts of one session.
// Projects are never hard-deleted.
type Project struct {
	ID        string     `json:"id"`
	SessionID string     `json:"session_id"`
	Title     string     `json:"title"`
	Concept   string     `json:"concept"`
	Artifacts []Artifact `json:"artifacts"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	// Revision grows by one with every change. Persistence never replaces a
	// stored project with a lower revision.
	Revision int64 `json:"revision"`
}

// DetectPhase derives the lifecycle phase from an artifact list.
// It is a pure function: the phase is never stored.
func DetectPhase(artifacts []Artifact) Phase {
	count := len(artifacts)
	if count == 0 {
		return PhaseInitial
	}
	if count == 1 && artifacts[0].Type == ArtifactImage {
		return PhaseAfterImageCreation
	}
	if hasArtifactType(artifacts, ArtifactVector) {
		return PhaseAfterVectorization
	}
	if count > 2 {
		return PhaseMature
	}
	return PhaseDevelopment
}

func hasArtifactType(artifacts []Artifact, t ArtifactType) bool {
	for _, a := range artifacts {
		if a.Type == t {
			return true
		}
	}
	return false
}

// Phase recomputes the project's phase from its artifacts.
func (p *Project) Phase() Phase {
	return DetectPhase(p.Artifacts)
}

// HasArtifactType reports whether the project holds an artifact of type t.
func (p *Project) HasArtifactType(t ArtifactType) bool {
	return hasArtifactType(p.Artifacts, t)
}

// LatestArtifact returns the most recently appended artifact, or nil.
func (p *Project) LatestArtifact() *Artifact {
	if len(p.Artifacts) == 0 {
		return nil
	}
	a := p.Artifacts[len(p.Artifacts)-1]
	return &a
}

// LatestDescriptionContains checks the latest artifact's description (case-insensitive).
func (p *Project) LatestDescriptionContains(fragment string) bool {
	latest := p.LatestArtifact()
	if latest == nil {
		return false
	}
	return strings.Contains(strings.ToLower(latest.Description), strings.ToLower(fragment))
}

// Clone returns a deep copy so callers can't mutate shared state.
func (p *Project) Clone() *Project {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Artifacts = make([]Artifact, len(p.Artifacts))
	copy(cp.Artifacts, p.Artifacts)
	return &cp
}

// Snapshot returns the result-embedded view of the project.
func (p *Project) Snapshot(isNew bool) *ProjectSnapshot {
	if p == nil {
		return nil
	}
	return &ProjectSnapshot{
		ID:             p.ID,
		Title:          p.Title,
		Concept:        p.Concept,
		Phase:          p.Phase(),
		ArtifactsCount: len(p.Artifacts),
		IsNew:          isNew,
		UpdatedAt:      p.UpdatedAt,
	}
}
