// Package project tracks the multi-turn projects of each session and routes
// incoming requests to an existing project or a new one.
//
// The manager keeps a working set in memory. Sessions idle for longer than
// the session TTL are dropped from the working set; projects themselves are
// never deleted and are reloaded from persistence on the next access.
package project

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"canvasmind/internal/logging"
	"canvasmind/internal/perception"
	"canvasmind/internal/types"
)

// GeneralConcept is used when no concept could be detected.
const GeneralConcept = perception.GeneralCluster

// ErrProjectNotFound is returned when an artifact targets an unknown project.
var ErrProjectNotFound = errors.New("project not found")

// Manager owns the project working set.
type Manager struct {
	mu          sync.Mutex
	sessions    map[string]*session
	persistence types.ProjectPersistence // optional
	sessionTTL  time.Duration
	now         func() time.Time
	newID       func() string
}

type session struct {
	projects  []*types.Project // creation order
	currentID string
	lastSeen  time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithSessionTTL sets the idle time after which a session leaves the working set.
func WithSessionTTL(ttl time.Duration) Option {
	return func(m *Manager) { m.sessionTTL = ttl }
}

// WithIDGenerator overrides project ID generation.
func WithIDGenerator(gen func() string) Option {
	return func(m *Manager) { m.newID = gen }
}

// NewManager creates a manager. persistence may be nil.
func NewManager(persistence types.ProjectPersistence, opts ...Option) *Manager {
	m := &Manager{
		sessions:    make(map[string]*session),
		persistence: persistence,
		sessionTTL:  24 * time.Hour,
		now:         time.Now,
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// =============================================================================
// ROUTING
// =============================================================================

// GetOrCreateProject returns the session's current project when concept is
// compatible with it (direct match, related group, or no concept detected)
// and startNew is false. Otherwise a new project is created and becomes
// current. The returned project is a copy; isNew reports creation.
//
// A failed save still returns the project: the working set stays
// authoritative and the error is reported alongside.
func (m *Manager) GetOrCreateProject(ctx context.Context, sessionID, text, concept string, startNew bool) (*types.Project, bool, error) {
	if err := m.ensureLoaded(ctx, sessionID); err != nil {
		return nil, false, err
	}

	m.mu.Lock()
	s := m.touch(sessionID)
	if current := s.current(); current != nil && !startNew && (concept == "" || perception.ConceptsCompatible(concept, current.Concept)) {
		out := current.Clone()
		m.mu.Unlock()
		logging.ProjectsDebug("session %s continues project %s (%s)", sessionID, out.ID, out.Concept)
		return out, false, nil
	}

	if concept == "" {
		concept = GeneralConcept
	}
	now := m.now()
	p := &types.Project{
		ID:        m.newID(),
		SessionID: sessionID,
		Title:     Title(text),
		Concept:   concept,
		Artifacts: []types.Artifact{},
		CreatedAt: now,
		UpdatedAt: now,
		Revision:  1,
	}
	s.projects = append(s.projects, p)
	s.currentID = p.ID
	out := p.Clone()
	m.mu.Unlock()

	logging.Projects("session %s: new project %s %q (concept=%s)", sessionID, out.ID, out.Title, out.Concept)
	return out, true, m.save(ctx, out)
}

// AddArtifact appends an artifact to a project and bumps its UpdatedAt and
// Revision in one step. A zero CreatedAt is set to now. Saves run outside the
// lock, so persistence relies on Revision to drop out-of-order snapshots.
func (m *Manager) AddArtifact(ctx context.Context, sessionID, projectID string, artifact types.Artifact) (*types.Project, error) {
	if err := m.ensureLoaded(ctx, sessionID); err != nil {
		return nil, err
	}

	m.mu.Lock()
	s := m.touch(sessionID)
	p := s.find(projectID)
	if p == nil {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, projectID)
	}
	now := m.now()
	if artifact.CreatedAt.IsZero() {
		artifact.CreatedAt = now
	}
	p.Artifacts = append(p.Artifacts, artifact)
	p.UpdatedAt = now
	p.Revision++
	s.currentID = p.ID
	out := p.Clone()
	m.mu.Unlock()

	logging.Projects("project %s: +%s artifact (%d total, phase=%s)", out.ID, artifact.Type, len(out.Artifacts), out.Phase())
	return out, m.save(ctx, out)
}

// AddArtifactToCurrent appends to the session's current project.
func (m *Manager) AddArtifactToCurrent(ctx context.Context, sessionID string, artifact types.Artifact) (*types.Project, error) {
	current, err := m.CurrentProject(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, fmt.Errorf("%w: session %s has no current project", ErrProjectNotFound, sessionID)
	}
	return m.AddArtifact(ctx, sessionID, current.ID, artifact)
}

// CurrentProject returns a copy of the session's current project, or nil.
func (m *Manager) CurrentProject(ctx context.Context, sessionID string) (*types.Project, error) {
	if err := m.ensureLoaded(ctx, sessionID); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	return s.current().Clone(), nil
}

// Projects returns copies of every project of the session in creation order.
func (m *Manager) Projects(ctx context.Context, sessionID string) ([]*types.Project, error) {
	if err := m.ensureLoaded(ctx, sessionID); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	out := make([]*types.Project, 0, len(s.projects))
	for _, p := range s.projects {
		out = append(out, p.Clone())
	}
	return out, nil
}

// =============================================================================
// SESSION SUMMARY
// =============================================================================

// Summary describes one session's projects.
type Summary struct {
	SessionID      string                   `json:"session_id"`
	TotalProjects  int                      `json:"total_projects"`
	TotalArtifacts int                      `json:"total_artifacts"`
	ActiveProject  *types.ProjectSnapshot   `json:"active_project,omitempty"`
	Projects       []*types.ProjectSnapshot `json:"projects,omitempty"`
}

// SessionSummary summarizes a session. Unknown sessions yield an empty summary.
func (m *Manager) SessionSummary(ctx context.Context, sessionID string) (Summary, error) {
	projects, err := m.Projects(ctx, sessionID)
	if err != nil {
		return Summary{}, err
	}
	current, err := m.CurrentProject(ctx, sessionID)
	if err != nil {
		return Summary{}, err
	}

	sum := Summary{SessionID: sessionID, TotalProjects: len(projects)}
	for _, p := range projects {
		sum.TotalArtifacts += len(p.Artifacts)
		sum.Projects = append(sum.Projects, p.Snapshot(false))
	}
	if current != nil {
		sum.ActiveProject = current.Snapshot(false)
	}
	return sum, nil
}

// =============================================================================
// WORKING SET
// =============================================================================

// EvictIdle drops sessions idle for longer than the session TTL from memory
// and returns how many were dropped.
func (m *Manager) EvictIdle() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.evictIdleLocked(m.now())
}

// SessionCount returns the number of sessions in the working set.
func (m *Manager) SessionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) evictIdleLocked(now time.Time) int {
	if m.sessionTTL <= 0 {
		return 0
	}
	evicted := 0
	for id, s := range m.sessions {
		if now.Sub(s.lastSeen) > m.sessionTTL {
			delete(m.sessions, id)
			evicted++
		}
	}
	if evicted > 0 {
		logging.ProjectsDebug("evicted %d idle sessions", evicted)
	}
	return evicted
}

// touch returns the session, creating it if needed. Caller holds mu.
func (m *Manager) touch(sessionID string) *session {
	now := m.now()
	s, ok := m.sessions[sessionID]
	if !ok {
		s = &session{}
		m.sessions[sessionID] = s
	}
	s.lastSeen = now
	return s
}

// ensureLoaded drops idle sessions, then pulls the session's projects from
// persistence when it is not in the working set. The load runs without
// holding mu.
func (m *Manager) ensureLoaded(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	m.evictIdleLocked(m.now())
	_, ok := m.sessions[sessionID]
	m.mu.Unlock()
	if ok || m.persistence == nil {
		return nil
	}

	loaded, err := m.persistence.LoadProjects(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("load projects for session %s: %w", sessionID, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[sessionID]; ok {
		// Another request populated the session while we were loading.
		return nil
	}
	if len(loaded) == 0 {
		return nil
	}
	sort.SliceStable(loaded, func(i, j int) bool {
		return loaded[i].CreatedAt.Before(loaded[j].CreatedAt)
	})
	s := &session{projects: loaded, lastSeen: m.now()}
	latest := loaded[0]
	for _, p := range loaded[1:] {
		if !p.UpdatedAt.Before(latest.UpdatedAt) {
			latest = p
		}
	}
	s.currentID = latest.ID
	m.sessions[sessionID] = s
	logging.ProjectsDebug("session %s: loaded %d projects", sessionID, len(loaded))
	return nil
}

func (m *Manager) save(ctx context.Context, p *types.Project) error {
	if m.persistence == nil {
		return nil
	}
	if err := m.persistence.SaveProject(ctx, p); err != nil {
		logging.ProjectsWarn("save project %s failed: %v", p.ID, err)
		return fmt.Errorf("save project %s: %w", p.ID, err)
	}
	return nil
}

func (s *session) current() *types.Project {
	return s.find(s.currentID)
}

func (s *session) find(id string) *types.Project {
	if id == "" {
		return nil
	}
	for _, p := range s.projects {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// =============================================================================
// TITLES
// =============================================================================

const maxTitleRunes = 60

// Title derives a short project title from the request text: whitespace is
// collapsed, the first letter upper-cased and the result cut at a word
// boundary near 60 characters.
func Title(text string) string {
	title := strings.Join(strings.Fields(text), " ")
	title = strings.TrimRight(title, ".!?,;:")
	if title == "" {
		return "Новый проект"
	}
	if utf8.RuneCountInString(title) > maxTitleRunes {
		runes := []rune(title)[:maxTitleRunes]
		cut := string(runes)
		if i := strings.LastIndex(cut, " "); i > 0 {
			cut = cut[:i]
		}
		title = cut
	}
	r, size := utf8.DecodeRuneInString(title)
	return string(unicode.ToUpper(r)) + title[size:]
}
