// Package session owns the currently open package and the engine bound to it.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/GoPlasmatic/Reframe-IDE/backend/engine"
	"github.com/GoPlasmatic/Reframe-IDE/backend/loader"
	"github.com/GoPlasmatic/Reframe-IDE/backend/models"
	"github.com/GoPlasmatic/Reframe-IDE/backend/scanner"
)

var (
	ErrNoPackage            = errors.New("no package loaded")
	ErrNoDirectory          = errors.New("package was not opened from a directory")
	ErrNoEngine             = errors.New("no engine configured")
	ErrScenarioNotFound     = errors.New("scenario not found")
	ErrScenarioFileNotFound = errors.New("scenario file not found")
)

// EventType names a package lifecycle event
type EventType string

const (
	EventPackageLoaded EventType = "package_loaded"
	EventPackageClosed EventType = "package_closed"
	EventPackageError  EventType = "package_error"
)

// Event is delivered to listeners after every state change
type Event struct {
	Type    EventType
	Package *models.PackageData
	RootDir string
	Error   string
}

// Listener receives session events. Listeners are called synchronously and must not block.
type Listener func(Event)

// History records successfully opened directories
type History interface {
	Touch(rootDir string, pkg *models.PackageData) error
}

// Session holds the open package. Loads are serialized; a failed load leaves the
// previous package in place.
type Session struct {
	collector *scanner.Collector
	factory   engine.Factory
	history   History

	loadMu sync.Mutex

	mu        sync.RWMutex
	pkg       *models.PackageData
	rootDir   string
	lastErr   string
	loading   bool
	eng       engine.Engine
	listeners []Listener
}

// New creates a session. factory and history may be nil.
func New(collector *scanner.Collector, factory engine.Factory, history History) *Session {
	return &Session{
		collector: collector,
		factory:   factory,
		history:   history,
	}
}

// Subscribe registers a listener
func (s *Session) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// OpenDir loads a package from a directory on disk
func (s *Session) OpenDir(ctx context.Context, dir string) (*models.PackageData, error) {
	return s.load(ctx, dir, func(ctx context.Context) (*scanner.Result, error) {
		return s.collector.CollectPath(ctx, dir)
	})
}

// OpenSelection loads a package from a flat file selection
func (s *Session) OpenSelection(ctx context.Context, files []scanner.SelectedFile) (*models.PackageData, error) {
	return s.load(ctx, "", func(ctx context.Context) (*scanner.Result, error) {
		return s.collector.CollectSelection(ctx, files)
	})
}

// Reload re-reads the directory the current package was opened from
func (s *Session) Reload(ctx context.Context) (*models.PackageData, error) {
	s.mu.RLock()
	dir := s.rootDir
	s.mu.RUnlock()

	if dir == "" {
		return nil, ErrNoDirectory
	}
	return s.OpenDir(ctx, dir)
}

func (s *Session) load(ctx context.Context, rootDir string, collect func(context.Context) (*scanner.Result, error)) (*models.PackageData, error) {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	s.setLoading(true)
	defer s.setLoading(false)

	pkg, err := s.assemble(ctx, collect)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}

		s.mu.Lock()
		s.lastErr = err.Error()
		s.mu.Unlock()

		log.Printf("Failed to load package: %v", err)
		s.notify(Event{Type: EventPackageError, RootDir: rootDir, Error: err.Error()})
		return nil, err
	}

	s.mu.Lock()
	previous := s.eng
	s.pkg = pkg
	s.rootDir = rootDir
	s.lastErr = ""
	s.eng = nil
	s.mu.Unlock()

	closeEngine(previous)

	if s.history != nil && rootDir != "" {
		if err := s.history.Touch(rootDir, pkg); err != nil {
			log.Printf("Warning: Failed to record recent package: %v", err)
		}
	}

	log.Printf("Loaded package %s (%s) with %d workflow(s), %d scenario(s)",
		pkg.Metadata.ID, pkg.Metadata.Version, len(pkg.Workflows), len(pkg.Scenarios))
	s.notify(Event{Type: EventPackageLoaded, Package: pkg, RootDir: rootDir})
	return pkg, nil
}

func (s *Session) assemble(ctx context.Context, collect func(context.Context) (*scanner.Result, error)) (*models.PackageData, error) {
	result, err := collect(ctx)
	if err != nil {
		return nil, err
	}
	return loader.Assemble(result.Files, result.FolderName)
}

// Close discards the package, its engine and any recorded error
func (s *Session) Close() {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	s.mu.Lock()
	previous := s.eng
	hadPackage := s.pkg != nil
	s.pkg = nil
	s.rootDir = ""
	s.lastErr = ""
	s.eng = nil
	s.mu.Unlock()

	closeEngine(previous)

	if hadPackage {
		s.notify(Event{Type: EventPackageClosed})
	}
}

// Current returns the open package, or nil
func (s *Session) Current() *models.PackageData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pkg
}

// RootDir returns the directory of the open package; empty for selections
func (s *Session) RootDir() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rootDir
}

// LastError returns the message of the last failed load
func (s *Session) LastError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Loading reports whether a load is in progress
func (s *Session) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *Session) setLoading(loading bool) {
	s.mu.Lock()
	s.loading = loading
	s.mu.Unlock()
}

// Engine returns the engine bound to the open package, creating it on first use.
// An engine that fails to initialize is discarded so the next call retries.
func (s *Session) Engine(ctx context.Context) (engine.Engine, error) {
	s.mu.Lock()
	if s.pkg == nil {
		s.mu.Unlock()
		return nil, ErrNoPackage
	}
	if s.eng == nil {
		if s.factory == nil {
			s.mu.Unlock()
			return nil, ErrNoEngine
		}
		eng, err := s.factory(s.pkg.CategorizedWorkflows)
		if err != nil {
			s.mu.Unlock()
			return nil, fmt.Errorf("failed to create engine: %w", err)
		}
		s.eng = eng
	}
	eng := s.eng
	s.mu.Unlock()

	if err := eng.Ready(ctx); err != nil {
		if ctx.Err() == nil {
			s.mu.Lock()
			if s.eng == eng {
				s.eng = nil
			}
			s.mu.Unlock()
			closeEngine(eng)
		}
		return nil, err
	}
	return eng, nil
}

// Process runs a payload through the transform workflows
func (s *Session) Process(ctx context.Context, payload string, trace bool) ([]byte, error) {
	eng, err := s.Engine(ctx)
	if err != nil {
		return nil, err
	}
	if trace {
		return eng.ProcessWithTrace(ctx, payload)
	}
	return eng.Process(ctx, payload)
}

// Validate runs a message through the validate workflows. Engine failures are
// reported inside the result rather than as an error.
func (s *Session) Validate(ctx context.Context, payload string) (models.ValidationResult, error) {
	eng, err := s.Engine(ctx)
	if err != nil {
		return models.ValidationResult{}, err
	}

	out, err := eng.Validate(ctx, payload)
	if err != nil {
		if ctx.Err() != nil {
			return models.ValidationResult{}, err
		}
		return engine.ErrorResult(err), nil
	}
	return engine.NormalizeValidation(out), nil
}

// ScenarioContent resolves a scenario and the content file it references
func (s *Session) ScenarioContent(id string) (models.Scenario, string, error) {
	pkg := s.Current()
	if pkg == nil {
		return models.Scenario{}, "", ErrNoPackage
	}

	sc, ok := pkg.ScenarioByID(id)
	if !ok {
		return models.Scenario{}, "", fmt.Errorf("%w: %s", ErrScenarioNotFound, id)
	}

	content := pkg.ScenarioContents[sc.File]
	if content == "" {
		return sc, "", fmt.Errorf("%w: %s", ErrScenarioFileNotFound, sc.File)
	}
	return sc, content, nil
}

// Generate feeds a scenario's content to the generate workflows
func (s *Session) Generate(ctx context.Context, scenarioID string) ([]byte, error) {
	_, content, err := s.ScenarioContent(scenarioID)
	if err != nil {
		return nil, err
	}

	eng, err := s.Engine(ctx)
	if err != nil {
		return nil, err
	}
	return eng.Generate(ctx, content)
}

// Shutdown releases the engine without emitting events
func (s *Session) Shutdown() {
	s.mu.Lock()
	previous := s.eng
	s.eng = nil
	s.mu.Unlock()

	closeEngine(previous)
}

func (s *Session) notify(ev Event) {
	s.mu.RLock()
	listeners := make([]Listener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.RUnlock()

	for _, l := range listeners {
		l(ev)
	}
}

func closeEngine(eng engine.Engine) {
	if eng == nil {
		return
	}
	if err := eng.Close(); err != nil {
		log.Printf("Warning: Failed to close engine: %v", err)
	}
}
