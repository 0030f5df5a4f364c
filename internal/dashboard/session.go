// Package dashboard binds chart selections to a rendering surface.
//
// A Session owns one container. Each Select starts a new generation and
// cancels the load of the previous one; a load that finishes after a newer
// selection was made is discarded. Applying a chart always purges the
// previous render first.
package dashboard

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/OpenChemFacts/OpenChemFacts-frontend/internal/datasource"
	"github.com/OpenChemFacts/OpenChemFacts-frontend/internal/series"
	"github.com/OpenChemFacts/OpenChemFacts-frontend/pkg/logger"
	"github.com/OpenChemFacts/OpenChemFacts-frontend/pkg/models"
)

// ErrClosed is returned by Select on a closed session.
var ErrClosed = errors.New("session closed")

// Renderer is the rendering engine bound to display surfaces.
type Renderer interface {
	Render(ctx context.Context, container string, cd *models.ChartDescription) error
	Purge(ctx context.Context, container string) error
}

// Selection is what the user picked for a container.
type Selection struct {
	CAS   string               `json:"cas"`
	Color series.ColorMode     `json:"color,omitempty"`
	Kind  datasource.ChartKind `json:"kind,omitempty"` // empty builds locally
}

// Loader turns a selection into a chart description.
type Loader interface {
	Load(ctx context.Context, sel Selection) (*models.ChartDescription, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, sel Selection) (*models.ChartDescription, error)

func (f LoaderFunc) Load(ctx context.Context, sel Selection) (*models.ChartDescription, error) {
	return f(ctx, sel)
}

// Session drives one container.
type Session struct {
	ID        string
	Container string

	loader   Loader
	renderer Renderer

	// OnEmpty is called when a current selection has no data. The
	// container is left purged.
	OnEmpty func(sel Selection)
	// OnError is called when a current selection fails to load or render.
	OnError func(sel Selection, err error)

	mu       sync.Mutex
	gen      uint64
	cancel   context.CancelFunc
	rendered bool
	closed   bool
	wg       sync.WaitGroup
}

// NewSession returns a session bound to container.
func NewSession(container string, loader Loader, renderer Renderer) *Session {
	return &Session{
		ID:        uuid.NewString(),
		Container: container,
		loader:    loader,
		renderer:  renderer,
	}
}

// Select loads sel in the background and applies it if it is still the
// latest selection when the load finishes.
func (s *Session) Select(ctx context.Context, sel Selection) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.gen++
	gen := s.gen
	loadCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.wg.Add(1)
	s.mu.Unlock()

	logger.Debug("selection", "session", s.ID, "container", s.Container, "cas", sel.CAS, "generation", gen)

	go func() {
		defer s.wg.Done()
		defer cancel()
		cd, err := s.loader.Load(loadCtx, sel)
		s.apply(loadCtx, gen, sel, cd, err)
	}()
	return nil
}

// apply purges the previous render and renders cd, unless gen is stale.
func (s *Session) apply(ctx context.Context, gen uint64, sel Selection, cd *models.ChartDescription, loadErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || gen != s.gen {
		logger.Debug("dropping stale result", "session", s.ID, "generation", gen, "current", s.gen)
		return
	}
	if errors.Is(loadErr, context.Canceled) {
		return
	}

	if s.rendered {
		if err := s.renderer.Purge(ctx, s.Container); err != nil {
			logger.Warn("purge failed", "session", s.ID, "container", s.Container, "err", err)
		}
		s.rendered = false
	}

	switch {
	case errors.Is(loadErr, series.ErrNoData):
		logger.Info("no data for selection", "container", s.Container, "cas", sel.CAS)
		if s.OnEmpty != nil {
			s.OnEmpty(sel)
		}
		return
	case loadErr != nil:
		logger.Error("load failed", "container", s.Container, "cas", sel.CAS, "err", loadErr)
		if s.OnError != nil {
			s.OnError(sel, loadErr)
		}
		return
	}

	if err := s.renderer.Render(ctx, s.Container, cd); err != nil {
		logger.Error("render failed", "container", s.Container, "err", err)
		if s.OnError != nil {
			s.OnError(sel, err)
		}
		return
	}
	s.rendered = true
}

// Wait blocks until every in-flight load has finished.
func (s *Session) Wait() {
	s.wg.Wait()
}

// Close cancels any in-flight load and purges the container. It is safe to
// call more than once.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	if s.cancel != nil {
		s.cancel()
	}
	rendered := s.rendered
	s.rendered = false
	s.mu.Unlock()

	s.wg.Wait()
	if rendered {
		return s.renderer.Purge(ctx, s.Container)
	}
	return nil
}
