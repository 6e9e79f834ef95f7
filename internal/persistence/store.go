package persistence

import (
	"context"
	"log"

	"github.com/aquareef/ledcore/internal/drivers"
	"github.com/aquareef/ledcore/internal/events"
)

// Store coalesces save requests and gates them on boot completion: a
// control loop that mutates the document before boot completes must not
// race a concurrent load, so saves requested before MarkBootComplete are
// coalesced and replayed exactly once afterward.
type Store struct {
	backend drivers.PersistenceBackend
	bus     *events.Bus

	bootComplete bool
	pending      *Document
}

// NewStore wraps a backend. bus may be nil if no observer cares about
// ConfigSaved events.
func NewStore(backend drivers.PersistenceBackend, bus *events.Bus) *Store {
	return &Store{backend: backend, bus: bus}
}

// Load reads the backend and applies it onto state in Import's field
// order. A missing or empty backend payload leaves
// state untouched; a version mismatch or parse failure is logged and
// state is left untouched rather than partially applied.
func (s *Store) Load(ctx context.Context, into *State) {
	data, err := s.backend.Load(ctx)
	if err != nil {
		log.Printf("persistence: load failed: %v", err)
		return
	}
	if len(data) == 0 {
		return
	}
	if err := Import(data, into); err != nil {
		log.Printf("persistence: discarding unreadable document, keeping defaults: %v", err)
	}
}

// MarkBootComplete releases any save that was coalesced while booting and
// performs it now. Safe to call once; later calls are no-ops.
func (s *Store) MarkBootComplete(ctx context.Context) {
	if s.bootComplete {
		return
	}
	s.bootComplete = true
	if s.pending != nil {
		doc := *s.pending
		s.pending = nil
		s.writeNow(ctx, doc)
	}
}

// Save serializes doc and hands it to the backend. Before boot completes,
// the request is coalesced: only the most recently requested document
// survives to be written once MarkBootComplete fires.
func (s *Store) Save(ctx context.Context, doc Document) {
	if !s.bootComplete {
		s.pending = &doc
		return
	}
	s.writeNow(ctx, doc)
}

func (s *Store) writeNow(ctx context.Context, doc Document) {
	data, err := Marshal(doc)
	if err != nil {
		log.Printf("persistence: save skipped, document too large: %v", err)
		return
	}
	if err := s.backend.Save(ctx, data); err != nil {
		log.Printf("persistence: save failed, will retry on next mutation: %v", err)
		return
	}
	if s.bus != nil {
		s.bus.Publish(events.Event{Kind: events.ConfigSaved})
	}
}
