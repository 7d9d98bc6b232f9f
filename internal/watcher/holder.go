package watcher

import (
	"sync/atomic"
	"time"

	"github.com/blackwell-systems/feedbackrank/internal/prioritize"
	"github.com/blackwell-systems/feedbackrank/internal/scoring"
)

// Holder publishes the engine built from the current scoring configuration.
// Readers always see a fully validated configuration; a rejected update
// leaves the previous one in place.
type Holder struct {
	current atomic.Value // holds *loadedEngine
	opts    []prioritize.Option
}

type loadedEngine struct {
	engine   *prioritize.Engine
	loadedAt time.Time
	version  int
}

// NewHolder validates cfg and publishes it as version 1. opts are applied to
// every engine the holder builds.
func NewHolder(cfg *scoring.Configuration, opts ...prioritize.Option) (*Holder, error) {
	h := &Holder{opts: opts}
	if err := h.Swap(cfg); err != nil {
		return nil, err
	}
	return h, nil
}

// Swap validates cfg and, if valid, makes it current.
func (h *Holder) Swap(cfg *scoring.Configuration) error {
	engine, err := prioritize.NewEngine(cfg, h.opts...)
	if err != nil {
		return err
	}
	next := &loadedEngine{engine: engine, loadedAt: time.Now(), version: h.Version() + 1}
	h.current.Store(next)
	return nil
}

// Engine returns the current engine.
func (h *Holder) Engine() *prioritize.Engine {
	return h.load().engine
}

// Configuration returns the current configuration. Callers must not modify
// it.
func (h *Holder) Configuration() *scoring.Configuration {
	return h.Engine().Configuration()
}

// Version counts successful swaps, starting at 1.
func (h *Holder) Version() int {
	if le := h.load(); le != nil {
		return le.version
	}
	return 0
}

// LoadedAt is when the current configuration was published.
func (h *Holder) LoadedAt() time.Time {
	return h.load().loadedAt
}

func (h *Holder) load() *loadedEngine {
	le, _ := h.current.Load().(*loadedEngine)
	return le
}
