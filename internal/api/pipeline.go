package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Stage is one named middleware in a request pipeline.
type Stage struct {
	Name string
	// Requires names stages that must run before this one.
	Requires []string
	Handler  func(http.Handler) http.Handler
}

// Pipeline is an ordered list of stages whose prerequisites were checked when
// it was built. A pipeline built with Extend runs after its parent, so the
// parent's stages count as already run.
type Pipeline struct {
	parent *Pipeline
	stages []Stage
}

// NewPipeline builds a root pipeline from stages in execution order.
func NewPipeline(stages ...Stage) (*Pipeline, error) {
	return build(nil, stages)
}

// Extend builds a pipeline that runs after p, e.g. a gate in front of a
// group of routes.
func (p *Pipeline) Extend(stages ...Stage) (*Pipeline, error) {
	return build(p, stages)
}

func build(parent *Pipeline, stages []Stage) (*Pipeline, error) {
	seen := make(map[string]bool)
	for _, name := range parent.Names() {
		seen[name] = true
	}

	for i, s := range stages {
		if s.Name == "" {
			return nil, fmt.Errorf("stage %d has no name", i)
		}
		if s.Handler == nil {
			return nil, fmt.Errorf("stage %q has no handler", s.Name)
		}
		if seen[s.Name] {
			return nil, fmt.Errorf("stage %q registered twice", s.Name)
		}
		var missing []error
		for _, req := range s.Requires {
			if !seen[req] {
				missing = append(missing, fmt.Errorf("stage %q requires %q to run first", s.Name, req))
			}
		}
		if len(missing) > 0 {
			return nil, errors.Join(missing...)
		}
		seen[s.Name] = true
	}

	return &Pipeline{parent: parent, stages: append([]Stage(nil), stages...)}, nil
}

// Names lists every stage that has run once this pipeline's last stage ran,
// ancestors included, in order.
func (p *Pipeline) Names() []string {
	if p == nil {
		return nil
	}
	names := p.parent.Names()
	for _, s := range p.stages {
		names = append(names, s.Name)
	}
	return names
}

// Middlewares returns this pipeline's own stages, ready for chi's Use or With.
func (p *Pipeline) Middlewares() []func(http.Handler) http.Handler {
	mws := make([]func(http.Handler) http.Handler, len(p.stages))
	for i, s := range p.stages {
		mws[i] = s.Handler
	}
	return mws
}

// Then wraps h with this pipeline's own stages; the first stage runs first.
func (p *Pipeline) Then(h http.Handler) http.Handler {
	for i := len(p.stages) - 1; i >= 0; i-- {
		h = p.stages[i].Handler(h)
	}
	return h
}
