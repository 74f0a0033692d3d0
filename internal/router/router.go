// Package router implements Router (C7): the registry that starts
// and stops every configured Route and aggregates their counters.
package router

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/dbrouter/routingcore/internal/config"
	"github.com/dbrouter/routingcore/internal/metadatacache"
	"github.com/dbrouter/routingcore/internal/rlog"
	"github.com/dbrouter/routingcore/internal/route"
	"github.com/dbrouter/routingcore/internal/socketops"
)

// Router owns every configured Route. It does not coordinate across
// routes -- each one is an independent listener with its own
// destination set and counters.
type Router struct {
	mu     sync.Mutex
	routes []*route.Route
}

// Stats is the aggregate counter snapshot Router exposes, one entry
// per route plus the process-wide totals.
type Stats struct {
	Routes         []route.Stats
	TotalActive    uint32
	TotalAccepts   uint64
	TotalBlockedIP int
}

// New builds one Route per entry in cfg.Routes, sharing ops and
// mdClient across all of them, and fails the whole registry if any
// single route fails ConfigInvalid validation -- a typo in one route
// must not silently start the rest with the wrong topology.
func New(cfg *config.RouterConfig, ops socketops.SocketOps, mdClient metadatacache.Client) (*Router, error) {
	r := &Router{}
	for _, rc := range cfg.Routes {
		rt, err := route.New(rc, ops, mdClient)
		if err != nil {
			return nil, errors.Wrapf(err, "route %q", rc.Name)
		}
		r.routes = append(r.routes, rt)
	}
	return r, nil
}

// Start starts every route. If any route fails to bind (FatalSetup),
// Start stops every route it already started and returns the error.
func (r *Router) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	started := make([]*route.Route, 0, len(r.routes))
	for _, rt := range r.routes {
		if err := rt.Start(); err != nil {
			for _, s := range started {
				_ = s.Stop()
			}
			return errors.Wrapf(err, "route %q", rt.Name())
		}
		started = append(started, rt)
		rlog.Zero.Info().Str("route", rt.Name()).Msg("route started")
	}
	return nil
}

// Stop stops every route and waits for all of them to finish, even if
// one of them returns an error.
func (r *Router) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	for _, rt := range r.routes {
		if err := rt.Stop(); err != nil && firstErr == nil {
			firstErr = err
		}
		rlog.Zero.Info().Str("route", rt.Name()).Msg("route stopped")
	}
	return firstErr
}

// Stats returns a snapshot of every route's counters plus the
// process-wide totals.
func (r *Router) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := Stats{Routes: make([]route.Stats, 0, len(r.routes))}
	for _, rt := range r.routes {
		s := rt.Stats()
		out.Routes = append(out.Routes, s)
		out.TotalActive += s.Active
		out.TotalAccepts += s.TotalAccepts
		out.TotalBlockedIP += s.BlockedIPCount
	}
	return out
}

// Route returns the named route, or nil if no route by that name is
// registered.
func (r *Router) Route(name string) *route.Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rt := range r.routes {
		if rt.Name() == name {
			return rt
		}
	}
	return nil
}
