package authority

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/jonesrussell/linkengine/internal/config"
	"github.com/jonesrussell/linkengine/internal/logger"
)

// Result is the outcome of one propagation pass.
type Result struct {
	Scores     map[string]float64
	Iterations int
	Converged  bool
	Elapsed    time.Duration
}

// Propagator runs damped authority propagation over the link graph.
// At most one pass runs at a time; overlapping requests coalesce onto the
// running pass.
type Propagator struct {
	graph *Graph
	cfg   config.AuthorityConfig
	log   logger.Logger

	mu      sync.Mutex
	running bool
}

// NewPropagator creates a propagator over the given graph.
func NewPropagator(graph *Graph, cfg config.AuthorityConfig, log logger.Logger) *Propagator {
	return &Propagator{graph: graph, cfg: cfg, log: log}
}

// Running reports whether a pass is in progress.
func (p *Propagator) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Run executes one propagation pass and commits the result to the graph.
// If a pass is already running the call returns immediately with ok=false;
// the committed snapshot stays readable throughout.
func (p *Propagator) Run(ctx context.Context) (*Result, bool) {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil, false
	}
	p.running = true
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
	}()

	start := time.Now()
	res := p.compute(ctx)
	res.Elapsed = time.Since(start)

	if res.Scores != nil {
		p.graph.commit(res.Scores)
	}

	if res.Converged {
		p.log.Info("authority propagation converged",
			logger.Int("iterations", res.Iterations),
			logger.Int("nodes", len(res.Scores)),
			logger.Duration("elapsed", res.Elapsed))
	} else {
		p.log.Warn("authority propagation stopped before convergence",
			logger.Int("iterations", res.Iterations),
			logger.Int("nodes", len(res.Scores)),
			logger.Duration("elapsed", res.Elapsed))
	}

	return res, true
}

// compute walks a topology snapshot. Dangling nodes spread their mass
// uniformly so the total stays constant across iterations.
func (p *Propagator) compute(ctx context.Context) *Result {
	nodes, out := p.graph.snapshot()
	n := len(nodes)
	if n == 0 {
		return &Result{Scores: map[string]float64{}, Converged: true}
	}

	d := p.cfg.DampingFactor
	base := (1 - d) / float64(n)

	scores := make(map[string]float64, n)
	for _, id := range nodes {
		scores[id] = 1 / float64(n)
	}

	res := &Result{}
	for iter := 1; iter <= p.cfg.MaxIterations; iter++ {
		if ctx.Err() != nil {
			// Cancelled mid-pass: keep the previous committed snapshot.
			res.Scores = nil
			res.Iterations = iter - 1
			return res
		}

		next := make(map[string]float64, n)
		for _, id := range nodes {
			next[id] = base
		}

		var danglingMass float64
		for _, id := range nodes {
			targets := out[id]
			if len(targets) == 0 {
				danglingMass += scores[id]
				continue
			}
			share := scores[id] / float64(len(targets))
			for _, t := range targets {
				next[t] += d * share
			}
		}
		if danglingMass > 0 {
			spread := d * danglingMass / float64(n)
			for _, id := range nodes {
				next[id] += spread
			}
		}

		var delta float64
		for _, id := range nodes {
			delta += math.Abs(next[id] - scores[id])
		}
		scores = next

		if delta < p.cfg.ConvergenceThreshold {
			res.Scores = scores
			res.Iterations = iter
			res.Converged = true
			return res
		}
	}

	res.Scores = scores
	res.Iterations = p.cfg.MaxIterations
	return res
}
