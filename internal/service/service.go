// Package service validates caller input and evaluates distribution queries
// for the HTTP, websocket and gRPC surfaces.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xtding233/reroll-odds/internal/cache"
	"github.com/xtding233/reroll-odds/internal/logger"
	"github.com/xtding233/reroll-odds/internal/odds"
	"github.com/xtding233/reroll-odds/internal/tables"
)

var ErrInvalidRequest = errors.New("invalid request")

// MaxRerolls bounds a single query; the distribution has MaxRerolls*5+1 entries.
const MaxRerolls = 10000

// Request is the caller-facing query. Exactly one of Rerolls and Gold is set.
type Request struct {
	Set             string `json:"set,omitempty"`
	Level           int    `json:"level"`
	Cost            int    `json:"cost"`
	Rerolls         *int   `json:"rerolls,omitempty"`
	Gold            *int   `json:"gold,omitempty"`
	PurchasedTarget int    `json:"purchased_target"`
	PurchasedOther  int    `json:"purchased_other"`
	// MaxCopies trims the returned outcomes to 0..MaxCopies; nil returns all.
	MaxCopies *int `json:"max_copies,omitempty"`
	// Trials > 0 adds a Monte Carlo cross-check.
	Trials int `json:"trials,omitempty"`
}

// Response carries the distribution and everything derived from it.
type Response struct {
	Set             string         `json:"set"`
	Version         string         `json:"version"`
	Query           odds.Query     `json:"query"`
	Gold            int            `json:"gold"`
	TierRate        float64        `json:"tier_rate"`
	RemainingPool   int            `json:"remaining_pool"`
	RemainingTarget int            `json:"remaining_target"`
	Exhausted       bool           `json:"exhausted"`
	HitChance       float64        `json:"hit_chance"`
	Slots           int            `json:"slots"`
	Outcomes        []odds.Outcome `json:"outcomes"`
	Truncated       bool           `json:"truncated"`
	Total           float64        `json:"total"`
	AtLeastOne      float64        `json:"at_least_one"`
	Expected        float64        `json:"expected"`
	Summary         odds.Stats     `json:"summary"`
	Simulation      *Simulation    `json:"simulation,omitempty"`
	Cached          bool           `json:"cached"`
}

// Simulation is the Monte Carlo cross-check of the analytic result.
type Simulation struct {
	Trials    int            `json:"trials"`
	Summary   odds.Stats     `json:"summary"`
	Outcomes  []odds.Outcome `json:"outcomes"`
	MaxAbsErr float64        `json:"max_abs_err"`
}

// Options tune an Evaluator.
type Options struct {
	DefaultSet string
	MaxTrials  int
	// MaxDraws caps Trials * slots for one request; 0 means no cap.
	MaxDraws int64
	Cache    cache.Cache // nil disables caching
	// NewRNG supplies the simulation source; nil uses the crypto source.
	NewRNG func() odds.RandomSource
}

// Evaluator answers distribution requests against resolved table sets.
type Evaluator struct {
	tables tables.Resolver
	opts   Options
}

func New(r tables.Resolver, opts Options) *Evaluator {
	if opts.DefaultSet == "" {
		opts.DefaultSet = tables.DefaultSet
	}
	return &Evaluator{tables: r, opts: opts}
}

// Validate rejects requests the engine would otherwise silently clamp.
func (e *Evaluator) Validate(req Request) error {
	var errs []string

	switch {
	case req.Rerolls == nil && req.Gold == nil:
		errs = append(errs, "one of rerolls or gold is required")
	case req.Rerolls != nil && req.Gold != nil:
		errs = append(errs, "rerolls and gold are mutually exclusive")
	case req.Gold != nil && *req.Gold < 0:
		errs = append(errs, "gold must be >= 0")
	case req.Rerolls != nil && *req.Rerolls > MaxRerolls:
		errs = append(errs, fmt.Sprintf("rerolls must be <= %d", MaxRerolls))
	}
	if req.MaxCopies != nil && *req.MaxCopies < 0 {
		errs = append(errs, "max_copies must be >= 0")
	}
	if req.Trials < 0 {
		errs = append(errs, "trials must be >= 0")
	} else if req.Trials > e.opts.MaxTrials {
		errs = append(errs, fmt.Sprintf("trials must be <= %d", e.opts.MaxTrials))
	}

	q := odds.Query{Level: req.Level, Cost: req.Cost, PurchasedTarget: req.PurchasedTarget, PurchasedOther: req.PurchasedOther}
	if req.Rerolls != nil {
		q.Rerolls = *req.Rerolls
		if msg := e.checkDraws(req.Trials, q.Rerolls); msg != "" {
			errs = append(errs, msg)
		}
	}
	errs = append(errs, odds.QueryProblems(q)...)

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidRequest, strings.Join(errs, "; "))
	}
	return nil
}

// Evaluate validates req, computes the full distribution and trims only what
// is returned.
func (e *Evaluator) Evaluate(ctx context.Context, req Request) (Response, error) {
	if err := e.Validate(req); err != nil {
		return Response{}, err
	}
	set := req.Set
	if set == "" {
		set = e.opts.DefaultSet
	}
	snap, err := e.tables.Resolve(set)
	if err != nil {
		return Response{}, err
	}
	engine := snap.Engine
	rerollCost := engine.Tables().RerollCost()

	q := odds.Query{
		Level:           req.Level,
		Cost:            req.Cost,
		PurchasedTarget: req.PurchasedTarget,
		PurchasedOther:  req.PurchasedOther,
	}
	if req.Gold != nil {
		q.Rerolls = odds.RerollsForGold(*req.Gold, rerollCost)
	} else {
		q.Rerolls = *req.Rerolls
	}
	if q.Rerolls > MaxRerolls {
		return Response{}, fmt.Errorf("%w: gold must buy at most %d rerolls", ErrInvalidRequest, MaxRerolls)
	}
	// gold budgets only become a slot count once the set's reroll cost is known
	if msg := e.checkDraws(req.Trials, q.Rerolls); msg != "" {
		return Response{}, fmt.Errorf("%w: %s", ErrInvalidRequest, msg)
	}

	params := engine.Params(q)
	dist, cached := e.distribution(ctx, snap, q)

	resp := Response{
		Set:             snap.Set,
		Version:         snap.Version,
		Query:           q,
		Gold:            odds.GoldForRerolls(q.Rerolls, rerollCost),
		TierRate:        params.TierRate,
		RemainingPool:   params.RemainingPool,
		RemainingTarget: params.RemainingTarget,
		Exhausted:       params.Exhausted,
		HitChance:       params.P,
		Slots:           params.Slots,
		Total:           dist.Sum(),
		AtLeastOne:      dist.AtLeast(1),
		Expected:        params.Binomial().Mean(),
		Summary:         odds.Summarize(dist),
		Cached:          cached,
	}
	shown := dist
	if req.MaxCopies != nil {
		shown = dist.Prefix(*req.MaxCopies)
	}
	resp.Outcomes = shown.Outcomes()
	resp.Truncated = len(shown) < len(dist)

	if req.Trials > 0 {
		var rng odds.RandomSource
		if e.opts.NewRNG != nil {
			rng = e.opts.NewRNG()
		}
		sim, err := engine.Simulate(ctx, q, req.Trials, rng)
		if err != nil {
			return Response{}, err
		}
		resp.Simulation = &Simulation{
			Trials:    sim.Trials,
			Summary:   sim.Stats,
			Outcomes:  sim.Empirical.Prefix(len(shown) - 1).Outcomes(),
			MaxAbsErr: maxAbsDiff(sim.Empirical, dist),
		}
	}
	return resp, nil
}

// checkDraws reports a problem when a simulation would draw more slots than
// MaxDraws allows.
func (e *Evaluator) checkDraws(trials, rerolls int) string {
	if e.opts.MaxDraws <= 0 || trials <= 0 || rerolls <= 0 {
		return ""
	}
	draws := int64(trials) * int64(rerolls) * odds.SlotsPerReroll
	if draws > e.opts.MaxDraws {
		return fmt.Sprintf("trials*slots must be <= %d (got %d)", e.opts.MaxDraws, draws)
	}
	return ""
}

func (e *Evaluator) distribution(ctx context.Context, snap *tables.Snapshot, q odds.Query) (odds.Distribution, bool) {
	if e.opts.Cache == nil {
		return snap.Engine.Distribution(q), false
	}
	key := cache.Key(snap.CacheTag(), q)
	d, ok, err := e.opts.Cache.Get(ctx, key)
	if err != nil {
		logger.Warning("cache read failed", "key", key, "error", err)
	}
	if ok && len(d) == q.Rerolls*odds.SlotsPerReroll+1 {
		return d, true
	}
	d = snap.Engine.Distribution(q)
	if err := e.opts.Cache.Set(ctx, key, d); err != nil {
		logger.Warning("cache write failed", "key", key, "error", err)
	}
	return d, false
}

func maxAbsDiff(a, b odds.Distribution) float64 {
	var m float64
	for k := range a {
		if k >= len(b) {
			break
		}
		diff := a[k] - b[k]
		if diff < 0 {
			diff = -diff
		}
		if diff > m {
			m = diff
		}
	}
	return m
}
