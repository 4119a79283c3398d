package odds

import (
	"math"

	"gonum.org/v1/gonum/stat/combin"
	"gonum.org/v1/gonum/stat/distuv"
)

// Query is one distribution request. Counts are expected to be non-negative;
// the engine clamps anything below zero instead of failing.
type Query struct {
	Level           int `json:"level" yaml:"level"`
	Cost            int `json:"cost" yaml:"cost"`
	Rerolls         int `json:"rerolls" yaml:"rerolls"`
	PurchasedTarget int `json:"purchased_target" yaml:"purchased_target"`
	PurchasedOther  int `json:"purchased_other" yaml:"purchased_other"`
}

// Params are the per-slot draw parameters derived from a Query.
type Params struct {
	TierRate        float64
	RemainingPool   int
	RemainingTarget int
	Exhausted       bool    // nothing of the target left to draw
	P               float64 // chance that one slot shows the target
	Slots           int
}

// Binomial is the analytic model for these parameters.
func (p Params) Binomial() distuv.Binomial {
	return distuv.Binomial{N: float64(p.Slots), P: p.P}
}

// Engine computes acquisition distributions over one immutable Tables value.
// It is safe for concurrent use.
type Engine struct {
	tables Tables
}

func NewEngine(t Tables) *Engine {
	return &Engine{tables: t}
}

// Tables returns the reference data backing the engine.
func (e *Engine) Tables() Tables { return e.tables }

var defaultEngine = NewEngine(DefaultTables())

// ComputeDistribution evaluates a query against the built-in tables.
func ComputeDistribution(level, cost, rerolls, purchasedTarget, purchasedOther int) Distribution {
	return defaultEngine.Distribution(Query{
		Level:           level,
		Cost:            cost,
		Rerolls:         rerolls,
		PurchasedTarget: purchasedTarget,
		PurchasedOther:  purchasedOther,
	})
}

// Params resolves the draw parameters for q.
func (e *Engine) Params(q Query) Params {
	q = q.clamped()

	out := Params{
		TierRate:      e.tables.TierRate(q.Level, q.Cost),
		RemainingPool: max(e.tables.TotalPool(q.Cost)-q.PurchasedOther, 0),
		Slots:         q.Rerolls * SlotsPerReroll,
	}
	if pool, ok := e.tables.Pool(q.Cost); ok {
		out.RemainingTarget = max(pool.CopiesPerUnit-q.PurchasedTarget, 0)
	}

	if out.RemainingPool < 1 || out.RemainingTarget < 1 {
		out.Exhausted = true
		return out
	}

	p := out.TierRate * float64(out.RemainingTarget) / float64(out.RemainingPool)
	// Reporting more other-unit purchases than the tier can hold can push the
	// ratio past 1.
	out.P = math.Min(math.Max(p, 0), 1)
	return out
}

// Distribution returns P(k copies) for k = 0..Rerolls*5.
func (e *Engine) Distribution(q Query) Distribution {
	params := e.Params(q)
	if params.Exhausted {
		return pointMass(params.Slots)
	}
	return binomialPMF(params.Slots, params.P)
}

func (q Query) clamped() Query {
	q.Rerolls = max(q.Rerolls, 0)
	q.PurchasedTarget = max(q.PurchasedTarget, 0)
	q.PurchasedOther = max(q.PurchasedOther, 0)
	return q
}

// pointMass is the distribution of a pool that has nothing left to give.
func pointMass(slots int) Distribution {
	d := make(Distribution, slots+1)
	d[0] = 1
	return d
}

// binomialPMF evaluates C(n,k) p^k (1-p)^(n-k) in log space so large slot
// counts neither overflow the coefficient nor underflow the powers early.
func binomialPMF(n int, p float64) Distribution {
	d := make(Distribution, n+1)
	fn := float64(n)
	for k := 0; k <= n; k++ {
		fk := float64(k)
		logC := combin.LogGeneralizedBinomial(fn, fk)
		d[k] = math.Exp(logC + xlogy(fk, p) + xlog1py(fn-fk, -p))
	}
	return d
}

// xlogy is x*log(y) with 0*log(0) taken as 0.
func xlogy(x, y float64) float64 {
	if x == 0 {
		return 0
	}
	return x * math.Log(y)
}

// xlog1py is x*log(1+y) with 0*log(0) taken as 0.
func xlog1py(x, y float64) float64 {
	if x == 0 {
		return 0
	}
	return x * math.Log1p(y)
}
