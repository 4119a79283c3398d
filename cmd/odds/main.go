// Command odds prints the copy distribution for one shop query.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/xtding233/reroll-odds/internal/service"
	"github.com/xtding233/reroll-odds/internal/tables"
)

func main() {
	level := flag.Int("level", 0, "Player level (1-10)")
	cost := flag.Int("cost", 0, "Target unit cost tier (1-5)")
	rerolls := flag.Int("rerolls", -1, "Number of rerolls")
	gold := flag.Int("gold", -1, "Gold to spend on rerolls (instead of -rerolls)")
	purchasedTarget := flag.Int("purchased-target", 0, "Copies of the target already out of the pool")
	purchasedOther := flag.Int("purchased-other", 0, "Other same-tier copies already out of the pool")
	maxCopies := flag.Int("max-copies", 3, "Show outcomes 0..max-copies (-1 shows all)")
	trials := flag.Int("trials", 0, "Monte Carlo trials to cross-check with")
	tablesDir := flag.String("tables", "", "Table directory (default: built-in tables)")
	set := flag.String("set", "", "Table set name")
	flag.Parse()

	req := service.Request{
		Set:             *set,
		Level:           *level,
		Cost:            *cost,
		PurchasedTarget: *purchasedTarget,
		PurchasedOther:  *purchasedOther,
		Trials:          *trials,
	}
	if *rerolls >= 0 {
		req.Rerolls = rerolls
	}
	if *gold >= 0 {
		req.Gold = gold
	}
	if *maxCopies >= 0 {
		req.MaxCopies = maxCopies
	}

	var loader *tables.Loader
	if *tablesDir != "" {
		loader = tables.NewLoader(*tablesDir)
	}
	eval := service.New(tables.NewRegistry(loader), service.Options{MaxTrials: 1_000_000})

	resp, err := eval.Evaluate(context.Background(), req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	printResponse(os.Stdout, resp)
}

func printResponse(out io.Writer, resp service.Response) {
	q := resp.Query
	fmt.Fprintf(out, "level %d, cost %d, %d rerolls (%d gold), set %s@%s\n",
		q.Level, q.Cost, q.Rerolls, resp.Gold, resp.Set, resp.Version)
	fmt.Fprintf(out, "%d slots, %d/%d target copies left in pool, %.4f%% per slot\n\n",
		resp.Slots, resp.RemainingTarget, resp.RemainingPool, resp.HitChance*100)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
	if resp.Simulation != nil {
		fmt.Fprintln(tw, "copies\tprobability\tsimulated\t")
		for i, o := range resp.Outcomes {
			sim := 0.0
			if i < len(resp.Simulation.Outcomes) {
				sim = resp.Simulation.Outcomes[i].Probability
			}
			fmt.Fprintf(tw, "%d\t%.2f%%\t%.2f%%\t\n", o.Copies, o.Probability*100, sim*100)
		}
	} else {
		fmt.Fprintln(tw, "copies\tprobability\t")
		for _, o := range resp.Outcomes {
			fmt.Fprintf(tw, "%d\t%.2f%%\t\n", o.Copies, o.Probability*100)
		}
	}
	_ = tw.Flush()

	fmt.Fprintf(out, "\nat least one: %.2f%%  expected: %.2f  p50/p90: %.0f/%.0f\n",
		resp.AtLeastOne*100, resp.Expected, resp.Summary.P50, resp.Summary.P90)
	if resp.Simulation != nil {
		fmt.Fprintf(out, "simulation: %d trials, max abs error %.4f\n",
			resp.Simulation.Trials, resp.Simulation.MaxAbsErr)
	}
}
