package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/xtding233/reroll-odds/internal/service"
	"github.com/xtding233/reroll-odds/internal/tables"
)

func TestPrintResponse(t *testing.T) {
	rerolls, maxCopies := 20, 3
	eval := service.New(tables.NewRegistry(nil), service.Options{})
	resp, err := eval.Evaluate(context.Background(), service.Request{
		Level: 9, Cost: 5, Rerolls: &rerolls, MaxCopies: &maxCopies,
	})
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	printResponse(&buf, resp)
	out := buf.String()
	for _, want := range []string{
		"level 9, cost 5, 20 rerolls (40 gold), set default@builtin",
		"100 slots, 9/72 target copies left in pool, 1.2500% per slot",
		"28.43%",
		"expected: 1.25",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "simulated") {
		t.Errorf("no simulation column expected:\n%s", out)
	}
}
