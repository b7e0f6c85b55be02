package runtime

import (
	"fmt"
	"sync"
	"testing"

	"github.com/justapithecus/prospect/types"
)

func TestAggregator_ConcurrentAppends(t *testing.T) {
	const n = 64
	a := NewAggregator()

	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			a.Append(types.JobOutcome{
				Name:   fmt.Sprintf("job-%d", i),
				Status: types.JobSuccess,
			})
		}(i)
	}
	wg.Wait()

	if got := len(a.Outcomes()); got != n {
		t.Errorf("expected %d outcomes, got %d", n, got)
	}
}

func TestAggregator_OutcomeFirstMatch(t *testing.T) {
	a := NewAggregator()

	if _, ok := a.Outcome("fetch"); ok {
		t.Error("empty aggregator must not report an outcome")
	}

	a.Append(types.JobOutcome{Name: "fetch", Status: types.JobFailed, Message: "first"})
	a.Append(types.JobOutcome{Name: "fetch", Status: types.JobSuccess, Message: "second"})

	o, ok := a.Outcome("fetch")
	if !ok {
		t.Fatal("expected an outcome for fetch")
	}
	if o.Message != "first" {
		t.Errorf("expected first recorded outcome, got %q", o.Message)
	}
}

func TestAggregator_OutcomesReturnsCopy(t *testing.T) {
	a := NewAggregator()
	a.Append(types.JobOutcome{Name: "fetch", Status: types.JobSuccess})

	out := a.Outcomes()
	out[0].Name = "mutated"

	if a.Outcomes()[0].Name != "fetch" {
		t.Error("mutating the returned slice must not affect the aggregator")
	}
}

func TestAggregator_SummarizeLastWins(t *testing.T) {
	a := NewAggregator()
	a.Append(types.JobOutcome{Name: "fetch", Status: types.JobFailed})
	a.Append(types.JobOutcome{Name: "fetch", Status: types.JobSuccess, Artifact: "aapl.csv"})
	a.Append(types.JobOutcome{Name: "load", Status: types.JobSuccess})

	summary := a.Summarize()
	if len(summary) != 2 {
		t.Fatalf("expected 2 summary entries, got %d", len(summary))
	}
	if summary["fetch"].Status != types.JobSuccess {
		t.Errorf("expected last fetch outcome to win, got %s", summary["fetch"].Status)
	}
	if summary["fetch"].Artifact != "aapl.csv" {
		t.Errorf("expected artifact carried into summary, got %q", summary["fetch"].Artifact)
	}
}
