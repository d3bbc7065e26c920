package analysis

import (
	"context"
	"sync"

	"github.com/facebookincubator/go-belt/tool/experimental/errmon"
	"github.com/facebookincubator/go-belt/tool/logger"

	"github.com/fwscope/fwscope/pkg/report"
)

// Executor fans the registered passes out over the input and joins
// their results. Each pass writes only to its own slot, so no locking
// beyond the final join is needed.
type Executor struct {
	passes []Pass
}

// NewExecutor builds an Executor over the given passes. Result order
// follows registration order.
func NewExecutor(passes ...Pass) *Executor {
	return &Executor{passes: passes}
}

// Execute runs every pass in its own goroutine and blocks until all
// finished. A pass failure or panic becomes a diagnostic in that
// pass's slot; it never aborts the run or other passes.
func (e *Executor) Execute(ctx context.Context, in Input) []report.PassResult {
	results := make([]report.PassResult, len(e.passes))

	var wg sync.WaitGroup
	for idx, pass := range e.passes {
		wg.Add(1)
		go func(idx int, pass Pass) {
			defer wg.Done()
			results[idx] = executePass(ctx, pass, in)
		}(idx, pass)
	}
	wg.Wait()

	return results
}

func executePass(ctx context.Context, pass Pass, in Input) report.PassResult {
	out := report.PassResult{Pass: pass.ID()}

	res, err := runPass(ctx, pass, in)
	if res != nil {
		out.Findings = res.Findings
		out.Diagnostics = res.Diagnostics
	}
	if err != nil {
		passErr := ErrPass{PassID: pass.ID(), Err: err}
		logger.FromCtx(ctx).Errorf("%v", passErr)
		out.Diagnostics = append(out.Diagnostics, report.Diagnostic{
			Source:  string(pass.ID()),
			Message: passErr.Error(),
		})
	}
	return out
}

// runPass invokes a single pass with panic containment: nothing a
// pass does on untrusted input may kill the run.
func runPass(ctx context.Context, pass Pass, in Input) (retResult *Result, retErr error) {
	defer func() {
		if newErr := errmon.ObserveRecoverCtx(ctx, recover()).AsError(); newErr != nil {
			retErr = newErr
		}
	}()

	return pass.Analyze(ctx, in)
}
