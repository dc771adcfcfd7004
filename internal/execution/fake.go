package execution

import (
	"context"
	"sync"
)

// FakeResult is a canned response for FakeRuntime.
type FakeResult struct {
	Result RunResult
	Err    error
	// Before runs ahead of returning, e.g. to create files a real
	// command would have produced.
	Before func(spec RunSpec)
}

// FakeRuntime records commands and replays canned results in order.
// Once Results is exhausted every call succeeds with exit code 0.
type FakeRuntime struct {
	mu      sync.Mutex
	Results []FakeResult
	Calls   []RunSpec
}

// Run implements Runtime.
func (f *FakeRuntime) Run(_ context.Context, spec RunSpec) (*RunResult, error) {
	f.mu.Lock()
	f.Calls = append(f.Calls, spec)
	var r FakeResult
	if len(f.Results) > 0 {
		r = f.Results[0]
		f.Results = f.Results[1:]
	}
	f.mu.Unlock()

	if r.Before != nil {
		r.Before(spec)
	}
	if r.Err != nil {
		return nil, r.Err
	}
	res := r.Result
	if spec.Stdout != nil && res.Stdout != "" {
		spec.Stdout.Write([]byte(res.Stdout))
	}
	if spec.Stderr != nil && res.Stderr != "" {
		spec.Stderr.Write([]byte(res.Stderr))
	}
	return &res, nil
}

// CallCount returns how many commands ran.
func (f *FakeRuntime) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Calls)
}
