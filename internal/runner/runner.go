// Package runner tracks multiple disjoint regions concurrently. Per the
// tracker's concurrency model, a single Tracker instance is confined to one
// goroutine, but separate Trackers may run concurrently over disjoint
// regions against shared, read-only target/machine-reg-info oracles -- this
// package is that pool, sized like the teacher's VM worker pool
// (internal/vm/worker_pool.go's runtime.NumCPU() default) but simplified
// since region tracking has no work-stealing queue to manage: every region
// is already known up front.
package runner

import (
	"context"
	"runtime"
	"sync"

	"go.uber.org/atomic"
	"go.uber.org/multierr"

	"github.com/tangzhangming/regpressure/internal/diag"
	"github.com/tangzhangming/regpressure/internal/liveinterval"
	"github.com/tangzhangming/regpressure/internal/mir"
	"github.com/tangzhangming/regpressure/internal/pressure"
	"github.com/tangzhangming/regpressure/internal/regclass"
)

// Region is one independently trackable unit of work: a block plus the
// variant to track it with.
type Region struct {
	Name    string
	Block   *mir.Block
	Variant pressure.Variant
}

// RegionResult pairs a Region's name with its tracker output, or a
// diagnostic if tracking it panicked.
type RegionResult struct {
	Name   string
	Result *pressure.Result
	Err    error
}

// Runner tracks a batch of regions concurrently against one shared target.
type Runner struct {
	target regclass.TargetInfo
	mri    regclass.MachineRegInfo
	aci    regclass.AllocatableInfo

	maxWorkers int
	peak       atomic.Int64
}

// New returns a Runner over target, sharing it read-only across every
// worker goroutine. maxWorkers <= 0 means runtime.NumCPU().
func New(target regclass.TargetInfo, mri regclass.MachineRegInfo, aci regclass.AllocatableInfo, maxWorkers int) *Runner {
	if maxWorkers <= 0 {
		maxWorkers = runtime.NumCPU()
	}
	return &Runner{target: target, mri: mri, aci: aci, maxWorkers: maxWorkers}
}

// PeakConcurrency returns the largest number of regions this Runner has ever
// tracked at once, across every RunAll call.
func (r *Runner) PeakConcurrency() int64 {
	return r.peak.Load()
}

// RunAll tracks every region in regions concurrently, bounded by
// maxWorkers, and returns one RegionResult per region in the same order
// they were given. A panic inside a single region's tracker (an invariant
// breach per the tracker's error model) is recovered at that region's
// goroutine boundary and reported as that region's Err, without aborting
// the other regions in flight. RunAll itself only returns a non-nil error
// if ctx is canceled before every region has been started; a region skipped
// that way keeps a zero RegionResult.
func RunAll(ctx context.Context, r *Runner, regions []Region) ([]RegionResult, error) {
	results := make([]RegionResult, len(regions))
	sem := make(chan struct{}, r.maxWorkers)

	var wg sync.WaitGroup
	var inFlight atomic.Int64
	var errs error
	var errsMu sync.Mutex

	for i, region := range regions {
		select {
		case <-ctx.Done():
			errsMu.Lock()
			errs = multierr.Append(errs, ctx.Err())
			errsMu.Unlock()
			continue
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(i int, region Region) {
			defer wg.Done()
			defer func() { <-sem }()

			n := inFlight.Inc()
			for {
				peak := r.peak.Load()
				if n <= peak || r.peak.CAS(peak, n) {
					break
				}
			}
			defer inFlight.Dec()

			results[i] = r.runOne(region)
		}(i, region)
	}

	wg.Wait()
	return results, errs
}

func (r *Runner) runOne(region Region) (res RegionResult) {
	res.Name = region.Name
	defer func() {
		if v := recover(); v != nil {
			res.Err = diag.FromPanic(region.Name, v)
		}
	}()

	var oracle liveinterval.Oracle
	if region.Variant == pressure.VariantInterval {
		oracle = liveinterval.Compute(region.Block)
	}

	tr := pressure.NewTracker(r.target, r.mri, r.aci, region.Block, region.Variant, oracle)
	tr.Init(0)
	for tr.Advance() {
	}
	res.Result = tr.Result()
	return res
}
