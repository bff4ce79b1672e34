package integrate

import (
	"math"
	"time"

	"github.com/nkarsten/flownet/internal/simerr"
	"github.com/nkarsten/flownet/internal/transient"
)

// SimOptions configures a transient run. All numeric bounds are mandatory
// and validated eagerly; DefaultSimOptions supplies a complete valid set.
type SimOptions struct {
	Dt          float64 // nominal step size, s
	TEnd        float64 // s
	MaxSteps    int
	RecordEvery int // decimation; <=0 means every step

	MinDt         float64 // floor for cutback steps, s
	MaxRetries    int     // retries per step before giving up
	CutbackFactor float64 // in (0,1)
	GrowFactor    float64 // >= 1, recovery rate after a cutback

	Stepper  Stepper // nil selects RK4
	Progress func(Progress)
}

func DefaultSimOptions() SimOptions {
	return SimOptions{
		Dt:            0.01,
		TEnd:          10.0,
		MaxSteps:      10_000_000,
		RecordEvery:   1,
		MinDt:         1e-5,
		MaxRetries:    8,
		CutbackFactor: 0.5,
		GrowFactor:    2.0,
	}
}

// Progress is the per-step event record handed to the optional callback.
type Progress struct {
	Step     int
	Time     float64
	Frac     float64
	Cutbacks int
	LastDt   float64
	Elapsed  time.Duration
}

// SimRecord holds the recorded trajectory and run counters.
type SimRecord struct {
	Times          []float64
	States         []transient.State
	Steps          int
	CutbackRetries int
	Elapsed        time.Duration
}

// Validate rejects each malformed option independently.
func (o SimOptions) Validate() error {
	if o.Dt <= 0 {
		return simerr.InvalidArgf("dt must be positive, got %g", o.Dt)
	}
	if o.TEnd < 0 {
		return simerr.InvalidArgf("t_end must be non-negative, got %g", o.TEnd)
	}
	if o.MaxSteps <= 0 {
		return simerr.InvalidArgf("max_steps must be positive, got %d", o.MaxSteps)
	}
	if o.MinDt <= 0 {
		return simerr.InvalidArgf("min_dt must be positive, got %g", o.MinDt)
	}
	if o.MinDt > o.Dt {
		return simerr.InvalidArgf("min_dt %g exceeds dt %g", o.MinDt, o.Dt)
	}
	if o.CutbackFactor <= 0 || o.CutbackFactor >= 1 {
		return simerr.InvalidArgf("cutback_factor must be in (0,1), got %g", o.CutbackFactor)
	}
	if o.GrowFactor < 1 {
		return simerr.InvalidArgf("grow_factor must be >= 1, got %g", o.GrowFactor)
	}
	if o.MaxRetries < 0 {
		return simerr.InvalidArgf("max_retries must be non-negative, got %d", o.MaxRetries)
	}
	return nil
}

// RunSim drives fixed-step integration with cutback retry. Retryable step
// failures shrink the step by CutbackFactor (floored at MinDt) up to
// MaxRetries times; any other failure, or retry exhaustion, aborts. After a
// successful step the nominal step grows back toward Dt by GrowFactor if a
// cutback happened this step, otherwise it resets to Dt. Every RecordEvery-th
// accepted step is recorded, and the final state always is.
func RunSim(model transient.Model, opts SimOptions) (*SimRecord, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	stepper := opts.Stepper
	if stepper == nil {
		stepper = NewRK4()
	}
	recordEvery := opts.RecordEvery
	if recordEvery <= 0 {
		recordEvery = 1
	}

	start := time.Now()
	x := model.InitialState()
	t := 0.0
	nominal := opts.Dt
	rec := &SimRecord{
		Times:  []float64{0},
		States: []transient.State{x.Clone()},
	}

	observer, observes := model.(transient.StepObserver)

	const timeEps = 1e-12
	lastRecorded := true
	for t < opts.TEnd-timeEps {
		if rec.Steps >= opts.MaxSteps {
			rec.Elapsed = time.Since(start)
			return rec, simerr.Convergencef(
				"step budget %d exhausted at t=%g of %g", opts.MaxSteps, t, opts.TEnd)
		}

		stepDt := math.Min(nominal, opts.TEnd-t)
		cutThisStep := 0
		var newX transient.State
		for {
			var err error
			newX, err = stepper.Step(model, t, x, stepDt)
			if err == nil {
				break
			}
			if !simerr.IsRetryable(err) {
				rec.Elapsed = time.Since(start)
				return rec, err
			}
			if cutThisStep >= opts.MaxRetries {
				rec.Elapsed = time.Since(start)
				return rec, &simerr.Error{
					Kind: simerr.KindConvergenceFailed,
					Node: -1, Comp: -1,
					Msg: "step retries exhausted",
					Err: err,
				}
			}
			cutThisStep++
			rec.CutbackRetries++
			stepDt = math.Max(stepDt*opts.CutbackFactor, opts.MinDt)
		}

		t += stepDt
		x = newX
		rec.Steps++
		if observes {
			observer.StepAccepted(t, stepDt, x)
		}

		if cutThisStep > 0 {
			nominal = math.Min(stepDt*opts.GrowFactor, opts.Dt)
		} else {
			nominal = opts.Dt
		}

		lastRecorded = rec.Steps%recordEvery == 0
		if lastRecorded {
			rec.Times = append(rec.Times, t)
			rec.States = append(rec.States, x.Clone())
		}

		if opts.Progress != nil {
			frac := 1.0
			if opts.TEnd > 0 {
				frac = t / opts.TEnd
			}
			opts.Progress(Progress{
				Step:     rec.Steps,
				Time:     t,
				Frac:     frac,
				Cutbacks: rec.CutbackRetries,
				LastDt:   stepDt,
				Elapsed:  time.Since(start),
			})
		}
	}

	if !lastRecorded {
		rec.Times = append(rec.Times, t)
		rec.States = append(rec.States, x.Clone())
	}
	rec.Elapsed = time.Since(start)
	return rec, nil
}
