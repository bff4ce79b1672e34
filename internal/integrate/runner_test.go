package integrate

import (
	"math"
	"testing"

	"github.com/nkarsten/flownet/internal/simerr"
	"github.com/nkarsten/flownet/internal/transient"
)

func validOptions() SimOptions {
	return SimOptions{
		Dt:            0.1,
		TEnd:          0.2,
		MaxSteps:      1000,
		MinDt:         0.01,
		MaxRetries:    4,
		CutbackFactor: 0.5,
		GrowFactor:    2.0,
	}
}

func TestOptionValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SimOptions)
	}{
		{"zero dt", func(o *SimOptions) { o.Dt = 0 }},
		{"negative dt", func(o *SimOptions) { o.Dt = -0.1 }},
		{"negative t_end", func(o *SimOptions) { o.TEnd = -1 }},
		{"zero max_steps", func(o *SimOptions) { o.MaxSteps = 0 }},
		{"zero min_dt", func(o *SimOptions) { o.MinDt = 0 }},
		{"min_dt above dt", func(o *SimOptions) { o.MinDt = 0.2 }},
		{"zero cutback", func(o *SimOptions) { o.CutbackFactor = 0 }},
		{"cutback of one", func(o *SimOptions) { o.CutbackFactor = 1 }},
		{"grow below one", func(o *SimOptions) { o.GrowFactor = 0.9 }},
		{"negative retries", func(o *SimOptions) { o.MaxRetries = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := validOptions()
			tt.mutate(&opts)
			_, err := RunSim(decayModel{}, opts)
			if err == nil {
				t.Fatal("expected rejection")
			}
			if simerr.KindOf(err) != simerr.KindInvalidArg {
				t.Errorf("expected invalid-arg, got %v", err)
			}
		})
	}
}

// flakyModel fails its first derivative evaluation with a retryable error,
// then behaves like decayModel.
type flakyModel struct {
	decayModel
	failed bool
}

func (m *flakyModel) RHS(t float64, x transient.State) (transient.State, error) {
	if !m.failed {
		m.failed = true
		return nil, simerr.AsRetryable(simerr.Convergencef("startup stall"))
	}
	return m.decayModel.RHS(t, x)
}

func TestRunSimCutbackRetry(t *testing.T) {
	rec, err := RunSim(&flakyModel{}, validOptions())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if rec.CutbackRetries != 1 {
		t.Errorf("expected exactly 1 cutback retry, got %d", rec.CutbackRetries)
	}
	if len(rec.Times) < 2 {
		t.Fatal("expected recorded steps")
	}
	if rec.Times[0] != 0 {
		t.Errorf("expected initial record at t=0, got %g", rec.Times[0])
	}
	if rec.Times[1] >= 0.1 {
		t.Errorf("first step after a cutback must be shorter than dt, got %g", rec.Times[1])
	}
	last := rec.Times[len(rec.Times)-1]
	if math.Abs(last-0.2) > 1e-9 {
		t.Errorf("expected final record at t_end, got %g", last)
	}
}

// fatalModel fails with a non-retryable error.
type fatalModel struct{ decayModel }

func (fatalModel) RHS(t float64, x transient.State) (transient.State, error) {
	return nil, simerr.InvalidStatef("backend rejected state")
}

func TestRunSimFatalPropagates(t *testing.T) {
	rec, err := RunSim(fatalModel{}, validOptions())
	if err == nil {
		t.Fatal("expected fatal failure")
	}
	if simerr.KindOf(err) != simerr.KindInvalidState {
		t.Errorf("expected invalid-state error, got %v", err)
	}
	if rec.CutbackRetries != 0 {
		t.Errorf("fatal failures must not be retried, got %d retries", rec.CutbackRetries)
	}
}

// stubbornModel always fails retryably.
type stubbornModel struct{ decayModel }

func (stubbornModel) RHS(t float64, x transient.State) (transient.State, error) {
	return nil, simerr.AsRetryable(simerr.Convergencef("never converges"))
}

func TestRunSimRetryExhaustion(t *testing.T) {
	opts := validOptions()
	opts.MaxRetries = 3
	rec, err := RunSim(stubbornModel{}, opts)
	if err == nil {
		t.Fatal("expected retry exhaustion")
	}
	if simerr.KindOf(err) != simerr.KindConvergenceFailed {
		t.Errorf("expected convergence failure, got %v", err)
	}
	if rec.CutbackRetries != 3 {
		t.Errorf("expected 3 retries before giving up, got %d", rec.CutbackRetries)
	}
}

func TestRunSimDecimation(t *testing.T) {
	opts := validOptions()
	opts.TEnd = 0.5
	opts.RecordEvery = 3
	rec, err := RunSim(decayModel{}, opts)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	// 5 steps: records at t=0, step 3, and the forced final record.
	if len(rec.Times) != 3 {
		t.Fatalf("expected 3 records, got %d (%v)", len(rec.Times), rec.Times)
	}
	if math.Abs(rec.Times[2]-0.5) > 1e-9 {
		t.Errorf("final state must always be recorded, got t=%g", rec.Times[2])
	}
}

func TestRunSimStepBudget(t *testing.T) {
	opts := validOptions()
	opts.TEnd = 100
	opts.MaxSteps = 2
	_, err := RunSim(decayModel{}, opts)
	if err == nil {
		t.Fatal("expected step budget exhaustion")
	}
}

func TestRunSimProgressCallback(t *testing.T) {
	opts := validOptions()
	var events []Progress
	opts.Progress = func(p Progress) { events = append(events, p) }
	if _, err := RunSim(decayModel{}, opts); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 progress events, got %d", len(events))
	}
	last := events[len(events)-1]
	if last.Frac < 0.999 {
		t.Errorf("expected completion fraction ~1, got %g", last.Frac)
	}
	if last.Step != 2 {
		t.Errorf("expected step index 2, got %d", last.Step)
	}
}

// observingModel records StepAccepted notifications.
type observingModel struct {
	decayModel
	accepted []float64
}

func (m *observingModel) StepAccepted(t, dt float64, x transient.State) {
	m.accepted = append(m.accepted, dt)
}

func TestRunSimNotifiesObserver(t *testing.T) {
	m := &observingModel{}
	if _, err := RunSim(m, validOptions()); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(m.accepted) != 2 {
		t.Fatalf("expected 2 accepted steps, got %d", len(m.accepted))
	}
	for _, dt := range m.accepted {
		if dt <= 0 {
			t.Errorf("accepted step size must be positive, got %g", dt)
		}
	}
}

func TestRunSimZeroDuration(t *testing.T) {
	opts := validOptions()
	opts.TEnd = 0
	rec, err := RunSim(decayModel{}, opts)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if rec.Steps != 0 || len(rec.Times) != 1 {
		t.Errorf("zero duration must record only the initial state, got %d steps %d records",
			rec.Steps, len(rec.Times))
	}
}
