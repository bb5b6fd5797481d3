package app

import (
	"context"
	"time"

	"resort_concierge/internal/domain"
)

// Default search windows, in days from today.
const (
	DefaultWindowDays = 90
	WidenedWindowDays = 280
)

type FallbackState int

const (
	StateNoDateFilter FallbackState = iota
	StateExplicitDateFilter
	StateProbing
	StateWidened
	StateNarrowed
	StateResolved
)

func (s FallbackState) String() string {
	switch s {
	case StateNoDateFilter:
		return "no_date_filter"
	case StateExplicitDateFilter:
		return "explicit_date_filter"
	case StateProbing:
		return "probing"
	case StateWidened:
		return "widened"
	case StateNarrowed:
		return "narrowed"
	case StateResolved:
		return "resolved"
	}
	return "unknown"
}

// FallbackStep is one transition of the window controller.
type FallbackStep struct {
	State FallbackState
	// Origin is the entry state; the probe outcome is interpreted against it.
	Origin FallbackState
}

// Transition advances the controller by one step. found is only consulted
// when leaving StateProbing. Terminal states stay put.
func Transition(step FallbackStep, found bool) FallbackStep {
	switch step.State {
	case StateNoDateFilter, StateExplicitDateFilter:
		return FallbackStep{State: StateProbing, Origin: step.State}
	case StateProbing:
		if found {
			return FallbackStep{State: StateResolved, Origin: step.Origin}
		}
		if step.Origin == StateExplicitDateFilter {
			return FallbackStep{State: StateNarrowed, Origin: step.Origin}
		}
		return FallbackStep{State: StateWidened, Origin: step.Origin}
	case StateWidened, StateNarrowed:
		return FallbackStep{State: StateResolved, Origin: step.Origin}
	}
	return step
}

// Prober runs the existence check for a candidate date predicate.
type Prober func(ctx context.Context, dates []domain.Predicate) (bool, error)

// WindowOutcome is what the controller settled on.
type WindowOutcome struct {
	Dates []domain.Predicate
	// Path is the state that decided the window: resolved (first probe hit),
	// widened or narrowed.
	Path   FallbackState
	From   time.Time // zero for year/day-part predicates
	To     time.Time
	Probes int
}

// ResolveWindow runs the two-attempt window selection: one probe against the
// initial predicate, then at most one replacement window that is used as-is.
func ResolveWindow(ctx context.Context, res DateResolution, today time.Time, probe Prober) (WindowOutcome, error) {
	today = domain.DateOnly(today)
	step := FallbackStep{State: StateNoDateFilter}
	out := WindowOutcome{
		Dates: CheckInWindow(today, today.AddDate(0, 0, DefaultWindowDays)),
		From:  today,
		To:    today.AddDate(0, 0, DefaultWindowDays),
	}
	if res.Supplied() {
		step.State = StateExplicitDateFilter
		out.Dates, out.From, out.To = res.Predicates(), res.From, res.To
	}

	for step.State != StateResolved {
		switch step.State {
		case StateProbing:
			found, err := probe(ctx, out.Dates)
			out.Probes++
			if err != nil {
				return WindowOutcome{}, err
			}
			if found {
				out.Path = StateResolved
			}
			step = Transition(step, found)
			continue
		case StateWidened:
			out.Path = StateWidened
			out.From, out.To = today, today.AddDate(0, 0, WidenedWindowDays)
			out.Dates = CheckInWindow(out.From, out.To)
		case StateNarrowed:
			out.Path = StateNarrowed
			out.From, out.To = today, today.AddDate(0, 0, DefaultWindowDays)
			out.Dates = CheckInWindow(out.From, out.To)
		}
		step = Transition(step, false)
	}
	return out, nil
}
