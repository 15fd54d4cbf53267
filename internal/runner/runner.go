// Package runner owns the run-configuration draft and the submission state
// machine: Idle -> Validating -> Submitting -> (Succeeded | Failed) -> Idle.
package runner

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/quantfold/backtestctl/internal/core"
	"go.uber.org/zap"
)

// State is the submission state machine state.
type State string

const (
	StateIdle       State = "idle"
	StateValidating State = "validating"
	StateSubmitting State = "submitting"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
)

// Level classifies a notification for display.
type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// Notification is a user-visible outcome of a submission attempt. Every
// failure path produces one; nothing is silently dropped.
type Notification struct {
	Level   Level
	Message string
	Result  *core.RunResult
	Err     error
}

// Gateway is the submission slice of the service client.
type Gateway interface {
	SubmitBacktest(ctx context.Context, cfg core.RunConfig) (*core.RunResult, error)
}

// Refresher is the results store's refresh entry point.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Runner coordinates validation, submission and the post-success refresh.
// The draft is owned exclusively by the runner and mutated only through its
// setters.
type Runner struct {
	gw       Gateway
	store    Refresher
	validate *validator.Validate
	log      *zap.Logger

	mu    sync.Mutex
	draft core.RunConfig
	state State
	busy  bool
}

// New creates a runner with the default draft values.
func New(gw Gateway, store Refresher, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{
		gw:       gw,
		store:    store,
		validate: validator.New(),
		log:      log,
		draft:    core.DefaultRunConfig(),
		state:    StateIdle,
	}
}

// Draft returns a copy of the current run configuration.
func (r *Runner) Draft() core.RunConfig {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.draft
}

// SetStrategy sets the selected strategy id. An empty id clears the
// selection.
func (r *Runner) SetStrategy(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.draft.StrategyID = id
}

// SetSymbol sets the ticker symbol.
func (r *Runner) SetSymbol(symbol string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.draft.Symbol = symbol
}

// SetDates sets the backtest date range (YYYY-MM-DD strings).
func (r *Runner) SetDates(start, end string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.draft.StartDate = start
	r.draft.EndDate = end
}

// SetInitialCapital sets the starting capital.
func (r *Runner) SetInitialCapital(amount float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.draft.InitialCapital = amount
}

// State returns the current machine state.
func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Busy reports whether a submission is in flight.
func (r *Runner) Busy() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.busy
}

// Submit validates the draft and submits it to the service. The returned
// notification always reflects the outcome; the draft is never reset on
// success so the user can re-run with tweaks. The results store refresh is
// only requested after the create call has resolved successfully.
func (r *Runner) Submit(ctx context.Context) Notification {
	r.mu.Lock()
	if r.busy {
		r.mu.Unlock()
		return Notification{
			Level:   LevelError,
			Message: "a backtest submission is already running",
			Err:     core.ErrSubmitBusy,
		}
	}
	r.busy = true
	r.state = StateValidating
	cfg := r.draft
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.busy = false
		r.state = StateIdle
		r.mu.Unlock()
	}()

	if err := r.validateDraft(cfg); err != nil {
		r.setState(StateFailed)
		r.log.Info("submission rejected locally", zap.Error(err))
		return Notification{Level: LevelError, Message: userMessage(err), Err: err}
	}

	r.setState(StateSubmitting)
	result, err := r.gw.SubmitBacktest(ctx, cfg)
	if err != nil {
		r.setState(StateFailed)
		r.log.Warn("submission failed", zap.Error(err))
		return Notification{Level: LevelError, Message: userMessage(err), Err: err}
	}

	r.setState(StateSucceeded)

	// Refresh after the create call resolved, never speculatively. A refresh
	// failure keeps the stale list; the run itself still succeeded.
	if r.store != nil {
		if err := r.store.Refresh(ctx); err != nil {
			r.log.Warn("result refresh after submission failed", zap.Error(err))
		}
	}

	return Notification{
		Level: LevelInfo,
		Message: fmt.Sprintf("backtest complete: total return %s%%, %d trades",
			formatNumber(result.Metrics.TotalReturn), result.Metrics.TotalTrades),
		Result: result,
	}
}

// validateDraft enforces the client-side checks: strategy selected, parseable
// ordered dates, positive capital.
func (r *Runner) validateDraft(cfg core.RunConfig) error {
	if err := r.validate.Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return core.Invalid(fieldMessage(fieldErrs[0]))
		}
		return core.WrapError(core.ErrValidationFailed, err)
	}

	start, end, err := cfg.DateRange()
	if err != nil {
		return core.Invalid("dates must be YYYY-MM-DD")
	}
	if end.Before(start) {
		return core.Invalid("end date must not be earlier than start date")
	}
	return nil
}

func (r *Runner) setState(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Field() {
	case "StrategyID":
		return "select a strategy before submitting"
	case "InitialCapital":
		return "initial capital must be positive"
	case "StartDate", "EndDate":
		return "dates must be YYYY-MM-DD"
	default:
		return fmt.Sprintf("invalid field %s", fe.Field())
	}
}

// userMessage renders an error for the notification surface. A server
// rejection carries the service detail verbatim; transport failures get a
// generic message.
func userMessage(err error) string {
	var coreErr *core.Error
	if errors.As(err, &coreErr) {
		switch coreErr.Code {
		case core.ErrServerRejected.Code:
			return "backtest failed: " + coreErr.Message
		case core.ErrValidationFailed.Code:
			return coreErr.Message
		}
	}
	return "backtest service unavailable, try again"
}

// formatNumber renders a metric without trailing zeros so the notification
// shows the server value verbatim.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
