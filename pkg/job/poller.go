// Package job tracks a submitted generation job until it reaches a terminal
// state and decides where the user goes next.
package job

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/james-see/rollgen/internal/logger"
)

// State is the client-side view of a generation job
type State int

const (
	Pending State = iota
	Complete
	Failed
	TimedOut
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Complete:
		return "complete"
	case Failed:
		return "failed"
	case TimedOut:
		return "timed out"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// IsTerminal reports whether polling stops in this state
func (s State) IsTerminal() bool {
	return s != Pending
}

// Status bodies the service answers with; anything else means pending
const (
	StatusComplete = "complete"
	StatusFailed   = "failed"
)

// StatusChecker queries a job's status text
type StatusChecker interface {
	Status(ctx context.Context, songID string) (string, error)
}

// Policy is the fixed polling schedule
type Policy struct {
	Interval    time.Duration
	MaxAttempts int
}

// DefaultPolicy polls every 2s and gives up after 15 attempts (30s)
var DefaultPolicy = Policy{Interval: 2 * time.Second, MaxAttempts: 15}

// Attempt describes one status query
type Attempt struct {
	Number  int
	Status  string
	Err     error
	State   State
	Elapsed time.Duration
}

// Result is the outcome of a polling run
type Result struct {
	SongID      string
	State       State
	Attempts    int
	Elapsed     time.Duration
	Destination Destination
}

// ErrCancelled is returned when the context ends before a terminal state
var ErrCancelled = errors.New("polling cancelled")

// Poller drives the Pending → Complete/Failed/TimedOut state machine
type Poller struct {
	checker   StatusChecker
	policy    Policy
	navigator Navigator
	onAttempt func(Attempt)
}

// PollerOption configures a Poller
type PollerOption func(*Poller)

// WithPolicy overrides the polling schedule
func WithPolicy(policy Policy) PollerOption {
	return func(p *Poller) { p.policy = policy }
}

// WithNavigator sets where terminal destinations are delivered
func WithNavigator(n Navigator) PollerOption {
	return func(p *Poller) { p.navigator = n }
}

// WithOnAttempt registers a progress callback
func WithOnAttempt(f func(Attempt)) PollerOption {
	return func(p *Poller) { p.onAttempt = f }
}

// NewPoller creates a poller using DefaultPolicy
func NewPoller(checker StatusChecker, opts ...PollerOption) *Poller {
	p := &Poller{
		checker:   checker,
		policy:    DefaultPolicy,
		navigator: NavigatorFunc(func(Destination) {}),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.policy.Interval <= 0 {
		p.policy.Interval = DefaultPolicy.Interval
	}
	if p.policy.MaxAttempts <= 0 {
		p.policy.MaxAttempts = DefaultPolicy.MaxAttempts
	}
	return p
}

// Policy returns the effective polling schedule
func (p *Poller) Policy() Policy {
	return p.policy
}

// Run polls songID once per interval until the job completes, fails or runs
// out of attempts, then navigates exactly once. Failed queries are retried
// on the next interval. Cancelling ctx stops polling without navigating.
func (p *Poller) Run(ctx context.Context, songID string) (Result, error) {
	result := Result{SongID: songID, State: Pending}
	if songID == "" {
		result.Destination = ErrorFor(ErrorUnavailable, "")
		p.navigator.Navigate(result.Destination)
		return result, ErrNoSongID
	}

	start := time.Now()
	ticker := time.NewTicker(p.policy.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			result.Elapsed = time.Since(start)
			return result, fmt.Errorf("%w: %w", ErrCancelled, ctx.Err())
		case <-ticker.C:
		}

		status, err := p.checker.Status(ctx, songID)
		if err != nil && ctx.Err() != nil {
			result.Elapsed = time.Since(start)
			return result, fmt.Errorf("%w: %w", ErrCancelled, ctx.Err())
		}

		result.Attempts++
		result.Elapsed = time.Since(start)
		result.State = p.next(status, err, result.Attempts)

		if err != nil {
			logger.Warn("Status check failed, retrying", logger.Fields{
				"song_id": songID,
				"attempt": result.Attempts,
				"error":   err.Error(),
			})
		}
		if p.onAttempt != nil {
			p.onAttempt(Attempt{
				Number:  result.Attempts,
				Status:  status,
				Err:     err,
				State:   result.State,
				Elapsed: result.Elapsed,
			})
		}

		if !result.State.IsTerminal() {
			continue
		}

		result.Destination = destinationFor(result.State, songID)
		logger.Info("Job reached terminal state", logger.Fields{
			"song_id":  songID,
			"state":    result.State.String(),
			"attempts": result.Attempts,
		})
		p.navigator.Navigate(result.Destination)
		return result, nil
	}
}

// next applies one attempt's outcome. The attempt ceiling is checked after
// the status so a job completing on the last allowed attempt still wins.
func (p *Poller) next(status string, err error, attempts int) State {
	if err == nil {
		switch status {
		case StatusComplete:
			return Complete
		case StatusFailed:
			return Failed
		}
	}
	if attempts > p.policy.MaxAttempts {
		return TimedOut
	}
	return Pending
}

func destinationFor(state State, songID string) Destination {
	switch state {
	case Complete:
		return ResultsFor(songID)
	case Failed:
		return ErrorFor(ErrorGeneration, songID)
	default:
		return ErrorFor(ErrorTimeout, songID)
	}
}
