package job

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/james-see/rollgen/pkg/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastPolicy = Policy{Interval: time.Millisecond, MaxAttempts: 15}

// scriptedChecker answers status queries from a fixed script, repeating the
// last entry once the script runs out.
type scriptedChecker struct {
	mu     sync.Mutex
	script []reply
	calls  int
}

type reply struct {
	status string
	err    error
}

func (s *scriptedChecker) Status(ctx context.Context, songID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	if i >= len(s.script) {
		i = len(s.script) - 1
	}
	s.calls++
	return s.script[i].status, s.script[i].err
}

func (s *scriptedChecker) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func repeat(r reply, n int) []reply {
	out := make([]reply, n)
	for i := range out {
		out[i] = r
	}
	return out
}

type recordingNavigator struct {
	mu    sync.Mutex
	dests []Destination
}

func (n *recordingNavigator) Navigate(d Destination) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.dests = append(n.dests, d)
}

func TestPollerCompletesOnFifteenthCall(t *testing.T) {
	checker := &scriptedChecker{script: append(repeat(reply{status: "pending"}, 14), reply{status: "complete"})}
	nav := &recordingNavigator{}

	res, err := NewPoller(checker, WithPolicy(fastPolicy), WithNavigator(nav)).Run(context.Background(), "abc")

	require.NoError(t, err)
	assert.Equal(t, Complete, res.State)
	assert.Equal(t, 15, res.Attempts)
	assert.Equal(t, 15, checker.Calls())
	require.Len(t, nav.dests, 1)
	assert.Equal(t, ResultsFor("abc"), nav.dests[0])
	assert.Equal(t, "/results?song_id=abc", nav.dests[0].URL())
}

func TestPollerTimesOutAfterSixteenCalls(t *testing.T) {
	checker := &scriptedChecker{script: repeat(reply{status: "pending"}, 20)}
	nav := &recordingNavigator{}

	res, err := NewPoller(checker, WithPolicy(fastPolicy), WithNavigator(nav)).Run(context.Background(), "abc")

	require.NoError(t, err)
	assert.Equal(t, TimedOut, res.State)
	assert.Equal(t, 16, checker.Calls())
	require.Len(t, nav.dests, 1)
	assert.Equal(t, ErrorFor(ErrorTimeout, "abc"), nav.dests[0])
}

func TestPollerFailsOnThirdCall(t *testing.T) {
	checker := &scriptedChecker{script: []reply{{status: "pending"}, {status: "waiting"}, {status: "failed"}}}
	nav := &recordingNavigator{}

	res, err := NewPoller(checker, WithPolicy(fastPolicy), WithNavigator(nav)).Run(context.Background(), "abc")

	require.NoError(t, err)
	assert.Equal(t, Failed, res.State)
	assert.Equal(t, 3, checker.Calls())
	require.Len(t, nav.dests, 1)
	assert.Equal(t, ErrorGeneration, nav.dests[0].ErrorID)
	assert.Equal(t, "/error?errorId=2&songId=abc", nav.dests[0].URL())
}

func TestPollerToleratesTransientErrors(t *testing.T) {
	boom := errors.New("connection reset")
	checker := &scriptedChecker{script: []reply{{err: boom}, {err: boom}, {status: "pending"}, {status: "complete"}}}
	var attempts []Attempt

	res, err := NewPoller(checker, WithPolicy(fastPolicy), WithOnAttempt(func(a Attempt) {
		attempts = append(attempts, a)
	})).Run(context.Background(), "abc")

	require.NoError(t, err)
	assert.Equal(t, Complete, res.State)
	require.Len(t, attempts, 4)
	assert.ErrorIs(t, attempts[0].Err, boom)
	assert.Equal(t, Pending, attempts[0].State)
	assert.Equal(t, 4, attempts[3].Number)
}

func TestPollerErrorsStillCountTowardsTimeout(t *testing.T) {
	checker := &scriptedChecker{script: []reply{{err: errors.New("down")}}}
	nav := &recordingNavigator{}

	res, err := NewPoller(checker, WithPolicy(Policy{Interval: time.Millisecond, MaxAttempts: 3}), WithNavigator(nav)).
		Run(context.Background(), "abc")

	require.NoError(t, err)
	assert.Equal(t, TimedOut, res.State)
	assert.Equal(t, 4, checker.Calls())
	require.Len(t, nav.dests, 1)
}

func TestPollerCancelledDoesNotNavigate(t *testing.T) {
	checker := &scriptedChecker{script: []reply{{status: "pending"}}}
	nav := &recordingNavigator{}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	res, err := NewPoller(checker, WithPolicy(Policy{Interval: 5 * time.Millisecond, MaxAttempts: 1000}), WithNavigator(nav)).
		Run(ctx, "abc")

	assert.ErrorIs(t, err, ErrCancelled)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, Pending, res.State)
	assert.Empty(t, nav.dests)
}

func TestPollerEmptySongID(t *testing.T) {
	checker := &scriptedChecker{script: []reply{{status: "complete"}}}
	nav := &recordingNavigator{}

	_, err := NewPoller(checker, WithNavigator(nav)).Run(context.Background(), "")

	assert.ErrorIs(t, err, ErrNoSongID)
	assert.Equal(t, 0, checker.Calls())
	require.Len(t, nav.dests, 1)
	assert.Equal(t, ErrorUnavailable, nav.dests[0].ErrorID)
}

func TestPollerDefaults(t *testing.T) {
	p := NewPoller(&scriptedChecker{}, WithPolicy(Policy{}))
	assert.Equal(t, DefaultPolicy, p.Policy())
}

func TestPollerAgainstHTTPBackend(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if !strings.HasPrefix(r.URL.Path, "/check_status/song-7") {
			http.NotFound(w, r)
			return
		}
		switch {
		case n == 2:
			http.Error(w, "busy", http.StatusInternalServerError)
		case n < 4:
			_, _ = w.Write([]byte("waiting"))
		default:
			_, _ = w.Write([]byte("complete"))
		}
	}))
	defer srv.Close()

	nav := &recordingNavigator{}
	res, err := NewPoller(client.New(srv.URL), WithPolicy(fastPolicy), WithNavigator(nav)).
		Run(context.Background(), "song-7")

	require.NoError(t, err)
	assert.Equal(t, Complete, res.State)
	assert.Equal(t, 4, res.Attempts)
	require.Len(t, nav.dests, 1)
	assert.Equal(t, "/results?song_id=song-7", nav.dests[0].URL())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "pending", Pending.String())
	assert.Equal(t, "timed out", TimedOut.String())
	assert.False(t, Pending.IsTerminal())
	assert.True(t, Complete.IsTerminal())
	assert.True(t, Failed.IsTerminal())
	assert.True(t, TimedOut.IsTerminal())
}
