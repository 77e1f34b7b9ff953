package poller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azhengyongqin/audiobook-hub/internal/apperr"
	"github.com/azhengyongqin/audiobook-hub/internal/metrics"
	"github.com/azhengyongqin/audiobook-hub/internal/view"
	"github.com/azhengyongqin/audiobook-hub/sdk"
)

const testInterval = 5 * time.Millisecond

func intPtr(v int) *int { return &v }

type step struct {
	resp *sdk.StatusResponse
	err  error
}

// fakeSource 按任务回放预设的状态响应；最后一个响应会一直重复
type fakeSource struct {
	mu      sync.Mutex
	steps   map[string][]step
	calls   map[string]int
	gates   map[string]chan struct{}
	entered map[string]chan struct{}
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		steps:   map[string][]step{},
		calls:   map[string]int{},
		gates:   map[string]chan struct{}{},
		entered: map[string]chan struct{}{},
	}
}

func (f *fakeSource) script(taskID string, steps ...step) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.steps[taskID] = steps
}

// hold 让 taskID 的请求阻塞，直到返回的 release 被调用
func (f *fakeSource) hold(taskID string) (entered <-chan struct{}, release func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	gate := make(chan struct{})
	in := make(chan struct{})
	f.gates[taskID] = gate
	f.entered[taskID] = in
	var once sync.Once
	return in, func() { once.Do(func() { close(gate) }) }
}

func (f *fakeSource) GetStatus(_ context.Context, taskID string) (*sdk.StatusResponse, error) {
	f.mu.Lock()
	n := f.calls[taskID]
	f.calls[taskID]++
	steps := f.steps[taskID]
	gate := f.gates[taskID]
	in := f.entered[taskID]
	if in != nil {
		close(in)
		delete(f.entered, taskID)
	}
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if len(steps) == 0 {
		return nil, errors.New("no scripted response")
	}
	if n >= len(steps) {
		n = len(steps) - 1
	}
	return steps[n].resp, steps[n].err
}

func (f *fakeSource) DownloadURL(taskID string) string {
	return "http://backend/api/download/" + taskID
}

func (f *fakeSource) Calls(taskID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[taskID]
}

func newPoller(t *testing.T, src StatusSource, opts ...Option) (*Poller, *view.Controller) {
	t.Helper()
	v := view.NewController(zerolog.Nop())
	p := New(src, v, append([]Option{WithInterval(testInterval)}, opts...)...)
	t.Cleanup(p.Close)
	return p, v
}

func start(t *testing.T, p *Poller, v *view.Controller, taskID string) {
	t.Helper()
	p.Stop()
	v.Reset()
	_, err := p.Start(taskID)
	require.NoError(t, err)
}

func waitDone(t *testing.T, p *Poller) {
	t.Helper()
	done := p.Done()
	require.NotNil(t, done)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("session did not finish")
	}
}

func TestPoller_CompleteWithPartialFailure(t *testing.T) {
	src := newFakeSource()
	src.script("t-1",
		step{resp: &sdk.StatusResponse{Status: sdk.TaskStatusProcessing, Progress: 40}},
		step{resp: &sdk.StatusResponse{Status: sdk.TaskStatusComplete, Progress: 100, TotalChunks: intPtr(10), SuccessfulChunks: intPtr(8)}},
	)
	p, v := newPoller(t, src)

	start(t, p, v, "t-1")
	waitDone(t, p)

	assert.Equal(t, StateStoppedComplete, p.State())
	s := v.Snapshot()
	assert.Equal(t, view.StateSucceededWithWarning, s.State)
	assert.True(t, s.Visible(view.PrimaryResult))
	require.NotNil(t, s.Result)
	assert.Equal(t, "http://backend/api/download/t-1", s.Result.URL)
	assert.Contains(t, s.Warning.Text, "2 out of 10")

	// 终态之后不再发出请求
	calls := src.Calls("t-1")
	assert.Equal(t, 2, calls)
	time.Sleep(10 * testInterval)
	assert.Equal(t, calls, src.Calls("t-1"))
}

func TestPoller_TaskFailed(t *testing.T) {
	src := newFakeSource()
	src.script("t-1",
		step{resp: &sdk.StatusResponse{Status: sdk.TaskStatusProcessing, Progress: 20}},
		step{resp: &sdk.StatusResponse{Status: sdk.TaskStatusFailed, Progress: 60, Error: "synthesis timeout"}},
	)
	p, v := newPoller(t, src)

	start(t, p, v, "t-1")
	waitDone(t, p)

	assert.Equal(t, StateStoppedFailed, p.State())
	s := v.Snapshot()
	assert.Equal(t, view.StateFailed, s.State)
	assert.Equal(t, 60, s.Progress)
	assert.Equal(t, "Conversion failed: synthesis timeout", s.Error.Text)
	assert.False(t, s.Loading)
}

func TestPoller_StatusErrorEndsSession(t *testing.T) {
	tests := []struct {
		name string
		step step
	}{
		{name: "transport error", step: step{err: errors.New("connection refused")}},
		{name: "rejected", step: step{err: &sdk.RequestError{Op: "get status", StatusCode: 500}}},
		{name: "unknown status", step: step{resp: &sdk.StatusResponse{Status: "exploded"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newFakeSource()
			src.script("t-1", tt.step)
			p, v := newPoller(t, src)

			start(t, p, v, "t-1")
			waitDone(t, p)

			assert.Equal(t, StateStoppedError, p.State())
			s := v.Snapshot()
			assert.Equal(t, view.StateErrored, s.State)
			assert.Equal(t, apperr.MsgStatusCheck, s.Error.Text)
			assert.Equal(t, 1, src.Calls("t-1"))
		})
	}
}

func TestPoller_RetryBeforeGivingUp(t *testing.T) {
	src := newFakeSource()
	src.script("t-1",
		step{err: errors.New("timeout")},
		step{resp: &sdk.StatusResponse{Status: sdk.TaskStatusComplete, Progress: 100}},
	)
	p, v := newPoller(t, src, WithRetry(sdk.RetryConfig{MaxRetries: 2, InitialBackoff: time.Millisecond, BackoffFactor: 2}))

	start(t, p, v, "t-1")
	waitDone(t, p)

	assert.Equal(t, StateStoppedComplete, p.State())
	assert.Equal(t, view.StateSucceeded, v.Snapshot().State)
	assert.False(t, v.Snapshot().Warning.Visible)
}

func TestPoller_SupersededResponseDiscarded(t *testing.T) {
	src := newFakeSource()
	src.script("t-1", step{resp: &sdk.StatusResponse{Status: sdk.TaskStatusComplete, Progress: 100}})
	src.script("t-2", step{resp: &sdk.StatusResponse{Status: sdk.TaskStatusProcessing, Progress: 10}})
	entered, release := src.hold("t-1")
	defer release()

	p, v := newPoller(t, src)
	stale := testutil.ToFloat64(metrics.StaleResponsesTotal)

	start(t, p, v, "t-1")
	oldDone := p.Done()
	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("first session never polled")
	}

	// 第一个会话的请求仍在途中，启动第二个会话
	v.Reset()
	_, err := p.Start("t-2")
	require.NoError(t, err)
	_, taskID, ok := p.Current()
	require.True(t, ok)
	assert.Equal(t, "t-2", taskID)

	release()
	select {
	case <-oldDone:
	case <-time.After(2 * time.Second):
		t.Fatal("superseded session did not exit")
	}

	require.Eventually(t, func() bool {
		return v.Snapshot().State == view.StatePolling
	}, 2*time.Second, testInterval)

	s := v.Snapshot()
	assert.Equal(t, "t-2", s.TaskID)
	assert.Nil(t, s.Result)
	assert.Equal(t, StateActive, p.State())
	assert.Equal(t, 1, src.Calls("t-1"))
	assert.Equal(t, stale+1, testutil.ToFloat64(metrics.StaleResponsesTotal))
}

func TestPoller_StartSupersedesActive(t *testing.T) {
	src := newFakeSource()
	src.script("t-1", step{resp: &sdk.StatusResponse{Status: sdk.TaskStatusProcessing, Progress: 5}})
	src.script("t-2", step{resp: &sdk.StatusResponse{Status: sdk.TaskStatusProcessing, Progress: 5}})
	p, v := newPoller(t, src)

	superseded := testutil.ToFloat64(metrics.SessionsSupersededTotal)

	start(t, p, v, "t-1")
	first := p.Done()

	v.Reset()
	_, err := p.Start("t-2")
	require.NoError(t, err)

	select {
	case <-first:
	case <-time.After(2 * time.Second):
		t.Fatal("old session still running")
	}
	assert.Equal(t, superseded+1, testutil.ToFloat64(metrics.SessionsSupersededTotal))

	calls := src.Calls("t-1")
	time.Sleep(10 * testInterval)
	assert.Equal(t, calls, src.Calls("t-1"))
	assert.Greater(t, src.Calls("t-2"), 0)
}

func TestPoller_StartWithoutResetRebindsView(t *testing.T) {
	src := newFakeSource()
	src.script("t-1", step{resp: &sdk.StatusResponse{Status: sdk.TaskStatusProcessing, Progress: 40}})
	src.script("t-2",
		step{resp: &sdk.StatusResponse{Status: sdk.TaskStatusProcessing, Progress: 10}},
		step{resp: &sdk.StatusResponse{Status: sdk.TaskStatusComplete, Progress: 100}},
	)
	p, v := newPoller(t, src)

	start(t, p, v, "t-1")
	require.Eventually(t, func() bool {
		return v.Snapshot().Progress == 40
	}, 2*time.Second, testInterval)

	// 直接接管槽位，不经过 Reset
	_, err := p.Start("t-2")
	require.NoError(t, err)
	waitDone(t, p)

	assert.Equal(t, StateStoppedComplete, p.State())
	s := v.Snapshot()
	assert.Equal(t, view.StateSucceeded, s.State)
	assert.Equal(t, "t-2", s.TaskID)
	assert.False(t, s.Loading)
	require.NotNil(t, s.Result)
	assert.Equal(t, "http://backend/api/download/t-2", s.Result.URL)
}

func TestPoller_StartEmptyTaskID(t *testing.T) {
	p, v := newPoller(t, newFakeSource())

	_, err := p.Start("")
	assert.ErrorIs(t, err, ErrEmptyTaskID)
	assert.Equal(t, StateIdle, p.State())
	assert.Equal(t, view.StateInitial, v.Snapshot().State)
}

func TestPoller_Stop(t *testing.T) {
	src := newFakeSource()
	src.script("t-1", step{resp: &sdk.StatusResponse{Status: sdk.TaskStatusProcessing, Progress: 5}})
	p, v := newPoller(t, src)

	assert.Equal(t, StateIdle, p.State())
	start(t, p, v, "t-1")
	p.Stop()
	waitDone(t, p)

	assert.Equal(t, StateCancelled, p.State())
}

func TestPoller_StartAfterClose(t *testing.T) {
	p := New(newFakeSource(), view.NewController(zerolog.Nop()))
	p.Close()

	_, err := p.Start("t-1")
	assert.ErrorIs(t, err, ErrClosed)
}
