// Package poller 实现任务状态轮询。
//
// Poller 持有唯一的会话槽位：任何时刻至多一个会话处于 active。
// 启动新会话会先取消旧会话；每个响应在应用到展示层之前都会在槽位锁内
// 校验自己是否仍属于当前会话，因此被替换的会话的迟到响应一定会被丢弃。
package poller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/azhengyongqin/audiobook-hub/internal/apperr"
	"github.com/azhengyongqin/audiobook-hub/internal/metrics"
	"github.com/azhengyongqin/audiobook-hub/internal/model"
	"github.com/azhengyongqin/audiobook-hub/sdk"
)

// DefaultInterval 默认轮询间隔
const DefaultInterval = 2 * time.Second

// State 会话状态
type State string

const (
	StateIdle            State = "idle"
	StateActive          State = "active"
	StateStoppedComplete State = "stopped_complete"
	StateStoppedFailed   State = "stopped_failed"
	StateStoppedError    State = "stopped_error"
	StateCancelled       State = "cancelled"
)

// StatusSource 状态查询来源（转换后端）
type StatusSource interface {
	GetStatus(ctx context.Context, taskID string) (*sdk.StatusResponse, error)
	DownloadURL(taskID string) string
}

// Sink 轮询事件的接收方（展示控制器）
type Sink interface {
	Attach(taskID string) bool
	UpdateProgress(taskID string, progress int) bool
	Complete(task model.ConversionTask, resultURL string) bool
	Fail(task model.ConversionTask) bool
	Abort(message string) bool
}

// Option 轮询器选项
type Option func(*Poller)

// WithInterval 设置轮询间隔
func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithRetry 设置单次状态查询的重试策略；默认不重试，一次失败即结束会话
func WithRetry(cfg sdk.RetryConfig) Option {
	return func(p *Poller) { p.retry = cfg }
}

// WithLogger 设置日志器
func WithLogger(log zerolog.Logger) Option {
	return func(p *Poller) { p.log = log }
}

// Poller 状态轮询器
type Poller struct {
	src      StatusSource
	sink     Sink
	interval time.Duration
	retry    sdk.RetryConfig
	log      zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	current *session
	closed  bool
}

// session 一次轮询会话；指针本身就是会话身份
type session struct {
	id     string
	taskID string
	state  State
	cancel context.CancelFunc
	done   chan struct{}
}

// New 创建轮询器
func New(src StatusSource, sink Sink, opts ...Option) *Poller {
	ctx, cancel := context.WithCancel(context.Background())
	p := &Poller{
		src:      src,
		sink:     sink,
		interval: DefaultInterval,
		retry:    sdk.DefaultRetryConfig(),
		log:      zerolog.Nop(),
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

var (
	// ErrClosed 轮询器已关闭
	ErrClosed = errors.New("poller closed")
	// ErrEmptyTaskID 没有可轮询的任务
	ErrEmptyTaskID = errors.New("empty task id")
)

// Start 为 taskID 启动新会话，返回会话 ID。
// 若已有 active 会话，先取消它再安装新会话。
func (p *Poller) Start(taskID string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return "", ErrClosed
	}
	if taskID == "" {
		return "", ErrEmptyTaskID
	}

	superseded := false
	if old := p.current; old != nil && old.state == StateActive {
		old.cancel()
		old.state = StateCancelled
		superseded = true
		p.log.Info().Str("session_id", old.id).Str("task_id", old.taskID).Msg("旧轮询会话已被替换")
	}

	ctx, cancel := context.WithCancel(p.ctx)
	sess := &session{
		id:     uuid.NewString(),
		taskID: taskID,
		state:  StateActive,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	p.current = sess
	metrics.RecordSessionStarted(superseded)

	// 新会话总是重新绑定展示，旧任务的进度与结果不会残留
	if !p.sink.Attach(taskID) {
		p.finishLocked(sess, StateStoppedError)
		close(sess.done)
		return "", fmt.Errorf("attach task %q to view", taskID)
	}

	p.log.Info().Str("session_id", sess.id).Str("task_id", taskID).Dur("interval", p.interval).Msg("轮询会话启动")

	p.wg.Add(1)
	go p.run(ctx, sess)
	return sess.id, nil
}

// Stop 取消当前 active 会话（若有）
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if sess := p.current; sess != nil && sess.state == StateActive {
		sess.cancel()
		sess.state = StateCancelled
		metrics.RecordSessionEnded(string(StateCancelled))
		p.log.Info().Str("session_id", sess.id).Str("task_id", sess.taskID).Msg("轮询会话已取消")
	}
}

// Close 取消所有会话并等待后台协程退出
func (p *Poller) Close() {
	p.Stop()

	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	p.cancel()
	p.wg.Wait()
}

// State 当前会话状态；从未启动过时为 idle
func (p *Poller) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return StateIdle
	}
	return p.current.state
}

// Current 当前会话的 ID 与任务 ID
func (p *Poller) Current() (sessionID, taskID string, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return "", "", false
	}
	return p.current.id, p.current.taskID, true
}

// Done 返回当前会话结束时关闭的通道；没有会话时返回 nil
func (p *Poller) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return nil
	}
	return p.current.done
}

// run 会话主循环。每个 tick 同步完成请求与应用，
// 因此第 n+1 次请求一定在第 n 次响应处理完之后发出。
func (p *Poller) run(ctx context.Context, sess *session) {
	defer p.wg.Done()
	defer close(sess.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if p.tick(ctx, sess) {
				return
			}
		}
	}
}

// tick 执行一次状态查询；返回 true 表示会话结束
func (p *Poller) tick(ctx context.Context, sess *session) bool {
	log := p.log.With().Str("session_id", sess.id).Str("task_id", sess.taskID).Logger()

	var resp *sdk.StatusResponse
	err := sdk.Retry(ctx, p.retry, func(ctx context.Context) error {
		r, err := p.src.GetStatus(ctx, sess.taskID)
		if err != nil {
			return err
		}
		resp = r
		return nil
	}, func(attempt int, err error) {
		metrics.RecordStatusRequest("error")
		log.Warn().Err(err).Int("attempt", attempt).Msg("状态查询失败，准备重试")
	})

	var task model.ConversionTask
	if err == nil {
		task, err = model.TaskFromStatus(sess.taskID, resp)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current != sess || sess.state != StateActive {
		metrics.RecordStaleResponse()
		log.Debug().Msg("会话已失效，丢弃状态响应")
		return true
	}

	if err != nil {
		metrics.RecordStatusRequest("error")
		metrics.RecordError("poller", "status_check")
		log.Error().Err(&apperr.TransportError{Op: "get status", Err: err}).Msg("状态查询失败，结束会话")
		p.finishLocked(sess, StateStoppedError)
		p.sink.Abort(apperr.MsgStatusCheck)
		return true
	}
	metrics.RecordStatusRequest("ok")

	switch task.Status {
	case model.TaskStatusComplete:
		p.finishLocked(sess, StateStoppedComplete)
		p.sink.Complete(task, p.src.DownloadURL(task.ID))
		if failed, total, ok := task.PartialFailure(); ok {
			log.Warn().Int("failed_chunks", failed).Int("total_chunks", total).Msg("任务完成，但部分分片失败")
		} else {
			log.Info().Msg("任务完成")
		}
		return true
	case model.TaskStatusFailed:
		p.finishLocked(sess, StateStoppedFailed)
		p.sink.Fail(task)
		log.Warn().Str("error", task.ErrorMessage).Msg("任务失败")
		return true
	default:
		p.sink.UpdateProgress(task.ID, task.Progress)
		log.Debug().Int("progress", task.Progress).Msg("任务处理中")
		return false
	}
}

func (p *Poller) finishLocked(sess *session, state State) {
	sess.state = state
	sess.cancel()
	metrics.RecordSessionEnded(string(state))
}
