// Package view 实现进度展示状态机与错误横幅。
//
// Controller 持有唯一的展示状态 Surface，只接受来自提交流程和当前轮询会话的
// 驱动；每次变更都会递增 Version 并通知订阅者。
package view

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/azhengyongqin/audiobook-hub/internal/apperr"
	"github.com/azhengyongqin/audiobook-hub/internal/model"
)

// Listener 订阅展示变更。在 Controller 的锁内同步调用，不能回调 Controller。
type Listener func(Surface)

// Controller 进度展示控制器
type Controller struct {
	mu        sync.Mutex
	surface   Surface
	lastSeen  int
	listeners map[int]Listener
	nextID    int
	log       zerolog.Logger
}

// NewController 创建处于 Initial 状态的控制器
func NewController(log zerolog.Logger) *Controller {
	c := &Controller{
		listeners: map[int]Listener{},
		log:       log,
	}
	c.surface = Surface{
		State:       StateInitial,
		Primary:     PrimaryInitial,
		InitialText: InitialText,
	}
	return c
}

// Snapshot 返回当前展示状态
func (c *Controller) Snapshot() Surface {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Subscribe 注册订阅者，返回取消函数
func (c *Controller) Subscribe(l Listener) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextID
	c.nextID++
	c.listeners[id] = l
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}

// Errors 返回错误横幅的唯一写入口
func (c *Controller) Errors() *ErrorPresenter {
	return &ErrorPresenter{c: c}
}

// Reset 清空所有展示区并进入 Starting：进度条归零，提交按钮进入加载态
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lastSeen = 0
	c.surface.TaskID = ""
	c.surface.Result = nil
	c.surface.Warning = Banner{}
	c.surface.Error = Banner{}
	c.surface.Progress = 0
	c.surface.ProgressText = StartingText
	c.surface.Loading = true
	c.enterLocked(StateStarting)
}

// Attach 把展示绑定到新会话跟踪的任务。
// 新会话接管槽位时，无论当前处于什么状态，旧任务的进度、结果与横幅都被清空。
func (c *Controller) Attach(taskID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if taskID == "" {
		return false
	}
	if c.surface.State != StateStarting || c.surface.TaskID != "" {
		c.log.Debug().Str("task_id", taskID).Str("previous", c.surface.TaskID).
			Str("state", string(c.surface.State)).Msg("新会话接管展示")
	}
	c.lastSeen = 0
	c.surface.TaskID = taskID
	c.surface.Result = nil
	c.surface.Warning = Banner{}
	c.surface.Error = Banner{}
	c.surface.Progress = 0
	c.surface.ProgressText = StartingText
	c.surface.Loading = true
	c.enterLocked(StateStarting)
	return true
}

// UpdateProgress 应用一次非终态的状态响应。
// 显示进度不会低于本会话已见过的最大值。
func (c *Controller) UpdateProgress(taskID string, progress int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.ownsLocked(taskID) {
		return false
	}

	p := model.ClampProgress(progress)
	if p < c.lastSeen {
		c.log.Debug().Str("task_id", taskID).Int("progress", p).Int("last", c.lastSeen).Msg("进度回退，保持上次值")
		p = c.lastSeen
	}
	c.lastSeen = p
	c.surface.Progress = p
	c.surface.ProgressText = fmt.Sprintf("Processing... (%d%%)", p)
	c.enterLocked(StatePolling)
	return true
}

// Complete 进入 Succeeded / SucceededWithWarning，展示结果引用
func (c *Controller) Complete(task model.ConversionTask, resultURL string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.ownsLocked(task.ID) {
		return false
	}

	if task.Progress > c.lastSeen {
		c.lastSeen = task.Progress
	}
	c.surface.Progress = c.lastSeen
	c.surface.Result = &Result{URL: resultURL, FileName: ResultName}
	c.surface.Loading = false

	state := StateSucceeded
	if failed, total, ok := task.PartialFailure(); ok {
		warn := apperr.PartialCompletion{TotalChunks: total, SuccessfulChunks: total - failed}
		c.surface.Warning = Banner{Visible: true, Text: warn.Warning()}
		state = StateSucceededWithWarning
	}
	c.enterLocked(state)
	return true
}

// Fail 后端报告任务失败：先按同样的不回退规则应用本次进度，再展示错误横幅并恢复提交控件
func (c *Controller) Fail(task model.ConversionTask) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.ownsLocked(task.ID) {
		return false
	}
	if p := model.ClampProgress(task.Progress); p > c.lastSeen {
		c.lastSeen = p
	}
	c.surface.Progress = c.lastSeen
	c.surface.ProgressText = fmt.Sprintf("Processing... (%d%%)", c.lastSeen)
	c.surface.Error = Banner{Visible: true, Text: (&apperr.TaskFailure{Message: task.ErrorMessage}).Error()}
	c.surface.Loading = false
	c.enterLocked(StateFailed)
	return true
}

// Abort 提交或状态查询流程中断：展示错误横幅并恢复提交控件
func (c *Controller) Abort(message string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.surface.State.Active() {
		return false
	}
	c.surface.Error = Banner{Visible: true, Text: message}
	c.surface.Loading = false
	c.enterLocked(StateErrored)
	return true
}

// ownsLocked 只有当前跟踪的任务可以驱动进度 / 终态
func (c *Controller) ownsLocked(taskID string) bool {
	if !c.surface.State.Active() || c.surface.TaskID == "" || c.surface.TaskID != taskID {
		c.log.Debug().Str("task_id", taskID).Str("current", c.surface.TaskID).
			Str("state", string(c.surface.State)).Msg("丢弃不属于当前任务的更新")
		return false
	}
	return true
}

func (c *Controller) enterLocked(s State) {
	if c.surface.State != s {
		c.log.Debug().Str("from", string(c.surface.State)).Str("to", string(s)).Str("task_id", c.surface.TaskID).Msg("展示状态切换")
	}
	c.surface.State = s
	c.surface.Primary = primaryFor[s]
	if s.Succeeded() {
		c.surface.ProgressText = ""
	}
	if c.surface.Primary == PrimaryInitial {
		c.surface.InitialText = InitialText
	} else {
		c.surface.InitialText = ""
	}
	c.commitLocked()
}

func (c *Controller) commitLocked() {
	c.surface.Version++
	snap := c.snapshotLocked()
	for _, l := range c.listeners {
		l(snap)
	}
}

func (c *Controller) snapshotLocked() Surface {
	s := c.surface
	if s.Result != nil {
		r := *s.Result
		s.Result = &r
	}
	return s
}
