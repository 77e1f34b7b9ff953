package view

// State 展示状态机的状态
type State string

const (
	StateInitial              State = "initial"
	StateStarting             State = "starting"
	StatePolling              State = "polling"
	StateSucceeded            State = "succeeded"
	StateSucceededWithWarning State = "succeeded_with_warning"
	StateFailed               State = "failed"
	StateErrored              State = "errored"
)

// Active 任务提交中或轮询中
func (s State) Active() bool {
	return s == StateStarting || s == StatePolling
}

// Terminal 任务流程已结束
func (s State) Terminal() bool {
	switch s {
	case StateSucceeded, StateSucceededWithWarning, StateFailed, StateErrored:
		return true
	default:
		return false
	}
}

// Succeeded 结果可播放 / 下载
func (s State) Succeeded() bool {
	return s == StateSucceeded || s == StateSucceededWithWarning
}

// Primary 主展示区：任意时刻恰好一个可见
type Primary string

const (
	PrimaryInitial  Primary = "initial"
	PrimaryProgress Primary = "progress"
	PrimaryResult   Primary = "result"
)

// 各状态对应的主展示区。
// Failed 保留进度条停在失败时的位置；Errored 表示流程中断，回到初始提示。
var primaryFor = map[State]Primary{
	StateInitial:              PrimaryInitial,
	StateStarting:             PrimaryProgress,
	StatePolling:              PrimaryProgress,
	StateSucceeded:            PrimaryResult,
	StateSucceededWithWarning: PrimaryResult,
	StateFailed:               PrimaryProgress,
	StateErrored:              PrimaryInitial,
}

const (
	InitialText  = "Upload a PDF and choose a voice to get started."
	StartingText = "Starting conversion..."
	ResultName   = "audiobook.mp3"
)

// Banner 横幅（警告 / 错误）
type Banner struct {
	Visible bool   `json:"visible"`
	Text    string `json:"text,omitempty"`
}

// Result 结果区：通过 task_id 引用远端音频，不在本地缓存媒体
type Result struct {
	URL      string `json:"url"`
	FileName string `json:"file_name"`
}

// Surface 展示状态快照。所有展示句柄都收敛到这一个值里，按值返回。
type Surface struct {
	Version      uint64  `json:"version"`
	State        State   `json:"state"`
	Primary      Primary `json:"primary"`
	TaskID       string  `json:"task_id,omitempty"`
	InitialText  string  `json:"initial_text,omitempty"`
	Progress     int     `json:"progress"`
	ProgressText string  `json:"progress_text,omitempty"`
	Result       *Result `json:"result,omitempty"`
	Warning      Banner  `json:"warning"`
	Error        Banner  `json:"error"`
	// Loading 提交按钮的加载指示；为 true 时提交控件禁用
	Loading bool `json:"loading"`
}

// Visible 报告某个主展示区是否可见
func (s Surface) Visible(p Primary) bool {
	return s.Primary == p
}
