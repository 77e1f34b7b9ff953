package sdk

// TaskStatus 转换后端上报的任务状态（服务端原始词汇）。
// 约定：
// - pending: 已受理，尚未开始处理
// - processing: 正在抽取文本 / 合成分片
// - complete: 合成完成，可下载结果
// - failed: 不可恢复的失败，error 字段给出原因
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusComplete   TaskStatus = "complete"
	TaskStatusFailed     TaskStatus = "failed"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusProcessing, TaskStatusComplete, TaskStatusFailed:
		return true
	default:
		return false
	}
}
