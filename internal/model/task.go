package model

import (
	"fmt"
	"strings"

	"github.com/azhengyongqin/audiobook-hub/sdk"
)

// TaskStatus 控制器视角的任务状态：把服务端词汇收敛为三态。
// - processing: pending / processing，继续轮询
// - complete: 合成完成
// - failed: 后端判定失败
type TaskStatus string

const (
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusComplete   TaskStatus = "complete"
	TaskStatusFailed     TaskStatus = "failed"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusProcessing, TaskStatusComplete, TaskStatusFailed:
		return true
	default:
		return false
	}
}

// Terminal 终态之后不再轮询
func (s TaskStatus) Terminal() bool {
	return s == TaskStatusComplete || s == TaskStatusFailed
}

// CollapseStatus 将服务端状态映射为三态；未知状态视为协议错误。
func CollapseStatus(raw sdk.TaskStatus) (TaskStatus, error) {
	switch sdk.TaskStatus(strings.ToLower(strings.TrimSpace(string(raw)))) {
	case sdk.TaskStatusPending, sdk.TaskStatusProcessing:
		return TaskStatusProcessing, nil
	case sdk.TaskStatusComplete:
		return TaskStatusComplete, nil
	case sdk.TaskStatusFailed:
		return TaskStatusFailed, nil
	default:
		return "", fmt.Errorf("unknown task status %q", raw)
	}
}

// ConversionTask 一次状态观测得到的任务快照
type ConversionTask struct {
	ID               string     `json:"id"`
	Status           TaskStatus `json:"status"`
	Progress         int        `json:"progress"`
	TotalChunks      *int       `json:"total_chunks,omitempty"`
	SuccessfulChunks *int       `json:"successful_chunks,omitempty"`
	ErrorMessage     string     `json:"error,omitempty"`
}

// TaskFromStatus 把状态响应转换为 ConversionTask。
// 进度被钳制到 0-100；负数分片计数被视为缺失。
func TaskFromStatus(taskID string, resp *sdk.StatusResponse) (ConversionTask, error) {
	if resp == nil {
		return ConversionTask{}, fmt.Errorf("task %s: empty status response", taskID)
	}
	status, err := CollapseStatus(resp.Status)
	if err != nil {
		return ConversionTask{}, fmt.Errorf("task %s: %w", taskID, err)
	}

	t := ConversionTask{
		ID:               taskID,
		Status:           status,
		Progress:         ClampProgress(resp.Progress),
		TotalChunks:      nonNegative(resp.TotalChunks),
		SuccessfulChunks: nonNegative(resp.SuccessfulChunks),
	}
	if status == TaskStatusFailed {
		t.ErrorMessage = strings.TrimSpace(resp.Error)
	}
	return t, nil
}

// PartialFailure 报告完成但存在失败分片的情况：
// total_chunks 存在且 successful_chunks < total_chunks。
func (t ConversionTask) PartialFailure() (failed, total int, ok bool) {
	if t.Status != TaskStatusComplete || t.TotalChunks == nil || *t.TotalChunks == 0 {
		return 0, 0, false
	}
	if t.SuccessfulChunks == nil || *t.SuccessfulChunks >= *t.TotalChunks {
		return 0, 0, false
	}
	return *t.TotalChunks - *t.SuccessfulChunks, *t.TotalChunks, true
}

// ClampProgress 把进度限定在 0-100
func ClampProgress(p int) int {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}

func nonNegative(v *int) *int {
	if v == nil || *v < 0 {
		return nil
	}
	n := *v
	return &n
}
