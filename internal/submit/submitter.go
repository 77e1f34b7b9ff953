// Package submit 负责校验并发送转换请求，成功后把任务交给轮询器。
package submit

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/azhengyongqin/audiobook-hub/internal/apperr"
	"github.com/azhengyongqin/audiobook-hub/internal/metrics"
	"github.com/azhengyongqin/audiobook-hub/sdk"
)

// Backend 提交接口
type Backend interface {
	SubmitConversion(ctx context.Context, doc sdk.Document, voice string) (string, error)
}

// View 提交流程需要的展示操作
type View interface {
	Reset()
	Abort(message string) bool
}

// Sessions 会话槽位：提交前释放旧会话，成功后启动新会话
type Sessions interface {
	Stop()
	Start(taskID string) (string, error)
}

// Submitter 任务提交器
type Submitter struct {
	backend  Backend
	view     View
	sessions Sessions
	log      zerolog.Logger
}

// New 创建提交器
func New(backend Backend, view View, sessions Sessions, log zerolog.Logger) *Submitter {
	return &Submitter{
		backend:  backend,
		view:     view,
		sessions: sessions,
		log:      log,
	}
}

// Submit 提交文档并启动轮询，返回 task_id。
//
// 缺少文件或音色时返回 *apperr.ValidationError，且不触碰展示层；
// 调用方应当在控件层面避免这种调用。后端拒绝时返回 *apperr.SubmissionError，
// 网络失败时返回 *apperr.TransportError，两者都会展示在错误横幅上。
func (s *Submitter) Submit(ctx context.Context, doc *sdk.Document, voice string) (string, error) {
	if doc == nil || doc.Open == nil || strings.TrimSpace(doc.Name) == "" {
		metrics.RecordSubmission("invalid")
		return "", &apperr.ValidationError{Field: "file", Message: "no file selected"}
	}
	voice = strings.TrimSpace(voice)
	if voice == "" {
		metrics.RecordSubmission("invalid")
		return "", &apperr.ValidationError{Field: "voice", Message: "no voice selected"}
	}

	log := s.log.With().Str("file", doc.Name).Str("voice", voice).Logger()

	// 先释放旧会话，保证 Reset 之后不会再有旧响应写入展示层
	s.sessions.Stop()
	s.view.Reset()

	taskID, err := s.backend.SubmitConversion(ctx, *doc, voice)
	if err != nil {
		err = classify(err)
		metrics.RecordSubmission(resultLabel(err))
		log.Error().Err(err).Msg("提交转换失败")
		s.view.Abort(apperr.Message(err, apperr.MsgSubmissionFailed))
		return "", err
	}

	if _, err := s.sessions.Start(taskID); err != nil {
		metrics.RecordSubmission("error")
		log.Error().Err(err).Str("task_id", taskID).Msg("启动轮询失败")
		s.view.Abort(apperr.MsgStatusCheck)
		return "", err
	}

	metrics.RecordSubmission("ok")
	log.Info().Str("task_id", taskID).Msg("转换任务已提交")
	return taskID, nil
}

// classify 把 SDK 错误映射到错误分类
func classify(err error) error {
	var re *sdk.RequestError
	if errors.As(err, &re) {
		return &apperr.SubmissionError{
			StatusCode: re.StatusCode,
			Detail:     re.Detail,
			Fallback:   apperr.MsgSubmissionFailed,
		}
	}
	return &apperr.TransportError{Op: "submit conversion", Err: err}
}

func resultLabel(err error) string {
	var sr *apperr.ServerRejection
	if errors.As(err, &sr) {
		return "rejected"
	}
	return "transport"
}
