// Package console 组装任务生命周期控制器：音色目录、提交、轮询、展示、试听。
//
// Console 是唯一持有控件选择状态（文件、音色）的地方，并据此对提交控件做门控：
// 控件禁用时 Submit 直接返回 ErrSubmitDisabled，不会调用提交器。
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/azhengyongqin/audiobook-hub/internal/apperr"
	"github.com/azhengyongqin/audiobook-hub/internal/cache"
	"github.com/azhengyongqin/audiobook-hub/internal/catalog"
	"github.com/azhengyongqin/audiobook-hub/internal/poller"
	"github.com/azhengyongqin/audiobook-hub/internal/preview"
	"github.com/azhengyongqin/audiobook-hub/internal/submit"
	"github.com/azhengyongqin/audiobook-hub/internal/view"
	"github.com/azhengyongqin/audiobook-hub/sdk"
)

var (
	// ErrSubmitDisabled 提交控件处于禁用状态（未选文件或任务进行中）
	ErrSubmitDisabled = errors.New("submit control is disabled")
	// ErrNoResult 当前没有可获取的结果
	ErrNoResult = errors.New("no result available")
)

// Backend 转换后端在控制器边界上的全部操作
type Backend interface {
	ListVoices(ctx context.Context) ([]string, error)
	Preview(ctx context.Context, req sdk.PreviewRequest) ([]byte, error)
	SubmitConversion(ctx context.Context, doc sdk.Document, voice string) (string, error)
	GetStatus(ctx context.Context, taskID string) (*sdk.StatusResponse, error)
	DownloadURL(taskID string) string
	FetchResult(ctx context.Context, taskID string, w io.Writer) (int64, error)
}

// Options 控制器选项
type Options struct {
	PollInterval time.Duration
	Retry        sdk.RetryConfig
	Cache        cache.Store
	CacheKey     string
	CacheTTL     time.Duration
	AudioSink    preview.AudioSink
	Logger       zerolog.Logger
}

// Console 任务生命周期控制器
type Console struct {
	backend   Backend
	view      *view.Controller
	errs      *view.ErrorPresenter
	catalog   *catalog.Catalog
	poller    *poller.Poller
	submitter *submit.Submitter
	player    *preview.Player
	log       zerolog.Logger

	mu         sync.Mutex
	doc        *sdk.Document
	voice      string
	submitting bool
}

// New 组装控制器
func New(backend Backend, opts Options) *Console {
	log := opts.Logger

	v := view.NewController(log.With().Str("component", "view").Logger())

	catOpts := []catalog.Option{catalog.WithLogger(log.With().Str("component", "catalog").Logger())}
	if opts.Cache != nil {
		key := opts.CacheKey
		if key == "" {
			key = cache.CacheKey("voices")
		}
		catOpts = append(catOpts, catalog.WithCache(opts.Cache, key, opts.CacheTTL))
	}

	p := poller.New(backend, v,
		poller.WithInterval(opts.PollInterval),
		poller.WithRetry(opts.Retry),
		poller.WithLogger(log.With().Str("component", "poller").Logger()),
	)

	playerOpts := []preview.Option{preview.WithLogger(log.With().Str("component", "preview").Logger())}
	if opts.AudioSink != nil {
		playerOpts = append(playerOpts, preview.WithSink(opts.AudioSink))
	}

	return &Console{
		backend:   backend,
		view:      v,
		errs:      v.Errors(),
		catalog:   catalog.New(backend, catOpts...),
		poller:    p,
		submitter: submit.New(backend, v, p, log.With().Str("component", "submitter").Logger()),
		player:    preview.New(backend, playerOpts...),
		log:       log,
	}
}

// Init 启动时加载音色目录；失败时降级（选择框禁用、展示错误横幅），不返回致命错误
func (c *Console) Init(ctx context.Context) {
	if err := c.catalog.Load(ctx); err != nil {
		c.errs.Show(apperr.MsgCatalogFailed)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.voice == "" {
		if voices := c.catalog.Voices(); len(voices) > 0 {
			c.voice = voices[0]
		}
	}
}

// CatalogReady 音色目录是否加载成功
func (c *Console) CatalogReady() bool {
	return c.catalog.Ready()
}

// View 展示控制器（订阅展示变更）
func (c *Console) View() *view.Controller {
	return c.view
}

// Errors 错误横幅
func (c *Console) Errors() *view.ErrorPresenter {
	return c.errs
}

// Poller 轮询器（等待会话结束）
func (c *Console) Poller() *poller.Poller {
	return c.poller
}

// SelectFile 选择待转换文档
func (c *Console) SelectFile(doc sdk.Document) error {
	if strings.TrimSpace(doc.Name) == "" || doc.Open == nil {
		return &apperr.ValidationError{Field: "file", Message: "no file selected"}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.doc = &doc
	return nil
}

// ClearFile 取消文件选择
func (c *Console) ClearFile() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.doc = nil
}

// SelectVoice 选择音色，必须来自已加载的目录
func (c *Console) SelectVoice(voice string) error {
	voice = strings.TrimSpace(voice)
	if !c.catalog.Contains(voice) {
		return &apperr.ValidationError{Field: "voice", Message: fmt.Sprintf("unknown voice %q", voice)}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.voice = voice
	return nil
}

// Voice 当前选中的音色
func (c *Console) Voice() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.voice
}

// SubmitEnabled 提交控件是否可用：已选文件，且没有进行中的提交或任务
func (c *Console) SubmitEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitEnabledLocked()
}

func (c *Console) submitEnabledLocked() bool {
	return c.doc != nil && !c.submitting && !c.view.Snapshot().Loading
}

// Submit 提交当前选择的文档；控件禁用时不调用提交器
func (c *Console) Submit(ctx context.Context) (string, error) {
	c.mu.Lock()
	if !c.submitEnabledLocked() {
		c.mu.Unlock()
		return "", ErrSubmitDisabled
	}
	doc := *c.doc
	voice := c.voice
	c.submitting = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.submitting = false
		c.mu.Unlock()
	}()

	return c.submitter.Submit(ctx, &doc, voice)
}

// SubmitDocument 选择文档（可选指定音色）并立即提交。
// 门控检查与选择在同一把锁内完成：控件禁用时返回 ErrSubmitDisabled，已有的选择保持不变。
func (c *Console) SubmitDocument(ctx context.Context, doc sdk.Document, voice string) (string, error) {
	if strings.TrimSpace(doc.Name) == "" || doc.Open == nil {
		return "", &apperr.ValidationError{Field: "file", Message: "no file selected"}
	}
	voice = strings.TrimSpace(voice)

	c.mu.Lock()
	if c.submitting || c.view.Snapshot().Loading {
		c.mu.Unlock()
		return "", ErrSubmitDisabled
	}
	if voice != "" && !c.catalog.Contains(voice) {
		c.mu.Unlock()
		return "", &apperr.ValidationError{Field: "voice", Message: fmt.Sprintf("unknown voice %q", voice)}
	}
	c.doc = &doc
	if voice != "" {
		c.voice = voice
	}
	voice = c.voice
	c.submitting = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.submitting = false
		c.mu.Unlock()
	}()

	return c.submitter.Submit(ctx, &doc, voice)
}

// Preview 用当前音色（或指定音色）试听一段文本。
// 进行中的重复触发被忽略；其余失败展示在错误横幅上。
func (c *Console) Preview(ctx context.Context, text, voice string) ([]byte, error) {
	if strings.TrimSpace(voice) == "" {
		voice = c.Voice()
	}
	audio, err := c.player.Preview(ctx, text, voice)
	if err != nil && !errors.Is(err, preview.ErrBusy) {
		c.errs.Show(apperr.MsgPreviewFailed)
	}
	return audio, err
}

// PreviewBusy 试听控件是否禁用
func (c *Console) PreviewBusy() bool {
	return c.player.Busy()
}

// FetchResult 把当前任务的结果写入 w。结果过期时展示错误横幅，不改变任务终态。
func (c *Console) FetchResult(ctx context.Context, w io.Writer) (int64, error) {
	snap := c.view.Snapshot()
	if !snap.State.Succeeded() || snap.TaskID == "" {
		return 0, ErrNoResult
	}

	n, err := c.backend.FetchResult(ctx, snap.TaskID, w)
	if err != nil {
		if errors.Is(err, sdk.ErrResultUnavailable) {
			c.log.Warn().Str("task_id", snap.TaskID).Msg("结果已过期")
			c.errs.Show(apperr.MsgResultExpired)
		} else {
			c.log.Error().Err(err).Str("task_id", snap.TaskID).Msg("获取结果失败")
		}
		return n, err
	}
	return n, nil
}

// Snapshot 完整展示状态
type Snapshot struct {
	View          view.Surface     `json:"view"`
	Voices        catalog.Selector `json:"voices"`
	SubmitEnabled bool             `json:"submit_enabled"`
	FileName      string           `json:"file_name,omitempty"`
	PreviewBusy   bool             `json:"preview_busy"`
}

// Snapshot 返回当前完整展示状态
func (c *Console) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		View:          c.view.Snapshot(),
		Voices:        c.catalog.Selector(c.voice),
		SubmitEnabled: c.submitEnabledLocked(),
		PreviewBusy:   c.player.Busy(),
	}
	if c.doc != nil {
		s.FileName = c.doc.Name
	}
	return s
}

// Close 取消进行中的轮询并等待退出
func (c *Console) Close() {
	c.poller.Close()
}
