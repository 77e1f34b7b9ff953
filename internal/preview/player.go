// Package preview 提供短文本试听：一次请求 / 一次响应，无持久状态。
package preview

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/azhengyongqin/audiobook-hub/internal/apperr"
	"github.com/azhengyongqin/audiobook-hub/internal/metrics"
	"github.com/azhengyongqin/audiobook-hub/sdk"
)

// ErrBusy 已有试听请求在进行中；第二次触发被忽略
var ErrBusy = errors.New("preview already in progress")

// Synthesizer 试听合成接口
type Synthesizer interface {
	Preview(ctx context.Context, req sdk.PreviewRequest) ([]byte, error)
}

// AudioSink 平台播放原语，clipPath 为本地临时音频文件
type AudioSink interface {
	Play(ctx context.Context, clipPath string) error
}

// Player 试听播放器
type Player struct {
	synth  Synthesizer
	sink   AudioSink
	tmpDir string
	busy   atomic.Bool
	log    zerolog.Logger
}

// Option 播放器选项
type Option func(*Player)

// WithSink 设置本地播放；不设置时只返回音频字节（例如交给浏览器播放）
func WithSink(sink AudioSink) Option {
	return func(p *Player) { p.sink = sink }
}

// WithTempDir 设置临时音频文件目录
func WithTempDir(dir string) Option {
	return func(p *Player) { p.tmpDir = dir }
}

// WithLogger 设置日志器
func WithLogger(log zerolog.Logger) Option {
	return func(p *Player) { p.log = log }
}

// New 创建播放器
func New(synth Synthesizer, opts ...Option) *Player {
	p := &Player{synth: synth, log: zerolog.Nop()}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Busy 试听控件是否处于禁用（请求进行中）
func (p *Player) Busy() bool {
	return p.busy.Load()
}

// Preview 合成并（可选）播放一段试听音频。
// 同一时刻只允许一个请求，进行中再次调用直接返回 ErrBusy。
func (p *Player) Preview(ctx context.Context, text, voice string) ([]byte, error) {
	text = strings.TrimSpace(text)
	voice = strings.TrimSpace(voice)
	if text == "" || voice == "" {
		metrics.RecordPreview("invalid")
		field := "text"
		if text != "" {
			field = "voice"
		}
		return nil, &apperr.PreviewError{Err: &apperr.ValidationError{Field: field}}
	}

	if !p.busy.CompareAndSwap(false, true) {
		metrics.RecordPreview("busy")
		return nil, ErrBusy
	}
	defer p.busy.Store(false)

	audio, err := p.synth.Preview(ctx, sdk.PreviewRequest{Text: text, Voice: voice})
	if err != nil {
		metrics.RecordPreview("error")
		p.log.Error().Err(err).Str("voice", voice).Msg("试听合成失败")
		return nil, &apperr.PreviewError{Err: err}
	}
	if len(audio) == 0 {
		metrics.RecordPreview("error")
		return nil, &apperr.PreviewError{Reason: "empty audio"}
	}
	metrics.RecordPreview("ok")

	if p.sink != nil {
		if err := p.play(ctx, audio); err != nil {
			p.log.Warn().Err(err).Msg("试听播放失败")
			return audio, fmt.Errorf("play preview: %w", err)
		}
	}
	return audio, nil
}

// play 写入临时文件交给播放原语，播放结束后立即删除
func (p *Player) play(ctx context.Context, audio []byte) error {
	f, err := os.CreateTemp(p.tmpDir, "preview-*.mp3")
	if err != nil {
		return fmt.Errorf("create clip: %w", err)
	}
	clip := f.Name()
	defer os.Remove(clip)

	if _, err := f.Write(audio); err != nil {
		f.Close()
		return fmt.Errorf("write clip: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close clip: %w", err)
	}

	return p.sink.Play(ctx, clip)
}

// CommandSink 通过外部播放器命令播放，例如 "ffplay -nodisp -autoexit -loglevel quiet"
type CommandSink struct {
	Command []string
}

// ParseCommand 按空白切分播放器命令
func ParseCommand(cmd string) *CommandSink {
	fields := strings.Fields(cmd)
	if len(fields) == 0 {
		return nil
	}
	return &CommandSink{Command: fields}
}

// Play 运行播放器直到播放结束
func (s *CommandSink) Play(ctx context.Context, clipPath string) error {
	if len(s.Command) == 0 {
		return errors.New("no player command configured")
	}
	args := append(append([]string{}, s.Command[1:]...), clipPath)
	out, err := exec.CommandContext(ctx, s.Command[0], args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", s.Command[0], err, strings.TrimSpace(string(out)))
	}
	return nil
}
