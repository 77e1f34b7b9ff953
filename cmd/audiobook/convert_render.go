package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/schollz/progressbar/v3"

	"github.com/azhengyongqin/audiobook-hub/internal/view"
)

// progressRenderer 把展示状态渲染到终端。作为 view 订阅者在控制器锁内被调用，
// 只写终端，不回调控制器。
type progressRenderer struct {
	mu      sync.Mutex
	out     io.Writer
	bar     *progressbar.ProgressBar
	version uint64
	state   view.State
	warned  bool
}

func newProgressRenderer(out io.Writer, showBar bool) *progressRenderer {
	r := &progressRenderer{out: out}
	if showBar {
		r.bar = progressbar.NewOptions(100,
			progressbar.OptionSetWriter(out),
			progressbar.OptionSetDescription(view.StartingText),
			progressbar.OptionSetWidth(30),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionSetPredictTime(false),
		)
	}
	return r
}

func (r *progressRenderer) Render(s view.Surface) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s.Version <= r.version {
		return
	}
	r.version = s.Version
	prev := r.state
	r.state = s.State

	switch s.State {
	case view.StateStarting, view.StatePolling:
		if r.bar != nil {
			r.bar.Describe(s.ProgressText)
			_ = r.bar.Set(s.Progress)
		} else if prev != s.State || s.State == view.StatePolling {
			fmt.Fprintln(r.out, progressLine(s))
		}
	case view.StateSucceeded, view.StateSucceededWithWarning:
		r.finishBar()
		if prev != s.State {
			fmt.Fprintln(r.out, "Conversion complete.")
		}
		if s.Warning.Visible && !r.warned {
			r.warned = true
			fmt.Fprintln(r.out, s.Warning.Text)
		}
	case view.StateFailed, view.StateErrored:
		r.finishBar()
	}
}

func (r *progressRenderer) finishBar() {
	if r.bar != nil && !r.bar.IsFinished() {
		_ = r.bar.Finish()
	}
}

func progressLine(s view.Surface) string {
	if s.ProgressText != "" {
		return s.ProgressText
	}
	return fmt.Sprintf("Processing... (%d%%)", s.Progress)
}
