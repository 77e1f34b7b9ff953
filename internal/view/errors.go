package view

import "strings"

// ErrorPresenter 错误横幅：校验、网络、服务端错误共用的唯一出口。
// 只改变横幅本身，不影响任务状态。
type ErrorPresenter struct {
	c *Controller
}

// Show 展示错误信息，覆盖已有内容
func (p *ErrorPresenter) Show(message string) {
	message = strings.TrimSpace(message)
	if message == "" {
		return
	}

	p.c.mu.Lock()
	defer p.c.mu.Unlock()
	p.c.surface.Error = Banner{Visible: true, Text: message}
	p.c.commitLocked()
}

// Clear 隐藏错误横幅
func (p *ErrorPresenter) Clear() {
	p.c.mu.Lock()
	defer p.c.mu.Unlock()
	if !p.c.surface.Error.Visible {
		return
	}
	p.c.surface.Error = Banner{}
	p.c.commitLocked()
}

// Current 当前横幅内容
func (p *ErrorPresenter) Current() Banner {
	p.c.mu.Lock()
	defer p.c.mu.Unlock()
	return p.c.surface.Error
}
