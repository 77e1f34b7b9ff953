package dto

// VoicesResponse 音色选择框状态
type VoicesResponse struct {
	Options  []string `json:"options" example:"alice,bob"`
	Enabled  bool     `json:"enabled" example:"true"`
	Selected string   `json:"selected,omitempty" example:"alice"`
}

// SelectVoiceRequest 选择音色请求
type SelectVoiceRequest struct {
	Voice string `json:"voice" binding:"required" example:"bob"`
}

// PreviewRequest 试听请求；voice 为空时使用当前选中的音色
type PreviewRequest struct {
	Text  string `json:"text" binding:"required" example:"Hello, this is a preview."`
	Voice string `json:"voice" example:"alice"`
}

// ConvertResponse 提交转换响应
type ConvertResponse struct {
	TaskID string `json:"task_id" example:"3f1c9b7e-2d4a-4c55-9a0e-6b1f0f6a2c11"`
}
