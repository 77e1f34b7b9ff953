package handler

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/azhengyongqin/audiobook-hub/internal/apperr"
	"github.com/azhengyongqin/audiobook-hub/internal/console"
	"github.com/azhengyongqin/audiobook-hub/internal/logger"
	"github.com/azhengyongqin/audiobook-hub/internal/middleware"
	"github.com/azhengyongqin/audiobook-hub/internal/preview"
	"github.com/azhengyongqin/audiobook-hub/internal/server/dto"
	"github.com/azhengyongqin/audiobook-hub/internal/view"
	"github.com/azhengyongqin/audiobook-hub/sdk"
)

// ConsoleHandler 控制台 API Handler
type ConsoleHandler struct {
	console        *console.Console
	uploadMaxBytes int64
}

// NewConsoleHandler 创建 ConsoleHandler
func NewConsoleHandler(c *console.Console, uploadMaxBytes int64) *ConsoleHandler {
	return &ConsoleHandler{
		console:        c,
		uploadMaxBytes: uploadMaxBytes,
	}
}

// ListVoices godoc
// @Summary 音色选择框
// @Description 返回音色目录与当前选择；目录加载失败时只有一个禁用的占位项
// @Tags Console
// @Produce json
// @Success 200 {object} dto.VoicesResponse
// @Router /voices [get]
func (h *ConsoleHandler) ListVoices(c *gin.Context) {
	c.JSON(http.StatusOK, voicesResponse(h.console.Snapshot()))
}

// SelectVoice godoc
// @Summary 选择音色
// @Tags Console
// @Accept json
// @Produce json
// @Param request body dto.SelectVoiceRequest true "音色"
// @Success 200 {object} dto.VoicesResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /voice [put]
func (h *ConsoleHandler) SelectVoice(c *gin.Context) {
	var req dto.SelectVoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	voice := middleware.SanitizeString(req.Voice)
	if !middleware.ValidateVoice(voice) {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid voice name"})
		return
	}
	if err := h.console.SelectVoice(voice); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, voicesResponse(h.console.Snapshot()))
}

// GetView godoc
// @Summary 展示状态快照
// @Description 进度、结果、警告与错误横幅、提交控件状态；页面按固定间隔拉取
// @Tags Console
// @Produce json
// @Success 200 {object} console.Snapshot
// @Router /view [get]
func (h *ConsoleHandler) GetView(c *gin.Context) {
	c.JSON(http.StatusOK, h.console.Snapshot())
}

// Convert godoc
// @Summary 提交转换
// @Description 上传 PDF 并提交转换任务，随后由控制台轮询任务状态
// @Tags Console
// @Accept multipart/form-data
// @Produce json
// @Param pdf_file formData file true "PDF 文档"
// @Param voice formData string false "音色（默认当前选择）"
// @Success 202 {object} dto.ConvertResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /convert [post]
func (h *ConsoleHandler) Convert(c *gin.Context) {
	fh, err := c.FormFile("pdf_file")
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "pdf_file is required"})
		return
	}
	if !middleware.ValidatePDFName(fh.Filename) {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "pdf_file must be a .pdf document"})
		return
	}
	if fh.Size > h.uploadMaxBytes {
		c.JSON(http.StatusRequestEntityTooLarge, dto.ErrorResponse{Error: fmt.Sprintf("pdf_file exceeds %d bytes", h.uploadMaxBytes)})
		return
	}

	// multipart 临时文件随请求结束被清理，文档内容需要读入内存
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	data, err := io.ReadAll(io.LimitReader(f, h.uploadMaxBytes+1))
	f.Close()
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	voice := middleware.SanitizeString(c.PostForm("voice"))
	taskID, err := h.console.SubmitDocument(c.Request.Context(), sdk.BytesDocument(fh.Filename, data), voice)
	if err != nil {
		var ve *apperr.ValidationError
		switch {
		case errors.Is(err, console.ErrSubmitDisabled):
			c.JSON(http.StatusConflict, dto.ErrorResponse{Error: "a conversion is already in progress"})
		case errors.As(err, &ve):
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: ve.Error()})
		default:
			_ = c.Error(err)
			c.JSON(http.StatusBadGateway, dto.ErrorResponse{Error: apperr.Message(err, apperr.MsgSubmissionFailed)})
		}
		return
	}

	c.JSON(http.StatusAccepted, dto.ConvertResponse{TaskID: taskID})
}

// Preview godoc
// @Summary 试听
// @Description 合成一段短文本试听音频；已有试听进行中时返回 409
// @Tags Console
// @Accept json
// @Produce audio/mpeg
// @Param request body dto.PreviewRequest true "试听请求"
// @Success 200 {file} binary
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /preview [post]
func (h *ConsoleHandler) Preview(c *gin.Context) {
	var req dto.PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	audio, err := h.console.Preview(c.Request.Context(), req.Text, middleware.SanitizeString(req.Voice))
	if err != nil {
		var ve *apperr.ValidationError
		switch {
		case errors.Is(err, preview.ErrBusy):
			c.JSON(http.StatusConflict, dto.ErrorResponse{Error: "a preview is already in progress"})
			return
		case errors.As(err, &ve):
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: ve.Error()})
			return
		case len(audio) == 0:
			_ = c.Error(err)
			c.JSON(http.StatusBadGateway, dto.ErrorResponse{Error: apperr.MsgPreviewFailed})
			return
		}
		// 本地播放失败不影响把音频交给页面
		logger.L.Warn().Err(err).Msg("试听本地播放失败")
	}

	c.Data(http.StatusOK, "audio/mpeg", audio)
}

// GetResult godoc
// @Summary 获取结果音频
// @Description 下载当前任务的结果音频；结果过期时返回 410 并在错误横幅上提示
// @Tags Console
// @Produce audio/mpeg
// @Success 200 {file} binary
// @Failure 404 {object} dto.ErrorResponse
// @Failure 410 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /result [get]
func (h *ConsoleHandler) GetResult(c *gin.Context) {
	var buf bytes.Buffer
	if _, err := h.console.FetchResult(c.Request.Context(), &buf); err != nil {
		switch {
		case errors.Is(err, console.ErrNoResult):
			c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "no finished conversion"})
		case errors.Is(err, sdk.ErrResultUnavailable):
			c.JSON(http.StatusGone, dto.ErrorResponse{Error: apperr.MsgResultExpired})
		default:
			_ = c.Error(err)
			c.JSON(http.StatusBadGateway, dto.ErrorResponse{Error: "failed to fetch result"})
		}
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", view.ResultName))
	c.Data(http.StatusOK, "audio/mpeg", buf.Bytes())
}

func voicesResponse(s console.Snapshot) dto.VoicesResponse {
	return dto.VoicesResponse{
		Options:  s.Voices.Options,
		Enabled:  s.Voices.Enabled,
		Selected: s.Voices.Selected,
	}
}
