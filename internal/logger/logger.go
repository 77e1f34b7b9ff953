package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	// L 全局 logger
	L = zerolog.Nop()
)

// Options 日志选项
type Options struct {
	Level  string
	Format string // console / json；为空时终端输出 console，其它输出 json
	File   string // 非空时额外写入滚动日志文件（JSON）
	Out    io.Writer
}

// Init 初始化日志器
func Init(opts Options) error {
	// 设置时间格式
	zerolog.TimeFieldFormat = time.RFC3339

	out := opts.Out
	if out == nil {
		out = os.Stderr
	}

	if useConsole(opts.Format, out) {
		// 开发环境：控制台友好格式
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
			// 自定义字段输出顺序（HTTP 请求日志的常见顺序）
			FieldsOrder: []string{
				"request_id",   // 1. 请求 ID
				"method",       // 2. HTTP 方法
				"path",         // 3. 请求路径
				"status",       // 4. 状态码
				"duration(ms)", // 5. 耗时
				"client_ip",    // 6. 客户端 IP
				"component",    // 7. 组件
				"session_id",   // 8. 轮询会话
				"task_id",      // 9. 任务 ID
				"errors",       // 10. 错误信息
			},
		}
	}

	if opts.File != "" {
		// 文件输出始终为 JSON，按大小滚动
		file := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    50, // MB
			MaxBackups: 5,
			MaxAge:     14, // days
			Compress:   true,
		}
		out = zerolog.MultiLevelWriter(out, file)
	}

	L = zerolog.New(out).
		With().
		Timestamp().
		Logger()

	SetLevel(opts.Level)
	return nil
}

func useConsole(format string, out io.Writer) bool {
	switch strings.ToLower(format) {
	case "console":
		return true
	case "json":
		return false
	}
	f, ok := out.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

// SetLevel 设置日志级别
func SetLevel(level string) {
	switch strings.ToLower(level) {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// WithRequestID 添加 request_id
func WithRequestID(requestID string) zerolog.Logger {
	return L.With().Str("request_id", requestID).Logger()
}

// WithComponent 添加 component
func WithComponent(name string) zerolog.Logger {
	return L.With().Str("component", name).Logger()
}

// Debug 输出 debug 级别日志
func Debug() *zerolog.Event {
	return L.Debug()
}

// Info 输出 info 级别日志
func Info() *zerolog.Event {
	return L.Info()
}

// Warn 输出 warn 级别日志
func Warn() *zerolog.Event {
	return L.Warn()
}

// Error 输出 error 级别日志
func Error() *zerolog.Event {
	return L.Error()
}

// Fatal 输出 fatal 级别日志并退出
func Fatal() *zerolog.Event {
	return L.Fatal()
}
