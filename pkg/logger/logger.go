package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log はアプリケーション全体で共有するロガーです。
// InitLoggerを呼ぶ前でも使えるよう、標準設定で初期化しておきます。
var Log = logrus.New()

// lineFormatter は [時刻] [レベル] [ファイル:行] メッセージ 形式で出力します。
type lineFormatter struct{}

// Format logrus.Formatter の実装
func (f *lineFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var fileLine string
	if entry.HasCaller() {
		fileLine = fmt.Sprintf("%s:%d", filepath.Base(entry.Caller.File), entry.Caller.Line)
	}

	level := strings.ToUpper(entry.Level.String())
	if len(level) > 4 {
		level = level[:4]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] [%s] [%s] %s", entry.Time.Format("2006-01-02 15:04:05"), level, fileLine, entry.Message)
	for key, value := range entry.Data {
		fmt.Fprintf(&b, " %s=%v", key, value)
	}
	b.WriteByte('\n')

	return []byte(b.String()), nil
}

// InitLogger はログレベルと出力先を設定します。
// filePathが空でなければ標準出力とファイルの両方に書き込みます。
func InitLogger(levelStr string, filePath string) error {
	Log = logrus.New()
	Log.SetReportCaller(true)
	Log.SetFormatter(&lineFormatter{})

	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		level = logrus.InfoLevel
	}
	Log.SetLevel(level)

	writers := []io.Writer{os.Stdout}
	if filePath != "" {
		if dir := filepath.Dir(filePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("failed to create log directory: %w", err)
			}
		}

		file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		writers = append(writers, file)
	}
	Log.SetOutput(io.MultiWriter(writers...))

	return nil
}
