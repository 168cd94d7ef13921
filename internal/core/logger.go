package core

import (
	"io"
	"log"
)

// Logger は標準の log.Logger に DEBUG 出力の切り替えを加えたものです。
type Logger struct {
	*log.Logger
	verbose bool
}

// NewLogger は、out に書き込む Logger を返します。verbose が false の場合 Debugf は何も出力しません。
func NewLogger(out io.Writer, verbose bool) *Logger {
	return &Logger{
		Logger:  log.New(out, "[gwg] ", log.LstdFlags),
		verbose: verbose,
	}
}

// Debugf は、verbose 時のみ "DEBUG: " 付きで出力します。
func (l *Logger) Debugf(format string, v ...any) {
	if l.verbose {
		l.Printf("DEBUG: "+format, v...)
	}
}
