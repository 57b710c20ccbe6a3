package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/yuuki0xff/gocovtrace/info"
	"github.com/yuuki0xff/gocovtrace/tracer/eventlog"
	"github.com/yuuki0xff/gocovtrace/tracer/types"
)

// FileSender writes RawEvents to log file.
type FileSender struct {
	file io.WriteCloser
	w    *eventlog.Writer
}

// FileSenderが使用できる場合はtrueを返す。
func CanUseFileSender() bool {
	_, ok := os.LookupEnv(info.DefaultLogfileEnv)
	return ok
}

// open log file.
func (f *FileSender) Open() error {
	var err error
	f.file, err = os.OpenFile(f.logFilePath(), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	f.w, err = eventlog.NewWriter(f.file, eventlog.FormatJSON)
	return err
}

// close log file.
// これ以降はSendできない。
func (f *FileSender) Close() error {
	if err := f.file.Close(); err != nil {
		return err
	}
	f.file = nil
	f.w = nil
	return nil
}

// write RawEvent to the log file.
func (f *FileSender) Send(raw *types.RawEvent) error {
	return f.w.Write(raw)
}

// returns absolute path of log file.
func (f *FileSender) logFilePath() string {
	pid := os.Getpid()
	prefix, ok := os.LookupEnv(info.DefaultLogfileEnv)
	if !ok {
		prefix = info.DefaultLogfilePrefix
	}
	relativePath := fmt.Sprintf("%s.%d%s", prefix, pid, eventlog.FormatJSON.Ext())
	absPath, err := filepath.Abs(relativePath)
	if err != nil {
		log.Panic(err)
	}
	return absPath
}
