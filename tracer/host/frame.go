package host

import (
	"fmt"

	"github.com/yuuki0xff/gocovtrace/tracer/types"
)

// Frame is an activation record managed by Runtime.
type Frame struct {
	file      string
	firstLine int
	line      int
	back      *Frame
	// このフレームのイベントを受け取る Hook
	hook types.Hook
}

func (f *Frame) File() string {
	return f.file
}
func (f *Frame) FirstLine() int {
	return f.firstLine
}
func (f *Frame) Line() int {
	return f.line
}

// Back returns the caller frame.
func (f *Frame) Back() types.Frame {
	// typed nil を返さないようにする。
	if f.back == nil {
		return nil
	}
	return f.back
}

func (f *Frame) String() string {
	return fmt.Sprintf("<Frame %s:%d in func@%d>", f.file, f.line, f.firstLine)
}
