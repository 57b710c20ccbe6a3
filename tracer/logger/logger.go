package logger

import (
	"log"
	"regexp"
	"runtime"
	"strconv"
	"sync"

	"github.com/yuuki0xff/gocovtrace/tracer/host"
	"github.com/yuuki0xff/gocovtrace/tracer/types"
)

const (
	skips         = 2
	backtraceSize = 64
)

var (
	lock   = sync.Mutex{}
	sender Sender
	// sender の初期化を試みたかどうか
	senderInitialized bool

	hostRuntime = &host.Runtime{
		Current: gid,
	}

	// stack traceからGID(Goroutine ID)を取得するための正規表現
	gidRegExp = regexp.MustCompile(`^goroutine (\d+)`)
)

// Host returns the host that delivers events of instrumented code.
func Host() types.Host {
	return hostRuntime
}

func gid() types.ThreadID {
	var buf [backtraceSize]byte
	runtime.Stack(buf[:], false) // First line is "goroutine xxx [running]"
	matches := gidRegExp.FindSubmatch(buf[:])
	if matches == nil {
		log.Panicf("failed to detect goroutine id: %q", buf[:])
	}
	id, err := strconv.ParseInt(string(matches[1]), 10, 64)
	if err != nil {
		log.Panic(err)
	}
	return types.ThreadID(id)
}

// 呼び出し元の関数の情報を取得する。
func caller() (file string, firstLine, line int, ok bool) {
	var pc uintptr
	pc, file, line, ok = runtime.Caller(skips)
	if !ok {
		return
	}
	firstLine = line
	// runtime.FuncForPC()を使用する。
	// インライン化されると正しい関数が取得できないため、最適化を無効にしてコンパイルすること。
	if f := runtime.FuncForPC(pc); f != nil {
		_, firstLine = f.FileLine(f.Entry())
	}
	return
}

func currentLine() int {
	_, _, line, _ := runtime.Caller(skips)
	return line
}

// FuncStart must be called at the beginning of instrumented functions.
func FuncStart() {
	file, firstLine, line, ok := caller()
	if !ok {
		return
	}
	tid := gid()
	hostRuntime.Call(tid, file, firstLine, line)
	sendLog(&types.RawEvent{
		Tag:       types.TagCall,
		Thread:    tid,
		Stream:    types.StreamID(tid),
		File:      file,
		FirstLine: firstLine,
		Line:      line,
	})
}

// Line must be called before each statement.
func Line() {
	line := currentLine()
	tid := gid()
	if err := hostRuntime.Line(tid, line); err != nil {
		log.Panicf("missing FuncStart(): %s", err)
	}
	sendLog(&types.RawEvent{
		Tag:    types.TagLine,
		Thread: tid,
		Stream: types.StreamID(tid),
		Line:   line,
	})
}

// FuncEnd must be called at the end of instrumented functions.
// 通常は FuncStart() の直後に defer で呼び出す。
//
// panic が伝搬している場合は、return イベントの代わりに exception イベントを発生させて
// フレームを破棄し、同じ値で panic し直す。
// recover() を有効にするため、FuncEnd は必ず defer 文から直接呼び出すこと。
func FuncEnd() {
	if p := recover(); p != nil {
		Exception()
		Unwind()
		panic(p)
	}
	tid := gid()
	if err := hostRuntime.Return(tid); err != nil {
		log.Panicf("missing FuncStart(): %s", err)
	}
	sendLog(&types.RawEvent{
		Tag:    types.TagReturn,
		Thread: tid,
		Stream: types.StreamID(tid),
	})
}

// Exception notifies that a panic is propagating in the current function.
func Exception() {
	tid := gid()
	if err := hostRuntime.Exception(tid); err != nil {
		log.Panicf("missing FuncStart(): %s", err)
	}
	sendLog(&types.RawEvent{
		Tag:    types.TagException,
		Thread: tid,
		Stream: types.StreamID(tid),
	})
}

// Unwind discards the current frame without calling the hook.
// FuncEnd() を呼び出さずに関数を抜ける場合に使用する。
func Unwind() {
	tid := gid()
	if err := hostRuntime.Unwind(tid); err != nil {
		log.Panicf("missing FuncStart(): %s", err)
	}
	sendLog(&types.RawEvent{
		Tag:    types.TagUnwind,
		Thread: tid,
		Stream: types.StreamID(tid),
	})
}

func sendLog(raw *types.RawEvent) {
	lock.Lock()
	defer lock.Unlock()
	if !senderInitialized {
		setOutput()
	}
	if sender == nil {
		return
	}
	if err := sender.Send(raw); err != nil {
		log.Panicf("failed to sender.Send():err=%s sender=%+v ", err, sender)
	}
}

// Close closes the log file.
func Close() {
	lock.Lock()
	defer lock.Unlock()

	if sender == nil {
		// sender is already closed.
		senderInitialized = false
		return
	}

	if err := sender.Close(); err != nil {
		log.Panicf("failed to sender.Close(): err=%s sender=%+v", err, sender)
	}
	sender = nil
	senderInitialized = false
}

func setOutput() {
	senderInitialized = true
	if sender != nil {
		// sender is already opened.
		return
	}
	if !CanUseFileSender() {
		return
	}

	sender = &FileSender{}
	if err := sender.Open(); err != nil {
		log.Panicf("failed to sender.Open(): err=%s sender=%+v", err, sender)
	}
}
