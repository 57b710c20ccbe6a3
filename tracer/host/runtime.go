package host

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/yuuki0xff/gocovtrace/tracer/types"
)

var (
	ErrNoFrame = errors.New("no frame on the thread")
)

// スレッドごとの状態
type thread struct {
	// call イベントを受け取る Hook
	hook types.Hook
	// 実行中のフレーム
	top   *Frame
	depth int
}

// Runtime delivers events to hooks.
//
// Hook はスレッドごとに登録する。call イベントはスレッドに登録された Hook に配送され、
// その戻り値がフレームの Hook となる。line, return, exception イベントは
// フレームの Hook に配送される。
type Runtime struct {
	// Current returns ID of the running thread.
	Current func() types.ThreadID

	lock    sync.Mutex
	threads map[types.ThreadID]*thread
}

func (r *Runtime) thread(tid types.ThreadID) *thread {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.threads == nil {
		r.threads = make(map[types.ThreadID]*thread)
	}
	th, ok := r.threads[tid]
	if !ok {
		th = &thread{}
		r.threads[tid] = th
	}
	return th
}

func (r *Runtime) CurrentThread() types.ThreadID {
	return r.Current()
}

// SetHook sets the hook of the current thread.
func (r *Runtime) SetHook(h types.Hook) {
	r.thread(r.Current()).hook = h
}

// Hook returns the hook of the current thread.
func (r *Runtime) Hook() types.Hook {
	return r.thread(r.Current()).hook
}

// Call pushes a new frame and delivers a call event.
func (r *Runtime) Call(tid types.ThreadID, file string, firstLine, line int) *Frame {
	th := r.thread(tid)
	f := &Frame{
		file:      file,
		firstLine: firstLine,
		line:      line,
		back:      th.top,
	}
	th.top = f
	th.depth++
	if th.hook != nil {
		f.hook = th.hook.Trace(f, types.CallEvent)
	}
	return f
}

// Line delivers a line event of the current frame.
func (r *Runtime) Line(tid types.ThreadID, line int) error {
	f := r.thread(tid).top
	if f == nil {
		return errors.Wrapf(ErrNoFrame, "line event: thread=%s line=%d", tid, line)
	}
	f.line = line
	if f.hook != nil {
		f.hook = f.hook.Trace(f, types.LineEvent)
	}
	return nil
}

// Return delivers a return event and pops the current frame.
func (r *Runtime) Return(tid types.ThreadID) error {
	th := r.thread(tid)
	f := th.top
	if f == nil {
		return errors.Wrapf(ErrNoFrame, "return event: thread=%s", tid)
	}
	if f.hook != nil {
		f.hook.Trace(f, types.ReturnEvent)
	}
	r.pop(tid, th)
	return nil
}

// Exception delivers an exception event of the current frame.
func (r *Runtime) Exception(tid types.ThreadID) error {
	f := r.thread(tid).top
	if f == nil {
		return errors.Wrapf(ErrNoFrame, "exception event: thread=%s", tid)
	}
	if f.hook != nil {
		f.hook = f.hook.Trace(f, types.ExceptionEvent)
	}
	return nil
}

// Unwind pops the current frame without a return event.
// 例外によってフレームが破棄され、return イベントが発生しない状況を再現する。
func (r *Runtime) Unwind(tid types.ThreadID) error {
	th := r.thread(tid)
	if th.top == nil {
		return errors.Wrapf(ErrNoFrame, "unwind: thread=%s", tid)
	}
	r.pop(tid, th)
	return nil
}

// Top returns the current frame of the thread.
func (r *Runtime) Top(tid types.ThreadID) (*Frame, bool) {
	f := r.thread(tid).top
	return f, f != nil
}

// Depth returns the number of frames on the thread.
func (r *Runtime) Depth(tid types.ThreadID) int {
	return r.thread(tid).depth
}

func (r *Runtime) pop(tid types.ThreadID, th *thread) {
	f := th.top
	th.top = f.back
	th.depth--
	f.hook = nil

	if th.depth == 0 && th.hook == nil {
		// 終了したgoroutineの状態を残さない。
		r.lock.Lock()
		delete(r.threads, tid)
		r.lock.Unlock()
	}
}
