package coverage

import (
	"fmt"
	"log"
	"os"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/yuuki0xff/gocovtrace/tracer/types"
	"github.com/yuuki0xff/gocovtrace/tracer/util"
)

var (
	ErrStackUnderflow = errors.New("context stack underflow")
)

const hookChangedMsg = "Trace function changed, measurement is likely wrong: %v"

// Recorder records executed lines or arcs from the events of a Host.
//
// While recording, Recorder.Trace() always returns the Recorder itself. Some tools restore
// a hook that they found on the host, so only one Hook value must be seen
// by the host during a session.
type Recorder struct {
	Host   types.Host
	Oracle types.Oracle
	// true のときはアークを、false のときは行を記録する。
	Arcs bool
	// Cache が nil でなければ、Oracle の判定結果の保存先として使用する。
	Cache map[string]types.Disposition
	// プラグインが動的に決定したファイル名を記録するかどうか判定する。
	// nil のときは全て記録する。
	CheckInclude func(name string) bool
	// 現在のストリームのIDを返す。
	// nil のときは、単一のストリームのみが存在するとみなす。
	StreamID func() types.StreamID
	// 計測結果が信用できないときに呼び出される。
	Warn func(msg string)
	// Strict が true のとき、内部の矛盾を検出したら panic する。
	// false のときはエラーを ErrLog に出力し、以降のイベントを無視する。
	Strict bool
	ErrLog *log.Logger

	data  *Data
	cache *dispositionCache

	// 現在の位置。ストリームが切り替わってもコピーは作らない。
	plugin   types.Plugin
	unit     *UnitRecord
	lastLine int

	stack  *contextStack
	stacks map[types.StreamID]*contextStack

	// exception イベントを発生させたフレームの呼び出し元と、その関数の先頭行。
	// return イベントが省略されたかどうかの判定に使用する。
	lastExcBack      types.Frame
	lastExcFirstLine int

	thread  types.ThreadID
	started bool
	stopped atomic.Bool
}

// Start installs this Recorder as the hook of the current thread, and returns the Recorder.
// 戻り値は、ホストに再登録するときに使用しなければならない。
func (r *Recorder) Start() types.Hook {
	if r.started {
		log.Panicf("Recorder(%p) is already started", r)
	}
	r.init()
	r.started = true
	r.thread = r.Host.CurrentThread()
	r.Host.SetHook(r)
	return r
}

func (r *Recorder) init() {
	if r.ErrLog == nil {
		r.ErrLog = log.New(os.Stderr, "ERROR: ", 0)
	}
	r.data = newData(r.Arcs)
	r.cache = newDispositionCache(r.Oracle, r.Cache)
	r.stack = &contextStack{}
	r.stacks = make(map[types.StreamID]*contextStack)
	r.lastLine = 0
}

// Stop stops the recording.
//
// Start() と異なるスレッドから呼び出した場合、フックの登録を解除することは出来ない。
// 停止フラグを立てるだけなので、以降に Start() したスレッドでイベントが発生すると、
// それらは無視される。完全に停止することは保証しない。
func (r *Recorder) Stop() {
	r.stopped.Store(true)
	if !r.started {
		return
	}
	if r.Host.CurrentThread() != r.thread {
		return
	}

	if r.Warn != nil {
		if h := r.Host.Hook(); h != types.Hook(r) {
			r.Warn(fmt.Sprintf(hookChangedMsg, h))
		}
	}
	r.Host.SetHook(nil)
}

// Stopped returns true if Stop() was called, or the Recorder gave up recording.
func (r *Recorder) Stopped() bool {
	return r.stopped.Load()
}

// Data returns the recorded data.
// Stop() する前に読み出してはならない。
func (r *Recorder) Data() *Data {
	return r.data
}

// Stats returns the statistics of recorded data.
// 計測中は nil を返す。
func (r *Recorder) Stats() *Stats {
	if r.data == nil || !r.Stopped() {
		return nil
	}
	return &Stats{
		Lines:        r.data.LineCount(),
		Units:        r.data.UnitCount(),
		Dispositions: r.cache.len(),
	}
}

func (r *Recorder) String() string {
	if r.data == nil {
		return fmt.Sprintf("<Recorder at %p: not started>", r)
	}
	return fmt.Sprintf("<Recorder at %p: %d lines in %d files>", r, r.data.LineCount(), r.data.UnitCount())
}

// Trace handles an event of the host.
func (r *Recorder) Trace(frame types.Frame, event types.Event) types.Hook {
	if r.stopped.Load() {
		return nil
	}

	if r.Strict {
		r.dispatch(frame, event)
		return r
	}

	if !r.safeDispatch(frame, event) {
		return nil
	}
	return r
}

// safeDispatch はトレース対象のプログラムに panic を伝搬させない。
// panic したときは計測を停止して false を返す。
func (r *Recorder) safeDispatch(frame types.Frame, event types.Event) (ok bool) {
	defer func() {
		if obj := recover(); obj != nil {
			r.ErrLog.Printf("recorder stopped: event=%s file=%s: %s", event, frame.File(), util.PanicError(obj))
			r.stopped.Store(true)
			ok = false
		}
	}()
	r.dispatch(frame, event)
	return true
}

func (r *Recorder) dispatch(frame types.Frame, event types.Event) {
	if r.lastExcBack != nil {
		// TODO: 例外以外の理由で return イベントが省略されるケースに対応する。
		if frame == r.lastExcBack {
			// 例外の発生したフレームの return イベントが届かなかった。
			if r.Arcs && r.unit != nil {
				r.unit.AddArc(r.lastLine, -r.lastExcFirstLine)
			}
			r.switchStream()
			r.popContext()
		}
		r.lastExcBack = nil
	}

	switch event {
	case types.CallEvent:
		r.call(frame)
	case types.LineEvent:
		r.line(frame)
	case types.ReturnEvent:
		if r.Arcs && r.unit != nil {
			r.unit.AddArc(r.lastLine, -frame.FirstLine())
		}
		r.switchStream()
		r.popContext()
	case types.ExceptionEvent:
		r.lastExcBack = frame.Back()
		r.lastExcFirstLine = frame.FirstLine()
	default:
		panic(fmt.Errorf("unsupported event: %s", event))
	}
}

func (r *Recorder) call(frame types.Frame) {
	r.switchStream()
	r.stack.push(dispatchContext{
		plugin:   r.plugin,
		unit:     r.unit,
		lastLine: r.lastLine,
	})

	disp := r.cache.resolve(frame.File(), frame)

	r.plugin = nil
	r.unit = nil
	var name string
	if disp.Trace {
		name = disp.SourceFilename
		if disp.Plugin != nil {
			if namer, ok := disp.Plugin.(types.DynamicNamer); ok {
				name = namer.DynamicSourceFileName(name, frame)
				if name != "" && !r.checkInclude(name) {
					name = ""
				}
			}
		}
	}
	if name != "" {
		unit, created := r.data.GetOrCreate(name)
		if created && disp.Plugin != nil {
			r.data.SetPluginName(name, disp.Plugin.Name())
		}
		r.unit = unit
		r.plugin = disp.Plugin
	}

	// 次のアークは関数に入るときのアーク (SentinelEntry, n) となる。
	r.lastLine = types.SentinelEntry
}

func (r *Recorder) line(frame types.Frame) {
	var from, to int
	if r.plugin != nil {
		from, to = r.plugin.LineNumberRange(frame)
	} else {
		from = frame.Line()
		to = from
	}
	if from == types.SentinelEntry {
		return
	}

	if r.unit != nil {
		if r.Arcs {
			r.unit.AddArc(r.lastLine, from)
		} else {
			for line := from; line <= to; line++ {
				r.unit.AddLine(line)
			}
		}
	}
	r.lastLine = to
}

func (r *Recorder) checkInclude(name string) bool {
	if r.CheckInclude == nil {
		return true
	}
	return r.CheckInclude(name)
}

// switchStream は現在のストリームのスタックに切り替える。
// イベントの間でストリームが切り替わる可能性があるため、結果はキャッシュしない。
func (r *Recorder) switchStream() {
	if r.StreamID == nil {
		return
	}
	id := r.StreamID()
	s, ok := r.stacks[id]
	if !ok {
		s = &contextStack{}
		r.stacks[id] = s
	}
	r.stack = s
}

func (r *Recorder) popContext() {
	ctx, ok := r.stack.pop()
	if !ok {
		panic(errors.Wrapf(ErrStackUnderflow, "thread=%s", r.thread))
	}
	r.plugin = ctx.plugin
	r.unit = ctx.unit
	r.lastLine = ctx.lastLine
}

// depth は現在のストリームのスタックの深さを返す。
func (r *Recorder) depth() int {
	return r.stack.depth()
}
