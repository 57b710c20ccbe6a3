package coverage

import (
	"bytes"
	"log"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/yuuki0xff/gocovtrace/tracer/simulator"
	"github.com/yuuki0xff/gocovtrace/tracer/types"
)

const testThread = types.ThreadID(1)

func call(file string, firstLine int) types.RawEvent {
	return types.RawEvent{Tag: types.TagCall, Thread: testThread, File: file, FirstLine: firstLine}
}
func line(n int) types.RawEvent {
	return types.RawEvent{Tag: types.TagLine, Thread: testThread, Line: n}
}
func ret() types.RawEvent {
	return types.RawEvent{Tag: types.TagReturn, Thread: testThread}
}
func exc() types.RawEvent {
	return types.RawEvent{Tag: types.TagException, Thread: testThread}
}
func unwind() types.RawEvent {
	return types.RawEvent{Tag: types.TagUnwind, Thread: testThread}
}
func onStream(id types.StreamID, events ...types.RawEvent) []types.RawEvent {
	for i := range events {
		events[i].Stream = id
	}
	return events
}
func join(lists ...[]types.RawEvent) []types.RawEvent {
	var events []types.RawEvent
	for _, l := range lists {
		events = append(events, l...)
	}
	return events
}

// トレース対象のファイルと、Oracle の呼び出し回数を保持する。
type countingOracle struct {
	traced map[string]types.Disposition
	calls  map[string]int
}

func traceFiles(files ...string) *countingOracle {
	o := &countingOracle{
		traced: map[string]types.Disposition{},
		calls:  map[string]int{},
	}
	for _, f := range files {
		o.traced[f] = types.Disposition{Trace: true, SourceFilename: "/src/" + f}
	}
	return o
}

func (o *countingOracle) ShouldTrace(filename string, frame types.Frame) types.Disposition {
	o.calls[filename]++
	return o.traced[filename]
}

// rec に events を記録させる。
func record(t *testing.T, rec *Recorder, events []types.RawEvent) *simulator.StateSimulator {
	sim := &simulator.StateSimulator{}
	sim.Init()
	sim.Switch(testThread)
	rec.Host = sim.Runtime
	if rec.Oracle == nil {
		rec.Oracle = traceFiles()
	}
	rec.Strict = true

	hook := rec.Start()
	if hook != types.Hook(rec) {
		t.Fatalf("Recorder.Start() should return itself, but %+v", hook)
	}
	if err := sim.Replay(events); err != nil {
		t.Fatalf("failed to replay events: %s", err)
	}
	sim.Switch(testThread)
	rec.Stop()
	return sim
}

// main.go から f.go の関数 f (10-12行目) を呼び出す。
func callF(times int) []types.RawEvent {
	events := []types.RawEvent{call("main.go", 1), line(5)}
	for i := 0; i < times; i++ {
		events = append(events,
			call("f.go", 10), line(10), line(11), line(12), ret(),
			line(6),
		)
	}
	return append(events, ret())
}

func TestRecorder_lines(t *testing.T) {
	a := assert.New(t)
	rec := &Recorder{Oracle: traceFiles("f.go")}
	record(t, rec, callF(2))

	data := rec.Data()
	a.False(data.HasArcs())
	a.Equal([]string{"/src/f.go"}, data.Units())
	u, ok := data.Unit("/src/f.go")
	a.True(ok)
	a.Equal([]int{10, 11, 12}, u.Lines())
	a.Equal(0, rec.depth())
}

func TestRecorder_arcs(t *testing.T) {
	a := assert.New(t)
	expected := []types.Arc{
		{From: types.SentinelEntry, To: 10},
		{From: 10, To: 11},
		{From: 11, To: 12},
		{From: 12, To: -10},
	}

	for _, times := range []int{1, 2} {
		rec := &Recorder{Oracle: traceFiles("f.go"), Arcs: true}
		record(t, rec, callF(times))

		u, ok := rec.Data().Unit("/src/f.go")
		a.True(ok)
		a.Equal(expected, u.Arcs(), "called %d times", times)
	}
}

func TestRecorder_arcsOfCaller(t *testing.T) {
	a := assert.New(t)
	rec := &Recorder{Oracle: traceFiles("main.go", "f.go"), Arcs: true}
	record(t, rec, callF(1))

	u, _ := rec.Data().Unit("/src/main.go")
	// f.go の呼び出しから戻ると、呼び出し元の last line (5) が復元される。
	a.Equal([]types.Arc{
		{From: types.SentinelEntry, To: 5},
		{From: 5, To: 6},
		{From: 6, To: -1},
	}, u.Arcs())
}

func TestRecorder_untracedFile(t *testing.T) {
	a := assert.New(t)
	rec := &Recorder{Oracle: traceFiles("main.go")}
	record(t, rec, []types.RawEvent{
		call("main.go", 1), line(2),
		call("x.go", 100), line(100), line(101), ret(),
		line(3), ret(),
	})

	a.Equal([]string{"/src/main.go"}, rec.Data().Units())
	_, ok := rec.Data().Unit("/src/x.go")
	a.False(ok)
	u, _ := rec.Data().Unit("/src/main.go")
	a.Equal([]int{2, 3}, u.Lines())
}

func TestRecorder_callbackFromUntracedFile(t *testing.T) {
	a := assert.New(t)
	rec := &Recorder{Oracle: traceFiles("main.go"), Arcs: true}
	record(t, rec, []types.RawEvent{
		call("main.go", 1), line(2),
		call("lib.go", 100), line(100),
		call("main.go", 30), line(30), ret(),
		line(101), ret(),
		line(3), ret(),
	})

	u, _ := rec.Data().Unit("/src/main.go")
	a.Equal([]types.Arc{
		{From: types.SentinelEntry, To: 2},
		{From: types.SentinelEntry, To: 30},
		{From: 2, To: 3},
		{From: 3, To: -1},
		{From: 30, To: -30},
	}, u.Arcs())
}

func TestRecorder_oracleIsCalledOncePerFile(t *testing.T) {
	a := assert.New(t)
	oracle := traceFiles("f.go")
	rec := &Recorder{Oracle: oracle}
	record(t, rec, join(callF(5), callF(3)))

	a.Equal(map[string]int{
		"main.go": 1,
		"f.go":    1,
	}, oracle.calls)
	a.Equal(2, rec.Stats().Dispositions)
}

func TestRecorder_sharedCache(t *testing.T) {
	a := assert.New(t)
	oracle := traceFiles()
	cache := map[string]types.Disposition{
		"main.go": {Trace: false},
		"f.go":    {Trace: true, SourceFilename: "/cached/f.go"},
	}
	rec := &Recorder{Oracle: oracle, Cache: cache}
	record(t, rec, callF(1))

	a.Len(oracle.calls, 0)
	a.Equal([]string{"/cached/f.go"}, rec.Data().Units())
}

func TestRecorder_emptySourceFilename(t *testing.T) {
	a := assert.New(t)
	oracle := traceFiles()
	oracle.traced["f.go"] = types.Disposition{Trace: true}
	rec := &Recorder{Oracle: oracle}
	record(t, rec, callF(1))
	a.Equal(0, rec.Data().UnitCount())
}

func TestRecorder_skippedReturn(t *testing.T) {
	a := assert.New(t)
	body := func(leave types.RawEvent) []types.RawEvent {
		return []types.RawEvent{
			call("main.go", 1), line(2),
			call("f.go", 10), line(10), line(11),
			exc(),
			leave,
			// 呼び出し元に例外が伝搬する。
			exc(),
			line(3), ret(),
		}
	}

	withReturn := &Recorder{Oracle: traceFiles("main.go", "f.go"), Arcs: true}
	record(t, withReturn, body(ret()))
	withUnwind := &Recorder{Oracle: traceFiles("main.go", "f.go"), Arcs: true}
	record(t, withUnwind, body(unwind()))

	for _, name := range []string{"/src/main.go", "/src/f.go"} {
		expected, _ := withReturn.Data().Unit(name)
		actual, _ := withUnwind.Data().Unit(name)
		a.Equal(expected.Arcs(), actual.Arcs(), name)
	}
	f, _ := withUnwind.Data().Unit("/src/f.go")
	a.Contains(f.Arcs(), types.Arc{From: 11, To: -10})
	a.Equal(0, withUnwind.depth())
}

func TestRecorder_handledException(t *testing.T) {
	a := assert.New(t)
	rec := &Recorder{Oracle: traceFiles("f.go"), Arcs: true}
	record(t, rec, []types.RawEvent{
		call("f.go", 10), line(10),
		exc(),
		// 例外は f の中で処理された。
		line(12), ret(),
	})

	u, _ := rec.Data().Unit("/src/f.go")
	a.Equal([]types.Arc{
		{From: types.SentinelEntry, To: 10},
		{From: 10, To: 12},
		{From: 12, To: -10},
	}, u.Arcs())
	a.Equal(0, rec.depth())
}

func TestRecorder_streams(t *testing.T) {
	a := assert.New(t)
	s1 := func() []types.RawEvent {
		return onStream(1, call("a.go", 1), line(1))
	}
	s1end := func() []types.RawEvent {
		return onStream(1, line(2), line(3), ret())
	}
	s2 := func() []types.RawEvent {
		return onStream(2, call("b.go", 20), line(20), line(21), ret())
	}
	s2resume := func() []types.RawEvent {
		return onStream(2, call("b.go", 20), line(22), ret())
	}

	run := func(events []types.RawEvent) *Data {
		rec := &Recorder{Oracle: traceFiles("a.go", "b.go"), Arcs: true}
		sim := &simulator.StateSimulator{}
		sim.Init()
		sim.Switch(testThread)
		rec.StreamID = sim.StreamID
		rec.Host = sim.Runtime
		rec.Strict = true
		rec.Start()
		a.NoError(sim.Replay(events))
		rec.Stop()
		for id, stack := range rec.stacks {
			a.Equal(0, stack.depth(), "stream=%s", id)
		}
		return rec.Data()
	}

	interleaved := run(join(s1(), s2(), s1end()[:1], s2resume(), s1end()[1:]))
	alone1 := run(join(s1(), s1end()))
	alone2 := run(join(s2(), s2resume()))

	ia, _ := interleaved.Unit("/src/a.go")
	aa, _ := alone1.Unit("/src/a.go")
	a.Equal(aa.Arcs(), ia.Arcs())
	ib, _ := interleaved.Unit("/src/b.go")
	ab, _ := alone2.Unit("/src/b.go")
	a.Equal(ab.Arcs(), ib.Arcs())
	a.Equal([]types.Arc{
		{From: types.SentinelEntry, To: 20},
		{From: types.SentinelEntry, To: 22},
		{From: 20, To: 21},
		{From: 21, To: -20},
		{From: 22, To: -20},
	}, ib.Arcs())
}

func TestRecorder_streams_openCallOnOtherStream(t *testing.T) {
	a := assert.New(t)
	sim := &simulator.StateSimulator{}
	sim.Init()
	var stream types.StreamID
	rec := &Recorder{
		Host:     sim.Runtime,
		Oracle:   traceFiles("main.go", "a.go", "b.go"),
		StreamID: func() types.StreamID { return stream },
		Strict:   true,
	}
	rec.Start()

	m := &testFrame{file: "main.go", firstLine: 5}
	fa := &testFrame{file: "a.go", firstLine: 1, back: m}
	fb := &testFrame{file: "b.go", firstLine: 20}
	trace := func(id types.StreamID, frame *testFrame, event types.Event, line int) {
		stream = id
		frame.line = line
		a.Equal(types.Hook(rec), rec.Trace(frame, event))
	}

	trace(1, m, types.CallEvent, 5)
	trace(1, m, types.LineEvent, 5)
	trace(1, fa, types.CallEvent, 1)
	trace(1, fa, types.LineEvent, 1)
	// b.go の呼び出しは、a.go が return した後も終了していない。
	trace(2, fb, types.CallEvent, 20)
	trace(2, fb, types.LineEvent, 20)
	trace(1, fa, types.ReturnEvent, 1)
	a.Equal(1, rec.stacks[1].depth())
	a.Equal(1, rec.stacks[2].depth())

	// ストリーム1 は自身のスタックから main.go の位置に復帰する。
	trace(1, m, types.LineEvent, 6)
	trace(2, fb, types.ReturnEvent, 20)
	trace(1, m, types.ReturnEvent, 6)
	rec.Stop()

	a.Equal(0, rec.stacks[1].depth())
	a.Equal(0, rec.stacks[2].depth())
	um, _ := rec.Data().Unit("/src/main.go")
	a.Equal([]int{5, 6}, um.Lines())
	ua, _ := rec.Data().Unit("/src/a.go")
	a.Equal([]int{1}, ua.Lines())
	ub, _ := rec.Data().Unit("/src/b.go")
	a.Equal([]int{20}, ub.Lines())
}

func TestRecorder_otherThreadIsNotTraced(t *testing.T) {
	a := assert.New(t)
	rec := &Recorder{Oracle: traceFiles("f.go")}
	events := callF(1)
	for i := range events {
		events[i].Thread = 2
	}
	record(t, rec, events)
	a.Equal(0, rec.Data().UnitCount())
}

// 行の範囲を返すプラグイン
type spanPlugin struct {
	span    int
	invalid map[int]bool
}

func (p *spanPlugin) Name() string {
	return "span"
}
func (p *spanPlugin) LineNumberRange(frame types.Frame) (from, to int) {
	if p.invalid[frame.Line()] {
		return types.SentinelEntry, types.SentinelEntry
	}
	return frame.Line(), frame.Line() + p.span
}

// ファイル名を動的に決定するプラグイン
type templatePlugin struct {
	spanPlugin
}

func (p *templatePlugin) Name() string {
	return "template"
}
func (p *templatePlugin) DynamicSourceFileName(name string, frame types.Frame) string {
	if frame.FirstLine() == 0 {
		return ""
	}
	return strings.Replace(name, ".go", ".html", 1)
}

func TestRecorder_pluginLineRange(t *testing.T) {
	a := assert.New(t)
	plugin := &spanPlugin{span: 2, invalid: map[int]bool{15: true}}
	events := []types.RawEvent{
		call("t.go", 10), line(10), line(15), line(20), ret(),
	}

	oracle := traceFiles()
	oracle.traced["t.go"] = types.Disposition{Trace: true, SourceFilename: "/src/t.go", Plugin: plugin}
	rec := &Recorder{Oracle: oracle}
	record(t, rec, events)
	u, _ := rec.Data().Unit("/src/t.go")
	a.Equal([]int{10, 11, 12, 20, 21, 22}, u.Lines())
	name, ok := rec.Data().PluginName("/src/t.go")
	a.True(ok)
	a.Equal("span", name)

	rec = &Recorder{Oracle: oracle, Arcs: true}
	record(t, rec, events)
	u, _ = rec.Data().Unit("/src/t.go")
	a.Equal([]types.Arc{
		{From: types.SentinelEntry, To: 10},
		{From: 12, To: 20},
		{From: 22, To: -10},
	}, u.Arcs())
}

func TestRecorder_dynamicSourceFileName(t *testing.T) {
	a := assert.New(t)
	plugin := &templatePlugin{}
	oracle := traceFiles()
	oracle.traced["t.go"] = types.Disposition{Trace: true, SourceFilename: "/src/t.go", Plugin: plugin}
	oracle.traced["vendor.go"] = types.Disposition{Trace: true, SourceFilename: "/vendor/t.go", Plugin: plugin}
	rec := &Recorder{
		Oracle: oracle,
		CheckInclude: func(name string) bool {
			return !strings.HasPrefix(name, "/vendor/")
		},
	}
	record(t, rec, []types.RawEvent{
		call("t.go", 10), line(10), ret(),
		// DynamicSourceFileName が名前を返さない。
		call("t.go", 0), line(1), ret(),
		// CheckInclude で除外される。
		call("vendor.go", 10), line(10), ret(),
	})

	a.Equal([]string{"/src/t.html"}, rec.Data().Units())
	u, _ := rec.Data().Unit("/src/t.html")
	a.Equal([]int{10}, u.Lines())
	name, _ := rec.Data().PluginName("/src/t.html")
	a.Equal("template", name)
}

type otherHook struct{}

func (otherHook) Trace(types.Frame, types.Event) types.Hook { return nil }

func TestRecorder_Stop_hookChanged(t *testing.T) {
	a := assert.New(t)
	var warnings []string
	sim := &simulator.StateSimulator{}
	sim.Init()
	rec := &Recorder{
		Host:   sim.Runtime,
		Oracle: traceFiles(),
		Warn: func(msg string) {
			warnings = append(warnings, msg)
		},
	}
	rec.Start()
	sim.Runtime.SetHook(otherHook{})
	rec.Stop()

	a.Len(warnings, 1)
	a.Contains(warnings[0], "Trace function changed, measurement is likely wrong")
	a.Nil(sim.Runtime.Hook())
}

func TestRecorder_Stop_sameHook(t *testing.T) {
	a := assert.New(t)
	var warnings []string
	sim := &simulator.StateSimulator{}
	sim.Init()
	rec := &Recorder{
		Host:   sim.Runtime,
		Oracle: traceFiles(),
		Warn: func(msg string) {
			warnings = append(warnings, msg)
		},
	}
	rec.Start()
	rec.Stop()
	a.Len(warnings, 0)
	a.Nil(sim.Runtime.Hook())
	a.True(rec.Stopped())
}

func TestRecorder_Stop_fromOtherThread(t *testing.T) {
	a := assert.New(t)
	sim := &simulator.StateSimulator{}
	sim.Init()
	sim.Switch(testThread)
	rec := &Recorder{
		Host:   sim.Runtime,
		Oracle: traceFiles("f.go"),
	}
	rec.Start()
	a.NoError(sim.Replay([]types.RawEvent{call("f.go", 10), line(10)}))

	sim.Switch(2)
	rec.Stop()

	// フックの登録は解除されていないが、以降のイベントは無視される。
	sim.Switch(testThread)
	a.Equal(types.Hook(rec), sim.Runtime.Hook())
	a.NoError(sim.Replay([]types.RawEvent{line(11), ret(), call("f.go", 10), line(12), ret()}))

	u, _ := rec.Data().Unit("/src/f.go")
	a.Equal([]int{10}, u.Lines())
}

type testFrame struct {
	file      string
	firstLine int
	line      int
	back      *testFrame
}

func (f *testFrame) File() string   { return f.file }
func (f *testFrame) FirstLine() int { return f.firstLine }
func (f *testFrame) Line() int      { return f.line }
func (f *testFrame) Back() types.Frame {
	if f.back == nil {
		return nil
	}
	return f.back
}

func TestRecorder_stackUnderflow_strict(t *testing.T) {
	a := assert.New(t)
	sim := &simulator.StateSimulator{}
	sim.Init()
	rec := &Recorder{Host: sim.Runtime, Oracle: traceFiles(), Strict: true}
	rec.Start()

	var err error
	func() {
		defer func() {
			err, _ = recover().(error)
		}()
		rec.Trace(&testFrame{file: "f.go", firstLine: 10}, types.ReturnEvent)
	}()
	a.Equal(ErrStackUnderflow, errors.Cause(err))
	a.EqualError(err, "thread=0: context stack underflow")
}

func TestRecorder_stackUnderflow(t *testing.T) {
	a := assert.New(t)
	var buf bytes.Buffer
	sim := &simulator.StateSimulator{}
	sim.Init()
	rec := &Recorder{
		Host:   sim.Runtime,
		Oracle: traceFiles("f.go"),
		ErrLog: log.New(&buf, "ERROR: ", 0),
	}
	rec.Start()

	frame := &testFrame{file: "f.go", firstLine: 10, line: 10}
	a.NotPanics(func() {
		a.Equal(types.Hook(rec), rec.Trace(frame, types.CallEvent))
		a.Equal(types.Hook(rec), rec.Trace(frame, types.ReturnEvent))
		a.Nil(rec.Trace(frame, types.ReturnEvent))
	})
	a.True(rec.Stopped())
	a.Contains(buf.String(), "context stack underflow")
	// 以降のイベントは無視する。
	a.Nil(rec.Trace(frame, types.CallEvent))
}

func TestRecorder_Trace_noAllocs(t *testing.T) {
	a := assert.New(t)
	sim := &simulator.StateSimulator{}
	sim.Init()
	rec := &Recorder{Host: sim.Runtime, Oracle: traceFiles()}
	rec.Start()

	frame := &testFrame{file: "f.go", firstLine: 10, line: 11}
	rec.Trace(frame, types.CallEvent)
	allocs := testing.AllocsPerRun(100, func() {
		rec.Trace(frame, types.LineEvent)
	})
	a.Zero(allocs)
	a.False(rec.Stopped())
}

func TestRecorder_Stats(t *testing.T) {
	a := assert.New(t)
	sim := &simulator.StateSimulator{}
	sim.Init()
	sim.Switch(testThread)
	rec := &Recorder{Host: sim.Runtime, Oracle: traceFiles("main.go", "f.go")}
	rec.Start()
	a.NoError(sim.Replay(callF(2)))
	a.Nil(rec.Stats())
	rec.Stop()

	a.Equal(&Stats{
		Lines:        5,
		Units:        2,
		Dispositions: 2,
	}, rec.Stats())
	a.Contains(rec.String(), "5 lines in 2 files")
}

func TestRecorder_Start_twice(t *testing.T) {
	a := assert.New(t)
	sim := &simulator.StateSimulator{}
	sim.Init()
	rec := &Recorder{Host: sim.Runtime, Oracle: traceFiles()}
	rec.Start()
	a.Panics(func() {
		rec.Start()
	})
}
