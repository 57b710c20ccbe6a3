package simulator

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/yuuki0xff/gocovtrace/tracer/host"
	"github.com/yuuki0xff/gocovtrace/tracer/types"
)

func (s *StateSimulator) Init() {
	s.Runtime = &host.Runtime{
		Current: s.CurrentThread,
	}
	s.current = 0
	s.stream = 0
	s.events = 0
}

// CurrentThread は実行中のスレッドのIDを返す。
func (s *StateSimulator) CurrentThread() types.ThreadID {
	return s.current
}

// StreamID は実行中のストリームのIDを返す。
// coverage.Recorder.StreamID に渡して使用する。
func (s *StateSimulator) StreamID() types.StreamID {
	return s.stream
}

// Switch は実行中のスレッドを切り替える。
// Hookの登録や解除を、特定のスレッドから行うときに使用する。
func (s *StateSimulator) Switch(tid types.ThreadID) {
	s.current = tid
}

// 新しいRawEventを受け取り、シミュレータの状態を更新する。
func (s *StateSimulator) Next(raw types.RawEvent) error {
	s.current = raw.Thread
	s.stream = raw.Stream
	s.events++

	var err error
	switch raw.Tag {
	case types.TagCall:
		line := raw.Line
		if line == 0 {
			line = raw.FirstLine
		}
		s.Runtime.Call(raw.Thread, raw.File, raw.FirstLine, line)
	case types.TagLine:
		err = s.Runtime.Line(raw.Thread, raw.Line)
	case types.TagReturn:
		err = s.Runtime.Return(raw.Thread)
	case types.TagException:
		err = s.Runtime.Exception(raw.Thread)
	case types.TagUnwind:
		err = s.Runtime.Unwind(raw.Thread)
	default:
		panic(fmt.Errorf("unsupported tag: %d", raw.Tag))
	}
	if err != nil {
		return errors.Wrapf(err, "event #%d", s.events)
	}
	return nil
}

// Replay は全てのイベントを順番に再生する。
// エラーが発生したら中断する。
func (s *StateSimulator) Replay(events []types.RawEvent) error {
	for _, raw := range events {
		if err := s.Next(raw); err != nil {
			return err
		}
	}
	return nil
}

// Events は再生したイベントの数を返す。
func (s *StateSimulator) Events() int {
	return s.events
}
