package types

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// 関数に入った直後であることを表す行番号。
	// 呼び出し直後のアークは (SentinelEntry, n) として記録される。
	SentinelEntry = -1
)

// Event is a kind of event that is delivered from the host runtime to a Hook.
type Event uint8

const (
	CallEvent Event = iota
	LineEvent
	ReturnEvent
	ExceptionEvent
)

func (e Event) String() string {
	switch e {
	case CallEvent:
		return "call"
	case LineEvent:
		return "line"
	case ReturnEvent:
		return "return"
	case ExceptionEvent:
		return "exception"
	default:
		return "Event(" + strconv.Itoa(int(e)) + ")"
	}
}

// TagName はイベントログ中のレコードの種類を表す。
// Hookに配送される4種類のイベントに加えて、return イベントを発生させずに
// フレームを破棄する TagUnwind がある。
type TagName uint8

const (
	TagCall TagName = iota
	TagLine
	TagReturn
	TagException
	TagUnwind
)

var tagNames = [...]string{
	TagCall:      "call",
	TagLine:      "line",
	TagReturn:    "return",
	TagException: "exception",
	TagUnwind:    "unwind",
}

func (t TagName) String() string {
	if int(t) < len(tagNames) {
		return tagNames[t]
	}
	return "TagName(" + strconv.Itoa(int(t)) + ")"
}

func (t TagName) MarshalText() ([]byte, error) {
	if int(t) >= len(tagNames) {
		return nil, fmt.Errorf("unknown tag: %d", t)
	}
	return []byte(tagNames[t]), nil
}

func (t *TagName) UnmarshalText(text []byte) error {
	s := strings.ToLower(string(text))
	for i, name := range tagNames {
		if name == s {
			*t = TagName(i)
			return nil
		}
	}
	return fmt.Errorf("unknown tag: %q", string(text))
}

type ThreadID int64 // ThreadID - goroutine ID or host thread ID
type StreamID int64

func (id ThreadID) String() string {
	return strconv.FormatInt(int64(id), 10)
}
func (id StreamID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// Arc is a directed transition between two lines.
// 関数からの脱出は To に関数の先頭行を負の値にしたものを用いる。
type Arc struct {
	From int
	To   int
}

func (a Arc) String() string {
	return "(" + strconv.Itoa(a.From) + "," + strconv.Itoa(a.To) + ")"
}

// IsEntry は関数に入ったときのアークであれば true を返す。
func (a Arc) IsEntry() bool {
	return a.From == SentinelEntry
}

// IsExit は関数から抜けたときのアークであれば true を返す。
func (a Arc) IsExit() bool {
	return a.To < 0
}

// Less はソート用の比較関数。
func (a Arc) Less(b Arc) bool {
	if a.From != b.From {
		return a.From < b.From
	}
	return a.To < b.To
}
