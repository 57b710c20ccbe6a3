package eventlog

import (
	"fortio.org/safecast"
	"github.com/pkg/errors"
	"github.com/yuuki0xff/gocovtrace/tracer/types"
)

// ログファイル上の表現。
// 行番号は int64 で格納し、読み込み時に int へ変換する。
type record struct {
	Tag       string `json:"tag" msgpack:"tag"`
	Thread    int64  `json:"thread" msgpack:"thread"`
	Stream    int64  `json:"stream,omitempty" msgpack:"stream,omitempty"`
	File      string `json:"file,omitempty" msgpack:"file,omitempty"`
	FirstLine int64  `json:"first_line,omitempty" msgpack:"first_line,omitempty"`
	Line      int64  `json:"line,omitempty" msgpack:"line,omitempty"`
}

func newRecord(raw *types.RawEvent) record {
	return record{
		Tag:       raw.Tag.String(),
		Thread:    int64(raw.Thread),
		Stream:    int64(raw.Stream),
		File:      raw.File,
		FirstLine: int64(raw.FirstLine),
		Line:      int64(raw.Line),
	}
}

func (r *record) rawEvent() (raw types.RawEvent, err error) {
	if err = raw.Tag.UnmarshalText([]byte(r.Tag)); err != nil {
		return
	}
	raw.Thread = types.ThreadID(r.Thread)
	raw.Stream = types.StreamID(r.Stream)
	raw.File = r.File
	if raw.FirstLine, err = safecast.Conv[int](r.FirstLine); err != nil {
		err = errors.Wrap(err, "first_line")
		return
	}
	if raw.Line, err = safecast.Conv[int](r.Line); err != nil {
		err = errors.Wrap(err, "line")
		return
	}
	if raw.Tag == types.TagCall && raw.File == "" {
		err = errors.New("call event without file")
	}
	return
}
