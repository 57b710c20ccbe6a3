package eventlog

import (
	"encoding/json"
	"io"

	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
	"github.com/yuuki0xff/gocovtrace/tracer/types"
)

type encoder interface {
	Encode(v interface{}) error
}

// Writer writes events to the log.
// 複数の goroutine から同時に呼び出してはならない。
type Writer struct {
	enc encoder
}

func NewWriter(w io.Writer, format Format) (*Writer, error) {
	switch format {
	case FormatJSON:
		return &Writer{enc: json.NewEncoder(w)}, nil
	case FormatMsgpack:
		return &Writer{enc: msgpack.NewEncoder(w)}, nil
	default:
		return nil, errors.Wrapf(ErrUnknownFormat, "format=%d", format)
	}
}

func (w *Writer) Write(raw *types.RawEvent) error {
	return w.enc.Encode(newRecord(raw))
}
