package eventlog

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
	"github.com/yuuki0xff/gocovtrace/tracer/types"
)

const (
	BufferSize = 1 << 16
)

// Load reads all events from r.
func Load(r io.Reader, format Format) ([]types.RawEvent, error) {
	switch format {
	case FormatJSON:
		return loadJSON(r)
	case FormatMsgpack:
		return loadMsgpack(r)
	default:
		return nil, errors.Wrapf(ErrUnknownFormat, "format=%d", format)
	}
}

// LoadFile reads all events from the file.
// フォーマットは拡張子から判定する。
func LoadFile(path string) ([]types.RawEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	events, err := Load(f, FormatFromPath(path))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load %s", path)
	}
	return events, nil
}

func loadJSON(data io.Reader) ([]types.RawEvent, error) {
	var events []types.RawEvent
	r := bufio.NewReaderSize(data, BufferSize)
	lineno := 0

	for {
		line, err := r.ReadBytes('\n')
		if err != nil && err != io.EOF {
			return nil, err
		}
		lineno++

		// ignore blank lines
		if len(bytes.TrimSpace(line)) > 0 {
			var rec record
			if err := json.Unmarshal(line, &rec); err != nil {
				return nil, errors.Wrapf(err, "line %d", lineno)
			}
			raw, err := rec.rawEvent()
			if err != nil {
				return nil, errors.Wrapf(err, "line %d", lineno)
			}
			events = append(events, raw)
		}

		if err == io.EOF {
			return events, nil
		}
	}
}

func loadMsgpack(r io.Reader) ([]types.RawEvent, error) {
	var events []types.RawEvent
	dec := msgpack.NewDecoder(bufio.NewReaderSize(r, BufferSize))
	for i := 0; ; i++ {
		var rec record
		if err := dec.Decode(&rec); err != nil {
			if err == io.EOF {
				return events, nil
			}
			return nil, errors.Wrapf(err, "record %d", i)
		}
		raw, err := rec.rawEvent()
		if err != nil {
			return nil, errors.Wrapf(err, "record %d", i)
		}
		events = append(events, raw)
	}
}
