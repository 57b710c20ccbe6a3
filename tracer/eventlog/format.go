package eventlog

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

type Format int

const (
	// 1行に1つのJSONオブジェクトを格納する。
	FormatJSON Format = iota
	// msgpackでエンコードしたレコードを連続して格納する。
	FormatMsgpack
)

var ErrUnknownFormat = errors.New("unknown format")

// FormatFromPath はファイルの拡張子からフォーマットを推測する。
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".msgpack", ".mpk":
		return FormatMsgpack
	default:
		return FormatJSON
	}
}

// ParseFormat parses the name of format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "json", "jsonl":
		return FormatJSON, nil
	case "msgpack":
		return FormatMsgpack, nil
	default:
		return 0, errors.Wrapf(ErrUnknownFormat, "%q", name)
	}
}

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatMsgpack:
		return "msgpack"
	default:
		return "unknown"
	}
}

// Ext returns the file extension of the format.
func (f Format) Ext() string {
	if f == FormatMsgpack {
		return ".msgpack"
	}
	return ".jsonl"
}
