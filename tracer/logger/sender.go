package logger

import "github.com/yuuki0xff/gocovtrace/tracer/types"

// Sender is interface for send or store of logs.
type Sender interface {
	Open() error
	Close() error
	// RawEventを送信する。
	// この関数の実行終了後はrawの変更や破棄をしても構わない。
	Send(raw *types.RawEvent) error
}
