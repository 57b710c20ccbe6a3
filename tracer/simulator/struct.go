package simulator

import (
	"github.com/yuuki0xff/gocovtrace/tracer/host"
	"github.com/yuuki0xff/gocovtrace/tracer/types"
)

// RawEventのログを再生し、host.Runtime にイベントを発生させる。
// 実行中のスレッドとストリームは、最後に再生したイベントのものとみなす。
type StateSimulator struct {
	Runtime *host.Runtime

	// 実行中のスレッド
	current types.ThreadID
	// 実行中のストリーム
	stream types.StreamID
	// 再生したイベントの数
	events int
}
