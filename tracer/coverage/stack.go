package coverage

import "github.com/yuuki0xff/gocovtrace/tracer/types"

// 関数を呼び出す直前の呼び出し元の状態。
// return イベントを受け取ったときに、この状態に戻す。
type dispatchContext struct {
	plugin   types.Plugin
	unit     *UnitRecord
	lastLine int
}

// ストリームごとの dispatchContext のスタック。
// 深さは、まだ return していない call イベントの数と一致する。
type contextStack struct {
	items []dispatchContext
}

func (s *contextStack) push(ctx dispatchContext) {
	s.items = append(s.items, ctx)
}

// pop はスタックトップを取り出して返す。
// スタックが空のときは ok == false を返す。
func (s *contextStack) pop() (ctx dispatchContext, ok bool) {
	n := len(s.items)
	if n == 0 {
		return
	}
	ctx = s.items[n-1]
	// 参照を残さないようにする。
	s.items[n-1] = dispatchContext{}
	s.items = s.items[:n-1]
	return ctx, true
}

func (s *contextStack) depth() int {
	return len(s.items)
}
