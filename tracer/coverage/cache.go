package coverage

import "github.com/yuuki0xff/gocovtrace/tracer/types"

// ファイル名ごとに、トレース対象かどうかの判定結果を保持する。
// Oracle の呼び出しは重いため、同じファイル名に対しては1回しか呼び出さない。
// 計測中に判定結果が変わることは想定していないので、キャッシュの破棄は行わない。
type dispositionCache struct {
	oracle types.Oracle
	m      map[string]types.Disposition
}

func newDispositionCache(oracle types.Oracle, m map[string]types.Disposition) *dispositionCache {
	if m == nil {
		m = make(map[string]types.Disposition)
	}
	return &dispositionCache{
		oracle: oracle,
		m:      m,
	}
}

// resolve はファイル名に対応する Disposition を返す。
// キーはフレームから取得した生のファイル名であり、正規化後の名前ではない。
func (c *dispositionCache) resolve(filename string, frame types.Frame) types.Disposition {
	disp, ok := c.m[filename]
	if !ok {
		disp = c.oracle.ShouldTrace(filename, frame)
		c.m[filename] = disp
	}
	return disp
}

func (c *dispositionCache) len() int {
	return len(c.m)
}
