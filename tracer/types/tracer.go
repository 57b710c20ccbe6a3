package types

// Frame is an activation record of the traced program.
// 同一のフレームかどうかは == で比較するため、実装はポインタ型であること。
type Frame interface {
	// 関数が定義されているファイル名。トレース対象かどうかの判定に使用する。
	File() string
	// 関数の先頭行
	FirstLine() int
	// 現在実行中の行
	Line() int
	// 呼び出し元のフレーム。最上位のフレームのときは nil を返す。
	Back() Frame
}

// Hook receives events from the host runtime.
// Trace の戻り値は、そのフレームで以降のイベントを受け取る Hook となる。
// nil を返した場合、そのフレームのイベントは配送されない。
type Hook interface {
	Trace(frame Frame, event Event) Hook
}

// Host is a runtime that delivers events to the registered Hook.
// Hookの登録はスレッド単位で行われる。
type Host interface {
	// 現在のスレッドの Hook を設定する。nil を渡すと解除する。
	SetHook(h Hook)
	// 現在のスレッドに設定されている Hook を返す。
	Hook() Hook
	CurrentThread() ThreadID
}

// Plugin handles source units whose lines are not plain source lines.
type Plugin interface {
	Name() string
	// frame で実行中の文がまたがる行の範囲を返す。両端を含む。
	// 不正な範囲のときは from に SentinelEntry を返す。
	LineNumberRange(frame Frame) (from, to int)
}

// DynamicNamer is implemented by the plugins that decide the source name at run time.
// 空文字列を返した場合、そのフレームはトレースしない。
type DynamicNamer interface {
	DynamicSourceFileName(name string, frame Frame) string
}

// Disposition is a decision whether and how a source file is traced.
type Disposition struct {
	Trace bool
	// 記録時に使用する正規化されたファイル名。空文字列は「名前なし」を表す。
	SourceFilename string
	Plugin         Plugin
}

// Oracle decides whether the file should be traced.
// 呼び出しのコストが高いことを想定しているため、結果はキャッシュされる。
type Oracle interface {
	ShouldTrace(filename string, frame Frame) Disposition
}

type OracleFunc func(filename string, frame Frame) Disposition

func (fn OracleFunc) ShouldTrace(filename string, frame Frame) Disposition {
	return fn(filename, frame)
}
