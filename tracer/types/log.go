package types

// RawEvent はイベントログの1レコード。
// Hookに配送されるイベントとは異なり、フレームへの参照は持たない。
// フレームは simulator が Thread ごとのスタックから復元する。
type RawEvent struct {
	Tag    TagName
	Thread ThreadID
	Stream StreamID
	// Tag == TagCall のときのみ使用する。
	File      string
	FirstLine int
	// Tag == TagCall, TagLine のときに使用する。
	Line int
}
