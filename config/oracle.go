package config

import (
	"path/filepath"

	"github.com/yuuki0xff/gocovtrace/tracer/types"
)

// PatternOracle decides whether a file should be traced by glob patterns.
// パターンはファイルのパスと、ファイル名の両方に対して照合する。
type PatternOracle struct {
	Include []string
	Omit    []string
}

func (o *PatternOracle) ShouldTrace(filename string, frame types.Frame) types.Disposition {
	if filename == "" {
		return types.Disposition{}
	}
	name := filepath.Clean(filename)
	if !o.Match(name) {
		return types.Disposition{}
	}
	return types.Disposition{
		Trace:          true,
		SourceFilename: name,
	}
}

// Match returns true if name should be recorded.
// recorder の CheckInclude としても使用できる。
func (o *PatternOracle) Match(name string) bool {
	if matchAny(o.Omit, name) {
		return false
	}
	if len(o.Include) == 0 {
		return true
	}
	return matchAny(o.Include, name)
}

func matchAny(patterns []string, name string) bool {
	base := filepath.Base(name)
	for _, pattern := range patterns {
		// 不正なパターンは Config.Load() で検出済み。
		if ok, _ := filepath.Match(pattern, name); ok {
			return true
		}
		if ok, _ := filepath.Match(pattern, base); ok {
			return true
		}
	}
	return false
}
