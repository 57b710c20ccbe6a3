package coverage

import (
	"sort"

	set "github.com/deckarep/golang-set"
	"github.com/yuuki0xff/gocovtrace/tracer/types"
)

// UnitRecord holds the executed lines or arcs of a source file.
// 行モードのときは int を、アークモードのときは types.Arc を格納する。
type UnitRecord struct {
	Name string
	hits set.Set
}

func newUnitRecord(name string) *UnitRecord {
	return &UnitRecord{
		Name: name,
		// Recorder は単一のスレッドからしか更新しないので、ロックは不要。
		hits: set.NewThreadUnsafeSet(),
	}
}

func (u *UnitRecord) AddLine(line int) {
	u.hits.Add(line)
}

func (u *UnitRecord) AddArc(from, to int) {
	u.hits.Add(types.Arc{From: from, To: to})
}

// Len は記録された行またはアークの数を返す。
func (u *UnitRecord) Len() int {
	return u.hits.Cardinality()
}

// Lines は記録された行番号を昇順で返す。
func (u *UnitRecord) Lines() []int {
	lines := make([]int, 0, u.hits.Cardinality())
	u.hits.Each(func(item interface{}) bool {
		if line, ok := item.(int); ok {
			lines = append(lines, line)
		}
		return false
	})
	sort.Ints(lines)
	return lines
}

// Arcs は記録されたアークを (From, To) の昇順で返す。
func (u *UnitRecord) Arcs() []types.Arc {
	arcs := make([]types.Arc, 0, u.hits.Cardinality())
	u.hits.Each(func(item interface{}) bool {
		if arc, ok := item.(types.Arc); ok {
			arcs = append(arcs, arc)
		}
		return false
	})
	sort.Slice(arcs, func(i, j int) bool {
		return arcs[i].Less(arcs[j])
	})
	return arcs
}

// Data is the measurement result of a session.
// 計測中は Recorder のみが更新する。Recorder.Stop() の後は読み出し専用として扱うこと。
type Data struct {
	arcs bool
	// 正規化済みのファイル名 -> 記録
	units map[string]*UnitRecord
	// 正規化済みのファイル名 -> プラグイン名
	plugins map[string]string
}

func newData(arcs bool) *Data {
	return &Data{
		arcs:    arcs,
		units:   make(map[string]*UnitRecord),
		plugins: make(map[string]string),
	}
}

// GetOrCreate returns the UnitRecord of name.
// 存在しなければ新規作成して登録し、created == true を返す。
func (d *Data) GetOrCreate(name string) (u *UnitRecord, created bool) {
	u, ok := d.units[name]
	if !ok {
		u = newUnitRecord(name)
		d.units[name] = u
		created = true
	}
	return
}

func (d *Data) SetPluginName(name, plugin string) {
	d.plugins[name] = plugin
}

// HasArcs returns true if this data holds arcs instead of lines.
func (d *Data) HasArcs() bool {
	return d.arcs
}

// Units は記録のあるファイル名を昇順で返す。
func (d *Data) Units() []string {
	names := make([]string, 0, len(d.units))
	for name := range d.units {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (d *Data) Unit(name string) (*UnitRecord, bool) {
	u, ok := d.units[name]
	return u, ok
}

// PluginName はファイルを記録したプラグインの名前を返す。
func (d *Data) PluginName(name string) (string, bool) {
	p, ok := d.plugins[name]
	return p, ok
}

// LineCount は全てのファイルで記録された行(またはアーク)の合計を返す。
func (d *Data) LineCount() int {
	var n int
	for _, u := range d.units {
		n += u.Len()
	}
	return n
}

func (d *Data) UnitCount() int {
	return len(d.units)
}

// Stats is diagnostic counters of a Recorder.
type Stats struct {
	Lines int
	Units int
	// Oracle に問い合わせたファイルの数
	Dispositions int
}
