package srceditor

import (
	"bytes"
	"sort"
)

const DefaultArrayCap = 1000
const DefaultBufferCap = 1 << 18 // about 256KiB

// InsertNode inserts Src before the byte at Offset of the original source.
type InsertNode struct {
	Offset int
	Src    []byte
}

type NodeList struct {
	OrigSrc []byte
	list    []*InsertNode
}

func (nl *NodeList) Add(nodes ...*InsertNode) {
	if nl.list == nil {
		nl.list = make([]*InsertNode, 0, DefaultArrayCap)
	}
	nl.list = append(nl.list, nodes...)
}

// Format returns the edited source.
// 行番号が変わってしまうため、go/format による整形は行わない。
func (nl *NodeList) Format() []byte {
	var buf bytes.Buffer
	var pos int

	// 同じ位置に挿入するノードは、追加した順番を維持する。
	sort.SliceStable(nl.list, func(i, j int) bool {
		return nl.list[i].Offset < nl.list[j].Offset
	})

	buf.Grow(len(nl.OrigSrc) + DefaultBufferCap)
	for _, node := range nl.list {
		buf.Write(nl.OrigSrc[pos:node.Offset])
		buf.Write(node.Src)
		pos = node.Offset
	}
	buf.Write(nl.OrigSrc[pos:])
	return buf.Bytes()
}
