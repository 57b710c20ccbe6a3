// Copyright © 2018 yuuki0xff <yuuki0xff@gmail.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package cmd

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/yuuki0xff/gocovtrace/tracer/eventlog"
	"github.com/yuuki0xff/gocovtrace/tracer/simulator"
	"github.com/yuuki0xff/gocovtrace/tracer/types"
)

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:                   "validate <log>",
	DisableFlagsInUseLine: true,
	Short:                 "validate an event log",
	RunE:                  wrap(runValidate),
}

// threadSummary is the statistics of events on a thread.
type threadSummary struct {
	Thread   types.ThreadID
	Events   int
	MaxDepth int
	// ログの終了時点で return していないフレームの数
	Open int
}

func runValidate(opt *handlerOpt) error {
	if len(opt.Args) != 1 {
		opt.ErrLog.Println("Should specify one event log.")
		return errInvalidArgs
	}

	events, err := eventlog.LoadFile(opt.Args[0])
	if err != nil {
		opt.ErrLog.Println(err)
		return errIo
	}

	threads, problems := validateEvents(events)
	for _, msg := range problems {
		fmt.Fprintln(opt.Stdout, msg) // nolint: errcheck
	}

	tbl := defaultTable(opt.Stdout)
	tbl.SetHeader([]string{
		"Thread", "Events", "Max Depth", "Open",
	})
	for _, th := range threads {
		tbl.Append([]string{
			th.Thread.String(),
			strconv.Itoa(th.Events),
			strconv.Itoa(th.MaxDepth),
			strconv.Itoa(th.Open),
		})
	}
	tbl.Render()

	if len(problems) > 0 {
		return errGeneral
	}
	return nil
}

// validateEvents replays events and reports inconsistent records.
// 不正なイベントは読み飛ばして検証を続ける。
func validateEvents(events []types.RawEvent) ([]*threadSummary, []string) {
	var problems []string
	invalid := func(i int, raw *types.RawEvent, msg string) {
		problems = append(problems, fmt.Sprintf("%d: %s: %#v", i, msg, *raw))
	}

	sim := &simulator.StateSimulator{}
	sim.Init()
	summaries := map[types.ThreadID]*threadSummary{}

	for i := range events {
		raw := &events[i]
		switch raw.Tag {
		case types.TagCall:
			if raw.FirstLine <= 0 {
				invalid(i, raw, "invalid first line")
				continue
			}
		case types.TagLine:
			if raw.Line <= 0 {
				invalid(i, raw, "invalid line")
				continue
			}
		}
		if err := sim.Next(*raw); err != nil {
			invalid(i, raw, err.Error())
			continue
		}

		th, ok := summaries[raw.Thread]
		if !ok {
			th = &threadSummary{Thread: raw.Thread}
			summaries[raw.Thread] = th
		}
		th.Events++
		th.Open = sim.Runtime.Depth(raw.Thread)
		if th.MaxDepth < th.Open {
			th.MaxDepth = th.Open
		}
	}

	threads := make([]*threadSummary, 0, len(summaries))
	for _, th := range summaries {
		threads = append(threads, th)
	}
	sort.Slice(threads, func(i, j int) bool {
		return threads[i].Thread < threads[j].Thread
	})
	return threads, problems
}

func init() {
	RootCmd.AddCommand(validateCmd)
}
