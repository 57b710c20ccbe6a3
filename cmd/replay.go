// Copyright © 2017 yuuki0xff <yuuki0xff@gmail.com>
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
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/yuuki0xff/gocovtrace/config"
	"github.com/yuuki0xff/gocovtrace/tracer/coverage"
	"github.com/yuuki0xff/gocovtrace/tracer/eventlog"
	"github.com/yuuki0xff/gocovtrace/tracer/simulator"
	"github.com/yuuki0xff/gocovtrace/tracer/types"
	"github.com/yuuki0xff/gocovtrace/tracer/util"
	"golang.org/x/sync/errgroup"
)

// replayCmd represents the replay command
var replayCmd = &cobra.Command{
	Use:   "replay <log>...",
	Short: "Record coverage by replaying event logs",
	Long: `Replay event logs onto a coverage recorder, and show the executed lines or arcs.

Event logs are written by instrumented programs when GOCOVTRACE_LOG is set.
Each log is replayed with an independent recorder.`,
	RunE: wrap(runReplay),
}

// replayResult is the result of replaying an event log.
type replayResult struct {
	Path     string
	Events   int
	Recorder *coverage.Recorder
	// 並行して処理するため、警告は出力せずに保存しておく。
	Warnings []string
}

func runReplay(opt *handlerOpt) error {
	if len(opt.Args) == 0 {
		opt.ErrLog.Println("Event log is not specified.")
		return errInvalidArgs
	}
	stats, err := opt.Cmd.Flags().GetBool("stats")
	if err != nil {
		opt.ErrLog.Println(err)
		return errInvalidArgs
	}

	results := make([]*replayResult, len(opt.Args))
	var eg errgroup.Group
	for i := range opt.Args {
		i := i
		eg.Go(func() error {
			path := opt.Args[i]
			events, err := eventlog.LoadFile(path)
			if err != nil {
				return errors.Wrapf(err, "failed to load %s", path)
			}
			res, err := replay(opt.Conf, events, opt)
			if err != nil {
				return errors.Wrapf(err, "failed to replay %s", path)
			}
			res.Path = path
			results[i] = res
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		opt.ErrLog.Println(err)
		return errGeneral
	}

	for _, res := range results {
		for _, msg := range res.Warnings {
			opt.Warn(res.Path + ": " + msg)
		}
	}
	if stats {
		printStats(opt, results)
	} else {
		printUnits(opt, results)
	}
	return nil
}

// replay records the coverage of events.
func replay(conf *config.Config, events []types.RawEvent, opt *handlerOpt) (*replayResult, error) {
	res := &replayResult{}
	sim := &simulator.StateSimulator{}
	sim.Init()

	oracle := conf.Oracle()
	rec := &coverage.Recorder{
		Host:         sim.Runtime,
		Oracle:       oracle,
		Arcs:         conf.Arcs,
		CheckInclude: oracle.Match,
		StreamID:     sim.StreamID,
		Strict:       conf.Strict,
		Warn: func(msg string) {
			res.Warnings = append(res.Warnings, msg)
		},
		ErrLog: opt.ErrLog,
	}
	res.Recorder = rec

	// 最初のイベントを発生させるスレッドで計測を開始する。
	var tid types.ThreadID
	if len(events) > 0 {
		tid = events[0].Thread
	}
	sim.Switch(tid)
	rec.Start()

	var replayErr error
	err := util.PanicHandler(func() {
		replayErr = sim.Replay(events)
	})
	res.Events = sim.Events()

	sim.Switch(tid)
	rec.Stop()

	if err != nil {
		return nil, err
	}
	if replayErr != nil {
		return nil, replayErr
	}
	return res, nil
}

func printUnits(opt *handlerOpt, results []*replayResult) {
	tbl := defaultTable(opt.Stdout)
	tbl.SetHeader([]string{
		"Log", "Unit", "Plugin", "Count", "Executed",
	})
	for _, res := range results {
		data := res.Recorder.Data()
		for _, name := range data.Units() {
			unit, _ := data.Unit(name)
			plugin, _ := data.PluginName(name)
			tbl.Append([]string{
				res.Path,
				name,
				plugin,
				strconv.Itoa(unit.Len()),
				formatUnit(unit, data.HasArcs()),
			})
		}
	}
	tbl.Render()
}

func printStats(opt *handlerOpt, results []*replayResult) {
	tbl := defaultTable(opt.Stdout)
	tbl.SetHeader([]string{
		"Log", "Events", "Units", "Lines", "Files",
	})
	for _, res := range results {
		row := []string{
			res.Path,
			strconv.Itoa(res.Events),
		}
		if st := res.Recorder.Stats(); st != nil {
			row = append(row,
				strconv.Itoa(st.Units),
				strconv.Itoa(st.Lines),
				strconv.Itoa(st.Dispositions),
			)
		} else {
			row = append(row, "-", "-", "-")
		}
		tbl.Append(row)
	}
	tbl.Render()
}

func formatUnit(unit *coverage.UnitRecord, arcs bool) string {
	var items []string
	if arcs {
		for _, arc := range unit.Arcs() {
			items = append(items, arc.String())
		}
	} else {
		for _, line := range unit.Lines() {
			items = append(items, strconv.Itoa(line))
		}
	}
	return strings.Join(items, " ")
}

func init() {
	RootCmd.AddCommand(replayCmd)
	replayCmd.Flags().AddFlagSet(recorderFlags())
	replayCmd.Flags().Bool("stats", false, "show statistics instead of executed lines.")
}
