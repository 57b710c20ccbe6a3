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
	"os"

	"github.com/spf13/cobra"
	"github.com/yuuki0xff/gocovtrace/tracer/eventlog"
)

// convertCmd represents the convert command
var convertCmd = &cobra.Command{
	Use:   "convert <src> <dst>",
	Short: "Convert format of an event log",
	Long: `Convert format of an event log.
The formats are detected from file extensions (".jsonl" or ".msgpack").`,
	RunE: wrap(runConvert),
}

func runConvert(opt *handlerOpt) error {
	if len(opt.Args) != 2 {
		opt.ErrLog.Println("Should specify source and destination files.")
		return errInvalidArgs
	}
	src, dst := opt.Args[0], opt.Args[1]

	format := eventlog.FormatFromPath(dst)
	if name, err := opt.Cmd.Flags().GetString("format"); err == nil && name != "" {
		format, err = eventlog.ParseFormat(name)
		if err != nil {
			opt.ErrLog.Println(err)
			return errInvalidArgs
		}
	}

	events, err := eventlog.LoadFile(src)
	if err != nil {
		opt.ErrLog.Println(err)
		return errIo
	}

	f, err := os.Create(dst)
	if err != nil {
		opt.ErrLog.Println(err)
		return errIo
	}
	defer f.Close() // nolint

	w, err := eventlog.NewWriter(f, format)
	if err != nil {
		opt.ErrLog.Println(err)
		return errInvalidArgs
	}
	for i := range events {
		if err := w.Write(&events[i]); err != nil {
			opt.ErrLog.Println(err)
			return errIo
		}
	}
	if err := f.Close(); err != nil {
		opt.ErrLog.Println(err)
		return errIo
	}
	return nil
}

func init() {
	RootCmd.AddCommand(convertCmd)
	convertCmd.Flags().String("format", "", "output format (jsonl or msgpack). default is detected from extension.")
}
