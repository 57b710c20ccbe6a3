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
	"github.com/spf13/cobra"
	"github.com/yuuki0xff/gocovtrace/tracer/srceditor"
)

// instrumentCmd represents the instrument command
var instrumentCmd = &cobra.Command{
	Use:   "instrument <file or dir>...",
	Short: "Insert tracing code into Go source files",
	Long: `Insert the calls of the logger package into Go source files.
The instrumented program writes event logs to "$GOCOVTRACE_LOG.<pid>.jsonl".
Line numbers of the source files are not changed.`,
	RunE: wrap(runInstrument),
}

func runInstrument(opt *handlerOpt) error {
	if len(opt.Args) == 0 {
		opt.ErrLog.Println("Source file or directory is not specified.")
		return errInvalidArgs
	}
	flags := opt.Cmd.Flags()
	overwrite, err := flags.GetBool("overwrite")
	if err != nil {
		opt.ErrLog.Println(err)
		return errInvalidArgs
	}
	exportedOnly, err := flags.GetBool("exported-only")
	if err != nil {
		opt.ErrLog.Println(err)
		return errInvalidArgs
	}
	prefix, err := flags.GetString("prefix")
	if err != nil {
		opt.ErrLog.Println(err)
		return errInvalidArgs
	}

	var files []string
	for _, target := range opt.Args {
		found, err := srceditor.FindFiles(target)
		if err != nil {
			opt.ErrLog.Println(err)
			return errIo
		}
		files = append(files, found...)
	}

	oracle := opt.Conf.Oracle()
	ce := &srceditor.CodeEditor{
		ExportedOnly: exportedOnly,
		Overwrite:    overwrite,
		Prefix:       prefix,
		Output:       opt.Stdout,
	}
	for _, f := range files {
		if oracle.Match(f) {
			ce.Files = append(ce.Files, f)
		}
	}
	if err := ce.EditAll(); err != nil {
		opt.ErrLog.Println(err)
		return errGeneral
	}
	return nil
}

func init() {
	RootCmd.AddCommand(instrumentCmd)
	instrumentCmd.Flags().AddFlagSet(recorderFlags())
	instrumentCmd.Flags().BoolP("overwrite", "w", false, "overwrite source files instead of printing to stdout.")
	instrumentCmd.Flags().Bool("exported-only", false, "instrument exported functions only.")
	instrumentCmd.Flags().String("prefix", "", "prefix of the import name.")
}
