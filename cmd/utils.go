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
	"fmt"
	"io"
	"log"
	"os"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/yuuki0xff/gocovtrace/config"
)

// func(*handlerOpt) error が返すエラーの一覧
var (
	errGeneral     = errors.New("general error")
	errInvalidArgs = errors.New("invalid args")
	errIo          = errors.New("io error")
)

var warnColor = color.New(color.FgYellow, color.Bold)

func Execute() int {
	err := RootCmd.Execute()
	return exitCode(err, os.Stderr)
}

func exitCode(err error, stderr io.Writer) int {
	switch errors.Cause(err) {
	case nil:
		return 0
	case errGeneral:
		return 1
	case errInvalidArgs:
		// EX_USAGE 64
		return 64
	case errIo:
		// EX_IOERR 74
		return 74
	default:
		// Unknown error
		fmt.Fprintln(stderr, err)
		return 1
	}
}

type cobraHandler func(cmd *cobra.Command, args []string) error
type handlerOpt struct {
	Conf   *config.Config
	Cmd    *cobra.Command
	Args   []string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	ErrLog *log.Logger
}

// Warn prints a warning message to stderr.
func (opt *handlerOpt) Warn(msg string) {
	warnColor.Fprintf(opt.Stderr, "WARNING: %s\n", msg) // nolint: errcheck
}

func wrap(fn func(*handlerOpt) error) cobraHandler {
	return func(cmd *cobra.Command, args []string) error {
		c, err := getConfig(cmd.Flags())
		if err != nil {
			return err
		}

		ha := handlerOpt{
			Conf:   c,
			Cmd:    cmd,
			Args:   args,
			Stdin:  os.Stdin,
			Stdout: cmd.OutOrStdout(),
			Stderr: cmd.ErrOrStderr(),
			ErrLog: log.New(cmd.ErrOrStderr(), "ERROR: ", 0),
		}
		return fn(&ha)
	}
}

func getConfig(flags *pflag.FlagSet) (*config.Config, error) {
	c := config.NewConfig(cfgDir)
	if err := c.BindFlags(flags); err != nil {
		return nil, err
	}
	if err := c.Load(); err != nil {
		return nil, err
	}
	return c, nil
}

func defaultTable(w io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetBorder(false)
	table.SetColumnSeparator(" ")
	table.SetCenterSeparator(" ")
	table.SetRowSeparator("-")
	// デフォルトの行の幅は狭すぎるため、無駄な折り返しが生じる。
	// これを回避するために、大きめの値を設定する。
	table.SetColWidth(120)
	return table
}

// recorderFlags are shared by the commands that run a recorder.
func recorderFlags() *pflag.FlagSet {
	f := pflag.NewFlagSet("", pflag.ContinueOnError)
	f.Bool(config.KeyArcs, false, "record arcs instead of lines.")
	f.Bool(config.KeyStrict, false, "abort on internal errors of the recorder.")
	f.StringSlice(config.KeyInclude, nil, "patterns of files to record.")
	f.StringSlice(config.KeyOmit, nil, "patterns of files not to record.")
	return f
}
