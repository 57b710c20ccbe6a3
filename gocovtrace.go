package main

import (
	"os"

	"github.com/yuuki0xff/gocovtrace/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
