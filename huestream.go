package main

import (
	"os"

	"github.com/coreman2200/huestream/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
