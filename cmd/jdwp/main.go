package main

import (
	"os"

	"github.com/enovella/jdwp/cmd/jdwp/cmds"
)

func main() {
	if err := cmds.New().Execute(); err != nil {
		os.Exit(1)
	}
}
