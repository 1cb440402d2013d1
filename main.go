package main

import (
	"os"

	"github.com/conneroisu/stylesync/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
