package main

import (
	"os"

	"github.com/solatis/listkeeper/cmd/listkeeper/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
