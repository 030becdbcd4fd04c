package main

import (
	"fmt"
	"os"

	"github.com/yanqian/booksum/cmd/booksum/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
