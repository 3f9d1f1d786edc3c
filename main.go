package main

import (
	"os"

	"github.com/defendiq/defendiq/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
