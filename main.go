package main

import (
	"os"

	"github.com/relforge/relforge/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
