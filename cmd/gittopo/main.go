package main

import (
	"os"

	"github.com/rybkr/gittopo/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
