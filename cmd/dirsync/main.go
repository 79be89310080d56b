package main

import (
	"os"

	"github.com/e-wrobel/dirsync/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
