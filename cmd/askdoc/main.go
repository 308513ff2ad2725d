package main

import (
	"os"

	"github.com/sanjeevkumarraob/askyourdoc/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
