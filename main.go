package main

import (
	"os"

	"github.com/ovsienko/jobsieve/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
