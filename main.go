package main

import (
	"os"

	"github.com/talentdock/ats-matcher/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
