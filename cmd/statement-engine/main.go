package main

import (
	"os"

	"github.com/insightdelivered/statement-engine/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
