package main

import (
	"os"
)

func main() {
	if err := SetupCommands(NewApp()).Execute(); err != nil {
		os.Exit(1)
	}
}
