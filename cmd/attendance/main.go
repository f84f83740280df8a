package main

import (
	"os"

	"github.com/klabast/wb-services/attendance/internal/commands"
)

func main() {
	if err := commands.NewRoot().Execute(); err != nil {
		os.Exit(1)
	}
}
