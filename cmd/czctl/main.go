package main

import (
	"os"

	"github.com/Rik-van-de-Laar/ChronoZoom/cmd/czctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
