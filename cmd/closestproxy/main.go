package main

import (
	"github.com/charmbracelet/log"

	"github.com/packmad/ClosestProxy/internal/app"
)

func main() {
	if err := app.Run(); err != nil {
		log.Fatal("closestproxy terminated", "error", err)
	}
}
