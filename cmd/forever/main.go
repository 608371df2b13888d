package main

import (
	"log"

	"github.com/MSC-0013/FOREVER/internal/app"
)

func main() {
	if err := app.Run(); err != nil {
		log.Fatal(err)
	}
}
