package main

import (
	"context"
	"log"
	"os"

	"github.com/musihub/backend/internal/app"
)

func main() {
	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
