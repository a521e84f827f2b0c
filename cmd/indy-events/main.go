package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/mutiny19/indy-events/internal/cli"
)

func main() {
	// Local runs keep overrides in a .env file; absence is fine.
	_ = godotenv.Load()

	os.Exit(cli.Execute())
}
