// Command docqa summarizes a document or answers a question about it.
package main

import (
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// .env is optional outside local development
	_ = godotenv.Load()

	if err := newRootCmd(defaultEngine).Execute(); err != nil {
		os.Exit(1)
	}
}
