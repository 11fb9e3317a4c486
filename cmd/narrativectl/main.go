// Command narrativectl is the operator CLI: a terminal chat against a local
// session, the persona catalog, and researcher tokens for the admin API.
package main

import (
	"os"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
