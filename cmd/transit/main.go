package main

import (
	"github.com/joho/godotenv"
)

func main() {
	// A .env in the working directory seeds TRANSIT_* variables for
	// local use; a missing file is fine.
	_ = godotenv.Load()
	Execute()
}
