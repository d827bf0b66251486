package main

import (
	"os"

	"github.com/schmitthub/testdock/internal/testdock"
)

func main() {
	os.Exit(testdock.Main())
}
