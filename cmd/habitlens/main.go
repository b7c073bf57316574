package main

import (
	"fmt"
	"os"

	"github.com/blackwell-systems/habitlens/internal/app"
	"github.com/blackwell-systems/habitlens/internal/output"
)

func main() {
	if err := app.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", output.UserMessage(err))
		os.Exit(1)
	}
}
