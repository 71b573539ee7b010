package main

import (
	"os"

	helpbotcmder "github.com/papercomputeco/helpbot/cmd/helpbot"
)

func main() {
	cmd := helpbotcmder.NewHelpbotCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
