package main

import (
	"fmt"
	"os"

	"github.com/soyeahso/hookpress/internal/cli"
	"github.com/tillberg/autorestart"
)

func main() {
	go autorestart.RestartOnChange()

	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "hookpress:", err)
		os.Exit(1)
	}
}
