package main

import (
	"os"
	"strings"
)

func main() {
	if err := execute(os.Args[1:]); err != nil {
		msg := strings.Join(strings.Fields(err.Error()), " ")
		if msg == "" {
			msg = "error"
		}
		_, _ = os.Stderr.WriteString(msg + "\n")
		os.Exit(1)
	}
}
