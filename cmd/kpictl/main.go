package main

import (
	"context"
	"fmt"
	"os"

	"github.com/irfndi/kpi-forecast-go/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
