package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dynexpr/dynexpr/cli"
)

func main() {
	err := cli.Run(context.Background(), os.Exit, os.Args[1:]...)
	if err != nil {
		fmt.Fprintln(os.Stderr, "dynexpr:", err)
		os.Exit(1)
	}
}
