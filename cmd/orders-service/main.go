package main

import (
	"os"

	"github.com/R3E-Network/orders_service/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
