package main

import (
	"log/slog"
	"os"

	"github.com/FACorreiaa/pocket-ledger/cmd/api"
)

func main() {
	if err := api.Run(); err != nil {
		slog.Error("api exited", "error", err)
		os.Exit(1)
	}
}
