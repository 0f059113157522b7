// Package main is the entrypoint of the factory CLI.
package main

import (
	"fmt"
	"os"

	"github.com/SohamS7S/Smart-factory-ai/cmd"
	"github.com/SohamS7S/Smart-factory-ai/internal/contract"
	"github.com/SohamS7S/Smart-factory-ai/internal/iocache"
)

func main() {
	cmd.SetCacheManager(iocache.Manager)

	err := cmd.Execute()

	if perr := cmd.StopProfiling(); perr != nil {
		fmt.Fprintln(os.Stderr, "Error stopping profiling:", perr)
	}
	iocache.CloseStores()
	contract.SyncLogger()

	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
