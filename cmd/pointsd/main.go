// Command pointsd serves the points ledger over HTTP as a Forge app.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/xraph/forge"

	"github.com/xraph/points/extension"
)

func main() {
	var (
		addr      = flag.String("addr", ":8080", "HTTP listen address")
		owner     = flag.String("owner", "", "owner address (0x-prefixed hex)")
		driver    = flag.String("driver", extension.DriverMemory, "store driver: memory, leveldb, sqlite, postgres or mongo")
		dsn       = flag.String("dsn", "", "store DSN or path")
		basePath  = flag.String("base-path", "/points", "mount path for the HTTP API")
		threshold = flag.Uint64("fallback-ban-threshold", 0, "ban senders after this many data transfers; 0 disables")
	)
	flag.Parse()

	opts := []extension.Option{
		extension.WithDriver(*driver, *dsn),
		extension.WithBasePath(*basePath),
	}
	if *owner != "" {
		opts = append(opts, extension.WithOwner(*owner))
	}
	if *threshold > 0 {
		opts = append(opts, extension.WithFallbackBanThreshold(*threshold))
	}

	app := forge.NewApp(forge.AppConfig{
		Name:        "pointsd",
		Version:     extension.ExtensionVersion,
		Description: extension.ExtensionDescription,
		Extensions:  []forge.Extension{extension.New(opts...)},
		HTTPAddress: *addr,
	})

	// Run blocks until SIGINT/SIGTERM.
	if err := app.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "pointsd: %v\n", err)
		os.Exit(1)
	}
}
