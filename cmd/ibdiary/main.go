package main

import (
	"fmt"
	"os"

	corecmd "github.com/laefree/ibdiary/core/cmd"
	"github.com/laefree/ibdiary/internal/app"
)

func main() {
	err := corecmd.Run(corecmd.Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			return app.Load(path)
		},
		Bootstrap: func(cfg corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
			return app.Bootstrap(cfg.(*app.Config))
		},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "ibdiary: %v\n", err)
		os.Exit(1)
	}
}
