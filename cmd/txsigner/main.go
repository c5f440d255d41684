package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func main() {
	// A missing .env file is not an error.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "txsigner",
		Usage: "Sign unsigned transactions with a node wallet or an in-memory key",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML config file (default ./config.yaml)",
				EnvVars: []string{"TXSIGNER_CONFIG"},
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable verbose logging",
				EnvVars: []string{"TXSIGNER_VERBOSE"},
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			signCommand(),
			mnemonicCommand(),
			infoCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}
