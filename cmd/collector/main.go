package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/Heliazer/duply-v6-cli/internal/config"
	"github.com/Heliazer/duply-v6-cli/internal/core/usecase"
	"github.com/Heliazer/duply-v6-cli/internal/observability/logging"
)

func main() {
	app := &cli.App{
		Name:      "duply-collector",
		Usage:     "agrupa los PDF de un arbol de carpetas en una carpeta plana de trabajo",
		ArgsUsage: "<carpeta-raiz>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "archivo YAML que complementa las variables de entorno",
			},
			&cli.StringFlag{
				Name:  "staging",
				Usage: "carpeta de trabajo para las copias planas",
			},
			&cli.BoolFlag{
				Name:  "clean",
				Usage: "eliminar la carpeta de trabajo en lugar de crearla",
			},
		},
		Action: runCollector,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func runCollector(c *cli.Context) error {
	cfg := config.Load()
	if path := c.String("config"); path != "" {
		if err := cfg.ApplyFile(path); err != nil {
			return err
		}
	}
	if c.IsSet("staging") {
		cfg.StagingDir = c.String("staging")
	}

	logger := logging.NewJSONLogger("duply-collector", cfg.LogLevel)
	collector := usecase.NewCollectTreeUseCase(cfg.StagingDir, logger)

	if c.Bool("clean") {
		if err := collector.Cleanup(); err != nil {
			return err
		}
		fmt.Printf("Carpeta de trabajo eliminada: %s\n", cfg.StagingDir)
		return nil
	}

	root := c.Args().First()
	if root == "" {
		return cli.Exit("falta la carpeta raiz", 2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	table, err := collector.Collect(ctx, root)
	if err != nil {
		return err
	}

	fmt.Printf("PDFs copiados: %d\n", len(table.Entries))
	fmt.Printf("Carpeta de trabajo: %s\n", cfg.StagingDir)
	fmt.Printf("Tabla de traduccion: %s\n", cfg.StagingDir+string(os.PathSeparator)+usecase.TranslationTableFile)
	return nil
}
