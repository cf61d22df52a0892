package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/Heliazer/duply-v6-cli/internal/bootstrap"
	"github.com/Heliazer/duply-v6-cli/internal/config"
	"github.com/Heliazer/duply-v6-cli/internal/infrastructure/repository/postgres"
)

func main() {
	app := &cli.App{
		Name:      "duply-classifier",
		Usage:     "clasifica los PDF de una carpeta por tema usando Gemini",
		ArgsUsage: "<carpeta>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "archivo YAML que complementa las variables de entorno",
			},
			&cli.IntFlag{
				Name:  "batch-size",
				Usage: "documentos por llamada al modelo",
			},
			&cli.StringFlag{
				Name:  "output",
				Usage: "carpeta para los artefactos de resultados",
			},
			&cli.BoolFlag{
				Name:  "organize",
				Usage: "mover los PDF a carpetas por tema al terminar",
			},
			&cli.StringFlag{
				Name:  "organized-folder",
				Usage: "destino de la organizacion (por defecto <carpeta>_clasificado)",
			},
		},
		Action: runClassifier,
		Commands: []*cli.Command{
			{
				Name:  "runs",
				Usage: "muestra las sesiones de clasificacion archivadas en Postgres",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "numero maximo de sesiones a mostrar",
						Value: 20,
					},
				},
				Action: runHistory,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func runClassifier(c *cli.Context) error {
	folder := c.Args().First()
	if folder == "" {
		return cli.Exit("falta la carpeta de PDFs", 2)
	}

	cfg := config.Load()
	if path := c.String("config"); path != "" {
		if err := cfg.ApplyFile(path); err != nil {
			return err
		}
	}
	if c.IsSet("batch-size") {
		cfg.BatchSize = c.Int("batch-size")
	}
	if c.IsSet("output") {
		cfg.OutputDir = c.String("output")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{
		Organize:        c.Bool("organize"),
		OrganizedFolder: c.String("organized-folder"),
	})
	if err != nil {
		return err
	}
	defer app.Close()

	if cfg.MetricsPort != "" {
		go serveMetrics(app, cfg.MetricsPort)
	}

	stats, err := app.Pipeline.ClassifyFolder(ctx, folder)
	if err != nil {
		return err
	}

	fmt.Printf("Archivos encontrados: %d\n", stats.TotalFiles)
	fmt.Printf("Procesados:           %d\n", stats.Processed)
	fmt.Printf("Errores:              %d\n", stats.Errors)
	if stats.CoverageGaps > 0 {
		fmt.Printf("Sin respuesta:        %d\n", stats.CoverageGaps)
	}
	fmt.Printf("Tasa de exito:        %.1f%%\n", stats.SuccessRate())
	if org := stats.Organization; org != nil {
		fmt.Printf("Organizados:          %d (no clasificados: %d, carpetas: %d)\n",
			org.Organized, org.Unclassified, org.FoldersCreated)
	}
	return nil
}

func runHistory(c *cli.Context) error {
	cfg := config.Load()
	if path := c.String("config"); path != "" {
		if err := cfg.ApplyFile(path); err != nil {
			return err
		}
	}
	if cfg.PostgresDSN == "" {
		return cli.Exit("POSTGRES_DSN no configurado; el historial requiere el archivo de sesiones", 2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := postgres.NewRunRepository(db).ListRuns(ctx, c.Int("limit"))
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("Sin sesiones archivadas.")
		return nil
	}
	for _, run := range runs {
		fmt.Printf("%s  %s  %s  procesados %d/%d  errores %d  exito %.1f%%\n",
			run.StartedAt.Format("2006-01-02 15:04"), run.RunID, run.Folder,
			run.Processed, run.TotalFiles, run.Errors, run.SuccessRate())
	}
	return nil
}

func serveMetrics(app *bootstrap.App, port string) {
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           app.Metrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		app.Logger.Warn("metrics_listener_failed", "port", port, "error", err)
	}
}
