// Package app wires the stores, services and controllers of FragMind from a
// resolved configuration.
package app

import (
	"context"
	"io"
	"path/filepath"

	"github.com/kimhsiao/fragmind/internal/config"
	"github.com/kimhsiao/fragmind/internal/crypto"
	"github.com/kimhsiao/fragmind/internal/db"
	"github.com/kimhsiao/fragmind/internal/diary"
	"github.com/kimhsiao/fragmind/internal/export"
	"github.com/kimhsiao/fragmind/internal/extract"
	"github.com/kimhsiao/fragmind/internal/logging"
	"github.com/kimhsiao/fragmind/internal/services"
	"github.com/kimhsiao/fragmind/internal/todo"
)

// ExportsDir is the default export location inside the data directory.
const ExportsDir = "exports"

// App holds the wired components.
type App struct {
	Config *config.Config
	Log    *logging.Logger

	DB   *db.DB
	Repo *db.Repository

	AI      *services.AIService
	Diary   *diary.Service
	Todos   *todo.Service
	Tasks   *todo.Controller
	Extract *extract.Orchestrator
	Export  *export.ExportService
}

// Options adjusts process-level wiring.
type Options struct {
	// LogOutput receives console log lines; nil means stderr.
	LogOutput io.Writer
	// Quiet disables console logging.
	Quiet bool
	// Controller options, e.g. a shorter grace period.
	TodoOptions []todo.Option
}

// New opens the database in cfg.DataDir and wires every component.
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	log := logging.Init(logging.Options{
		Level:   level,
		Format:  cfg.Log.Format,
		Console: opts.LogOutput,
		Quiet:   opts.Quiet,
		File:    cfg.Log.File,
	})

	conn, err := db.Open(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	repo := db.NewRepository(conn.DB)

	machineID := cfg.MachineID
	if machineID == "" {
		machineID = crypto.MachineID()
	}

	ai := services.NewAIService(repo, cfg.AI, cfg.Summary.StylePrompt, machineID)
	if err := ai.Load(ctx); err != nil {
		repo.Close()
		conn.Close()
		return nil, err
	}

	engine := diary.NewEngine(ai, diary.WithStyleDirective(ai.StylePrompt()))
	a := &App{
		Config:  cfg,
		Log:     log,
		DB:      conn,
		Repo:    repo,
		AI:      ai,
		Diary:   diary.NewService(repo, repo, engine),
		Todos:   todo.NewService(repo, nil),
		Tasks:   todo.NewController(repo, opts.TodoOptions...),
		Extract: extract.NewOrchestrator(ai, repo),
		Export:  export.NewExportService(repo, repo, repo, filepath.Join(cfg.DataDir, ExportsDir)),
	}

	log.Debug("fragmind ready", map[string]interface{}{
		"data_dir":  cfg.DataDir,
		"provider":  string(ai.Config().Provider),
		"available": ai.Available(),
	})
	return a, nil
}

// Close stops pending countdowns and releases the database.
func (a *App) Close() error {
	a.Tasks.Shutdown()
	a.Repo.Close()
	err := a.DB.Close()
	a.Log.Sync()
	return err
}
