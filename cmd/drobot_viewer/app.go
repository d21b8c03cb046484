package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/tklauser/thesis-scripts/internal/batch"
	"github.com/tklauser/thesis-scripts/internal/config"
	"github.com/tklauser/thesis-scripts/internal/parser"
	"github.com/tklauser/thesis-scripts/internal/report"
	"github.com/wailsapp/wails/v2/pkg/runtime"
)

// App struct
type App struct {
	ctx context.Context

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
}

// NewApp creates a new App application struct
func NewApp() *App {
	return &App{}
}

// Startup is called when the app starts. The context is saved
// so we can call the runtime methods
func (a *App) Startup(ctx context.Context) {
	a.ctx = ctx
	runtime.WindowSetTitle(a.ctx, "drobot viewer")
}

func (a *App) sendStatus(message string) {
	if a.ctx != nil {
		runtime.EventsEmit(a.ctx, "statusUpdate", message)
	}
	log.Println(message)
}

func (a *App) clearLog() {
	if a.ctx != nil {
		runtime.EventsEmit(a.ctx, "clearLog")
	}
}

func (a *App) complete(ok bool, msg string) {
	a.sendStatus(msg)
	if a.ctx != nil {
		runtime.EventsEmit(a.ctx, "generationComplete", ok, msg)
	}
}

// SelectDirectory opens a native directory picker.
func (a *App) SelectDirectory() (string, error) {
	return runtime.OpenDirectoryDialog(a.ctx, runtime.OpenDialogOptions{Title: "Experiment directory"})
}

// FindExperiments lists the experiment directories below root.
func (a *App) FindExperiments(root string) ([]string, error) {
	return parser.FindExperiments(strings.TrimSpace(root), parser.DefaultParamsFile, true)
}

// CancelGeneration stops a running generation after the experiments in
// progress.
func (a *App) CancelGeneration() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancel != nil {
		a.cancel()
	}
}

// HandleGenerateReport is called from the frontend to build the PDF reports
// of every experiment found below the given directories (one per line).
// Progress is reported through events, the returned string only
// acknowledges the request.
func (a *App) HandleGenerateReport(dirsText, outDir, steps, policy string, workers int) (string, error) {
	cfg := config.Default()
	cfg.Output.Dir = strings.TrimSpace(outDir)
	cfg.Output.ShowTitle = true
	if policy != "" {
		cfg.Policy = policy
	}
	if workers > 0 {
		cfg.Workers = workers
	}
	if strings.TrimSpace(steps) != "" {
		ts, err := config.ParseTimeSteps(steps)
		if err != nil {
			return "", err
		}
		cfg.TimeSteps = ts
	}
	if err := cfg.Validate(); err != nil {
		return "", err
	}

	var roots []string
	for _, line := range strings.Split(dirsText, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			roots = append(roots, line)
		}
	}
	if len(roots) == 0 {
		return "", fmt.Errorf("no experiment directory given")
	}

	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return "", fmt.Errorf("a report generation is already running")
	}
	ctx, cancel := context.WithCancel(a.ctx)
	a.running, a.cancel = true, cancel
	a.mu.Unlock()

	a.clearLog()
	a.sendStatus(fmt.Sprintf("Request: %d directories, steps %v, policy %s, %d workers",
		len(roots), cfg.TimeSteps, cfg.Policy, cfg.Workers))

	go func() { // Run the main logic in a goroutine to avoid blocking the UI
		defer func() {
			if r := recover(); r != nil {
				a.complete(false, fmt.Sprintf("PANIC recovered: %v", r))
			}
			cancel()
			a.mu.Lock()
			a.running, a.cancel = false, nil
			a.mu.Unlock()
		}()

		runtime.EventsEmit(a.ctx, "generationStart")

		var dirs []string
		for _, root := range roots {
			found, err := parser.FindExperiments(root, cfg.ParamsFile, true)
			if err != nil {
				a.sendStatus(fmt.Sprintf("Skipping %s: %v", root, err))
				continue
			}
			a.sendStatus(fmt.Sprintf("%s: %d experiments", root, len(found)))
			dirs = append(dirs, found...)
		}
		if len(dirs) == 0 {
			a.complete(false, "No experiments found.")
			return
		}

		results := batch.Run(ctx, dirs, cfg.Workers, func(_ context.Context, dir string) error {
			a.sendStatus(fmt.Sprintf("Processing %s...", dir))
			path, r, err := report.GenerateReport(dir, cfg)
			if err != nil {
				return err
			}
			for _, w := range r.Warnings {
				a.sendStatus(fmt.Sprintf("- %s: %s", dir, w))
			}
			a.sendStatus(fmt.Sprintf("Report written: %s", path))
			return nil
		})

		failed := batch.Failed(results)
		for _, r := range failed {
			a.sendStatus(fmt.Sprintf("Error in %s: %v", r.Dir, r.Err))
		}
		if len(failed) > 0 {
			a.complete(false, fmt.Sprintf("%d of %d reports failed.", len(failed), len(results)))
			return
		}
		a.complete(true, fmt.Sprintf("%d reports successfully generated.", len(results)))
	}()

	return "Report generation started in background.", nil
}
