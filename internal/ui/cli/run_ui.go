package cli

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	coreapp "reexmap/internal/core/app"
	"reexmap/internal/core/ports"
)

const runsOverlayLimit = 10

func runUI(analysis ports.AnalysisService, app *coreapp.App) error {
	ctx := context.Background()

	packageRoot := ""
	if app != nil {
		if root, err := app.PackageRoot(ctx); err == nil {
			packageRoot = root
		}
	}

	runs, err := analysis.ListRuns(ctx, runsOverlayLimit)
	if err != nil {
		runs = nil
	}

	m := initialModel(packageRoot, runs)
	p := tea.NewProgram(m, tea.WithAltScreen())

	watch := analysis.WatchService()
	sendUpdate := func(update ports.WatchUpdate) {
		p.Send(updateMsg{
			report:   update.Report,
			written:  update.Written,
			duration: update.Duration,
		})
	}

	if err := watch.Subscribe(ctx, sendUpdate); err != nil {
		return err
	}

	go func() {
		if update, err := watch.CurrentUpdate(ctx); err == nil {
			sendUpdate(update)
		}
	}()

	_, err = p.Run()
	return err
}
