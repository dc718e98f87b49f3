package cli

import (
	"fmt"

	coreapp "reexmap/internal/core/app"
	"reexmap/internal/core/config"
	"reexmap/internal/core/ports"
)

type analysisFactory interface {
	New(cfg *config.Config) (ports.AnalysisService, error)
}

type coreAnalysisFactory struct{}

func (coreAnalysisFactory) New(cfg *config.Config) (ports.AnalysisService, error) {
	app, err := coreapp.New(cfg)
	if err != nil {
		return nil, err
	}
	return app.AnalysisService(), nil
}

func initializeAnalysis(cfg *config.Config, factory analysisFactory) (ports.AnalysisService, error) {
	if factory == nil {
		return nil, fmt.Errorf("analysis factory is required")
	}
	return factory.New(cfg)
}

// unwrapApp recovers the concrete application behind an analysis
// service. The health endpoint and UI source jumps need state the
// port surface does not carry.
func unwrapApp(analysis ports.AnalysisService) *coreapp.App {
	if u, ok := analysis.(interface{ Unwrap() *coreapp.App }); ok {
		return u.Unwrap()
	}
	return nil
}
