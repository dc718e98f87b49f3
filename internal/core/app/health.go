package app

import (
	"context"
	"fmt"
	"time"
)

type HealthStatus struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Components map[string]string `json:"components"`
}

type HealthService struct {
	app *App
}

func NewHealthService(app *App) *HealthService {
	return &HealthService{app: app}
}

func (s *HealthService) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:     "up",
		Timestamp:  time.Now().UTC(),
		Components: make(map[string]string),
	}

	// Check Report
	if update, ok := s.app.CurrentUpdate(); ok {
		status.Components["report"] = fmt.Sprintf("ok (%d re-exports, %d modules)", update.Report.Summary.TotalReexports, update.Report.Metadata.TotalModulesScanned)
	} else {
		status.Components["report"] = "no analysis completed yet"
	}

	// Check History Store
	if s.app.History != nil {
		status.Components["history"] = "ok"
	} else if s.app.Config.History.Enabled {
		status.Status = "degraded"
		status.Components["history"] = "missing but enabled in config"
	}

	// Check Parser
	if s.app.parser != nil {
		status.Components["parser"] = "ok"
	} else {
		status.Status = "degraded"
		status.Components["parser"] = "missing"
	}

	return status
}
