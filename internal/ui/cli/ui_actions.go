package cli

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

func handleKeyActions(msg tea.KeyMsg, m model) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "tab":
		if m.mode == panelFailures {
			m.mode = panelModules
		} else {
			m.mode = panelFailures
		}
		return m, nil
	case "t":
		m.showRuns = !m.showRuns
		return m, nil
	}

	if m.mode != panelModules {
		var cmd tea.Cmd
		m.failureList, cmd = m.failureList.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "enter":
		return openModuleDetails(m), nil
	case "esc", "backspace":
		m.hasModuleDetails = false
		return m, nil
	case "o":
		target, ok := selectedSourcePath(m)
		if !ok {
			m.sourceJumpStatus = statusStyle.Render("No source target available.")
			return m, nil
		}
		return m, jumpToSourceCmd(target)
	}

	var cmd tea.Cmd
	m.moduleList, cmd = m.moduleList.Update(msg)
	return m, cmd
}

func openModuleDetails(m model) model {
	if len(m.report.Modules) == 0 {
		return m
	}
	idx := m.moduleList.Index()
	if idx < 0 || idx >= len(m.report.Modules) {
		idx = 0
	}
	m.moduleDetails = m.report.Modules[idx]
	m.hasModuleDetails = true
	return m
}

// refreshModuleDetails re-resolves the open detail view after a rescan
// replaced the report. The module is matched by path; a module that
// vanished closes the view.
func refreshModuleDetails(m model) model {
	for _, module := range m.report.Modules {
		if module.ModulePath == m.moduleDetails.ModulePath {
			m.moduleDetails = module
			return m
		}
	}
	m.hasModuleDetails = false
	return m
}

func selectedSourcePath(m model) (string, bool) {
	if len(m.report.Modules) == 0 {
		return "", false
	}
	idx := m.moduleList.Index()
	if idx < 0 || idx >= len(m.report.Modules) {
		idx = 0
	}
	return sourcePathFor(m.packageRoot, m.report.Modules[idx].ModulePath)
}

// sourcePathFor maps a dotted module path back to its entry point file.
// The leading segment is the package root directory itself.
func sourcePathFor(packageRoot, modulePath string) (string, bool) {
	if packageRoot == "" || modulePath == "" {
		return "", false
	}
	parts := strings.Split(modulePath, ".")
	segments := append([]string{packageRoot}, parts[1:]...)
	segments = append(segments, "__init__.py")
	return filepath.Join(segments...), true
}

func jumpToSourceCmd(path string) tea.Cmd {
	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	cmd := exec.Command(editor, path)
	return tea.ExecProcess(cmd, func(err error) tea.Msg {
		return sourceJumpResultMsg{target: path, err: err}
	})
}
