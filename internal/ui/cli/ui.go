package cli

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"reexmap/internal/data/history"
	"reexmap/internal/engine/resolver"
)

var (
	titleStyle = lipgloss.NewStyle().
			MarginLeft(2).
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true).
			Render

	docStyle = lipgloss.NewStyle().Margin(1, 2)

	failureStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)
)

type item struct {
	title, desc string
}

func (i item) Title() string       { return i.title }
func (i item) Description() string { return i.desc }
func (i item) FilterValue() string { return i.title + i.desc }

type model struct {
	failureList list.Model
	moduleList  list.Model
	mode        panelMode
	runs        []history.Run
	showRuns    bool
	report       resolver.PackageReport
	written      []string
	packageRoot  string
	lastUpdate   time.Time
	lastDuration time.Duration

	moduleDetails    resolver.ModuleAnalysis
	hasModuleDetails bool
	sourceJumpStatus string
}

type panelMode int

const (
	panelFailures panelMode = iota
	panelModules
)

type updateMsg struct {
	report   resolver.PackageReport
	written  []string
	duration time.Duration
}

type sourceJumpResultMsg struct {
	target string
	err    error
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return handleKeyActions(msg, m)
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		width := msg.Width - h
		height := msg.Height - v - 8
		if height < 5 {
			height = 5
		}
		m.failureList.SetSize(width, height)
		m.moduleList.SetSize(width, height)
	case updateMsg:
		m.report = msg.report
		m.written = msg.written
		m.lastUpdate = time.Now()
		m.lastDuration = msg.duration

		items := []list.Item{}
		for _, module := range m.report.Modules {
			if module.Error == nil {
				continue
			}
			items = append(items, item{
				title: module.ModulePath,
				desc:  *module.Error,
			})
		}
		m.failureList.SetItems(items)

		moduleItems := make([]list.Item, 0, len(m.report.Modules))
		for _, module := range m.report.Modules {
			moduleItems = append(moduleItems, item{
				title: module.ModulePath,
				desc:  moduleItemDesc(module),
			})
		}
		m.moduleList.SetItems(moduleItems)
		if m.hasModuleDetails {
			m = refreshModuleDetails(m)
		}
	case sourceJumpResultMsg:
		if msg.err != nil {
			m.sourceJumpStatus = statusStyle.Render(fmt.Sprintf("Source jump failed: %v", msg.err))
		} else {
			m.sourceJumpStatus = statusStyle.Render(fmt.Sprintf("Opened source: %s", msg.target))
		}
	}

	var cmd tea.Cmd
	if m.mode == panelFailures {
		m.failureList, cmd = m.failureList.Update(msg)
	} else {
		m.moduleList, cmd = m.moduleList.Update(msg)
	}
	return m, cmd
}

func (m model) View() string {
	meta := m.report.Metadata
	scanned := fmt.Sprintf("%d modules", meta.TotalModulesScanned)
	if m.lastDuration > 0 {
		scanned = fmt.Sprintf("%d modules in %v", meta.TotalModulesScanned, m.lastDuration.Round(time.Millisecond))
	}
	status := statusStyle.Render(fmt.Sprintf("Last update: %v | %s %s -> %s %s | %s",
		m.lastUpdate.Format("15:04:05"),
		meta.DownstreamPackage, meta.DownstreamVersion,
		meta.UpstreamPackage, meta.UpstreamVersion,
		scanned))

	failures := m.report.ParseFailures()
	var summary string
	switch {
	case failures == 0 && m.report.Summary.TotalReexports > 0:
		summary = successStyle.Render(fmt.Sprintf("%d re-exports across %d modules",
			m.report.Summary.TotalReexports, m.report.Summary.ModulesWithReexports))
	case failures > 0 && m.report.Summary.TotalReexports > 0:
		summary = fmt.Sprintf("%s | %s",
			successStyle.Render(fmt.Sprintf("%d re-exports", m.report.Summary.TotalReexports)),
			failureStyle.Render(fmt.Sprintf("%d parse failures", failures)))
	case failures > 0:
		summary = fmt.Sprintf("%s | %s",
			warnStyle.Render("no re-exports found"),
			failureStyle.Render(fmt.Sprintf("%d parse failures", failures)))
	default:
		summary = warnStyle.Render("no re-exports found")
	}

	header := fmt.Sprintf("%s\n%s | %s\n", titleStyle("Re-export Monitor"), status, summary)
	if len(m.written) > 0 {
		header += statusStyle.Render("Report: "+m.written[0]) + "\n"
	}
	help := renderHelp(m)

	body := m.failureList.View()
	if m.mode == panelModules {
		body = renderModulePanel(m)
	}
	if m.showRuns {
		body += "\n\n" + renderRunsOverlay(m.runs)
	}
	if m.sourceJumpStatus != "" {
		body += "\n\n" + m.sourceJumpStatus
	}

	return docStyle.Render(header + "\n" + help + "\n\n" + body)
}

func moduleItemDesc(module resolver.ModuleAnalysis) string {
	if module.Error != nil {
		return "parse failed: " + *module.Error
	}
	return fmt.Sprintf("reexports=%d imports=%d exports=%d",
		len(module.Reexports), len(module.Imports), len(module.Exports))
}

func initialModel(packageRoot string, runs []history.Run) model {
	failureList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	failureList.Title = "Parse Failures"
	failureList.SetShowStatusBar(false)
	failureList.SetFilteringEnabled(true)

	moduleList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	moduleList.Title = "Module Explorer"
	moduleList.SetShowStatusBar(false)
	moduleList.SetFilteringEnabled(true)

	return model{
		failureList: failureList,
		moduleList:  moduleList,
		mode:        panelModules,
		runs:        runs,
		packageRoot: packageRoot,
		lastUpdate:  time.Now(),
	}
}
