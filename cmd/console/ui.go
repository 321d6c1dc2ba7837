package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/jwebster45206/mission-engine/internal/engine"
	"github.com/jwebster45206/mission-engine/internal/storage"
	"github.com/jwebster45206/mission-engine/pkg/mission"
)

// BoardUI is the BubbleTea model for the mission board.
// https://github.com/charmbracelet/bubbletea
type BoardUI struct {
	manager *engine.Manager
	store   *storage.Manager

	missions       []*mission.Mission
	selected       int
	detailViewport viewport.Model
	ready          bool
	width          int
	height         int
	status         string

	showQuitModal bool
}

type actionDoneMsg struct {
	status string
}

var (
	listPanelStyle = lipgloss.NewStyle().
			PaddingTop(1).
			PaddingLeft(2).
			PaddingRight(1)

	detailPanelStyle = lipgloss.NewStyle().
				PaddingTop(1).
				PaddingLeft(1).
				PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("205")).
			Bold(true)

	stateStyles = map[string]lipgloss.Style{
		"unknown":   lipgloss.NewStyle().Foreground(lipgloss.Color("240")), // dark grey
		"mentioned": lipgloss.NewStyle().Foreground(lipgloss.Color("39")),  // teal
		"accepted":  lipgloss.NewStyle().Foreground(lipgloss.Color("214")), // yellow
		"achieved":  lipgloss.NewStyle().Foreground(lipgloss.Color("86")),  // green
		"completed": lipgloss.NewStyle().Foreground(lipgloss.Color("86")),  // green
		"botched":   lipgloss.NewStyle().Foreground(lipgloss.Color("196")), // red
	}

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)
)

func NewBoardUI(manager *engine.Manager, store *storage.Manager) BoardUI {
	vp := viewport.New(50, 20)
	vp.MouseWheelEnabled = true

	return BoardUI{
		manager:        manager,
		store:          store,
		missions:       manager.ListMissions(),
		detailViewport: vp,
	}
}

func (m BoardUI) Init() tea.Cmd {
	return nil
}

func (m BoardUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	switch msg := msg.(type) {
	case tea.MouseMsg:
		var cmd tea.Cmd
		m.detailViewport, cmd = m.detailViewport.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		listWidth := m.listWidth()
		m.detailViewport.Width = m.width - listWidth - 6
		m.detailViewport.Height = m.height - 5
		m.ready = true
		m.writeDetail()

	case actionDoneMsg:
		m.status = msg.status
		m.missions = m.manager.ListMissions()
		m.clampSelection()
		m.writeDetail()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyUp:
			if m.selected > 0 {
				m.selected--
				m.writeDetail()
			}
		case tea.KeyDown:
			if m.selected < len(m.missions)-1 {
				m.selected++
				m.writeDetail()
			}
		default:
			switch msg.String() {
			case "q":
				m.showQuitModal = true
				return m, nil
			case "r":
				m.missions = m.manager.ListMissions()
				m.clampSelection()
				m.status = "Board refreshed"
				m.writeDetail()
			case "a":
				return m, m.acceptSelected()
			case "d":
				return m, m.abandonSelected()
			case "x":
				return m, m.botchSelected()
			case "u":
				return m, m.unbotchSelected()
			}
		}
	}

	var cmd tea.Cmd
	m.detailViewport, cmd = m.detailViewport.Update(msg)
	return m, cmd
}

func (m *BoardUI) clampSelection() {
	if m.selected >= len(m.missions) {
		m.selected = len(m.missions) - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

func (m *BoardUI) current() *mission.Mission {
	if len(m.missions) == 0 || m.selected >= len(m.missions) {
		return nil
	}
	return m.missions[m.selected]
}

func (m BoardUI) acceptSelected() tea.Cmd {
	sel := m.current()
	return func() tea.Msg {
		if sel == nil {
			return actionDoneMsg{"No mission selected"}
		}
		if _, ok := m.manager.AcceptMission(context.Background(), sel.ID); !ok {
			return actionDoneMsg{fmt.Sprintf("Cannot accept %s from state %s", sel.ID, sel.EffectiveState())}
		}
		return actionDoneMsg{"Accepted " + sel.ID}
	}
}

func (m BoardUI) abandonSelected() tea.Cmd {
	sel := m.current()
	return func() tea.Msg {
		if sel == nil {
			return actionDoneMsg{"No mission selected"}
		}
		if !m.manager.AbandonMission(context.Background(), sel.ID) {
			return actionDoneMsg{"Only accepted missions can be abandoned"}
		}
		return actionDoneMsg{"Abandoned " + sel.ID}
	}
}

func (m BoardUI) botchSelected() tea.Cmd {
	sel := m.current()
	return func() tea.Msg {
		if sel == nil {
			return actionDoneMsg{"No mission selected"}
		}
		if _, ok := m.manager.BotchMission(context.Background(), sel.ID, "botched from console", nil); !ok {
			return actionDoneMsg{"Cannot botch " + sel.ID}
		}
		return actionDoneMsg{"Botched " + sel.ID}
	}
}

func (m BoardUI) unbotchSelected() tea.Cmd {
	sel := m.current()
	return func() tea.Msg {
		if sel == nil {
			return actionDoneMsg{"No mission selected"}
		}
		if !m.manager.UnbotchMission(context.Background(), sel.ID) {
			return actionDoneMsg{sel.ID + " is not botched"}
		}
		return actionDoneMsg{"Restored " + sel.ID}
	}
}

func (m BoardUI) listWidth() int {
	w := int(float64(m.width) * 0.35)
	if w < 24 {
		w = 24
	}
	return w
}

func stateStyle(state string) lipgloss.Style {
	if s, ok := stateStyles[state]; ok {
		return s
	}
	return promptStyle
}

// writeDetail rebuilds the detail pane for the selected mission.
func (m *BoardUI) writeDetail() {
	sel := m.current()
	if sel == nil {
		m.detailViewport.SetContent("No missions on the board.\n\nDrop mission JSON into the data directory and press r.")
		return
	}

	wrapWidth := m.detailViewport.Width - 2
	if wrapWidth < 20 {
		wrapWidth = 20
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render(sel.Title) + "\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", wrapWidth)) + "\n\n")

	content.WriteString(labelStyle.Render("State: "))
	content.WriteString(stateStyle(sel.EffectiveState()).Render(sel.EffectiveState()) + "\n")
	content.WriteString(labelStyle.Render("Type: ") + sel.MissionType + "\n")
	if sel.Location != "" {
		content.WriteString(labelStyle.Render("Location: ") + sel.Location + "\n")
	}
	if sel.Faction != "" {
		content.WriteString(labelStyle.Render("Faction: ") + sel.Faction + "\n")
	}
	if client := sel.StringField(mission.FieldClient); client != "" {
		content.WriteString(labelStyle.Render("Client: ") + client + "\n")
	}

	p := sel.GetProgress()
	content.WriteString(labelStyle.Render("Progress: "))
	content.WriteString(fmt.Sprintf("%d/%d objectives (%.0f%%)\n\n", p.Achieved, p.Required, p.Percent))

	if sel.Description != "" {
		content.WriteString(wordwrap.String(sel.Description, wrapWidth) + "\n\n")
	}

	if len(sel.Objectives) > 0 {
		content.WriteString(labelStyle.Render("Objectives:") + "\n")
		for _, o := range sel.Objectives {
			marker := "[ ]"
			if o.IsAchieved {
				marker = "[x]"
			}
			line := fmt.Sprintf("%s %s", marker, o.Description)
			if o.IsOptional {
				line += " (optional)"
			}
			content.WriteString(wordwrap.String(line, wrapWidth) + "\n")
		}
		content.WriteString("\n")
	}

	if len(sel.CustomFields) > 0 {
		content.WriteString(labelStyle.Render("Details:") + "\n")
		for _, key := range []string{
			mission.FieldCargoType, mission.FieldCargoAmount, mission.FieldCargoLoaded,
			mission.FieldCargoDelivered, mission.FieldDestination, mission.FieldDeliveryType,
			mission.FieldTargetEnemyType, mission.FieldEnemyCount, mission.FieldKillsMade,
			mission.FieldTargetLocation, mission.FieldRewardCredits,
		} {
			if sel.HasField(key) {
				content.WriteString(fmt.Sprintf("• %s: %v\n", key, sel.CustomFields[key]))
			}
		}
	}

	m.detailViewport.SetContent(content.String())
	m.detailViewport.GotoTop()
}

func (m BoardUI) renderList(listWidth int) string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("MISSION BOARD") + "\n")
	content.WriteString(promptStyle.Render(fmt.Sprintf("%d missions · %s tier", len(m.missions), m.store.Tier())) + "\n\n")

	maxTitle := listWidth - 16
	if maxTitle < 10 {
		maxTitle = 10
	}
	for i, ms := range m.missions {
		title := ms.Title
		if len(title) > maxTitle {
			title = title[:maxTitle-1] + "…"
		}
		line := fmt.Sprintf("%-*s %s", maxTitle, title, ms.EffectiveState())
		if i == m.selected {
			content.WriteString(selectedStyle.Render("▶ "+line) + "\n")
		} else {
			content.WriteString("  " + stateStyle(ms.EffectiveState()).Render(line) + "\n")
		}
	}
	return content.String()
}

func (m BoardUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				return m, nil
			}
		}
	}

	return m, nil
}

func (m BoardUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quit?"))
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to return to the board"))

	modal := modalStyle.Width(44).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m BoardUI) View() string {
	if m.showQuitModal {
		return m.renderQuitModal()
	}
	if !m.ready {
		return "\n  Initializing..."
	}

	listWidth := m.listWidth()
	detailWidth := m.width - listWidth - 4

	listPanel := listPanelStyle.Width(listWidth).Height(m.height - 2).Render(m.renderList(listWidth))
	detailPanel := detailPanelStyle.Width(detailWidth).Height(m.height - 2).Render(m.detailViewport.View())

	board := lipgloss.JoinHorizontal(lipgloss.Top, listPanel, detailPanel)

	footer := promptStyle.Render("↑/↓ select · a accept · d abandon · x botch · u restore · r refresh · q quit")
	if m.status != "" {
		footer = statusStyle.Render(m.status) + "   " + footer
	}
	return lipgloss.JoinVertical(lipgloss.Left, board, " "+footer)
}
