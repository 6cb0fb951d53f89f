package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/jwebster45206/route-tycoon/internal/advisor"
	"github.com/jwebster45206/route-tycoon/internal/handlers"
	"github.com/jwebster45206/route-tycoon/internal/services/events"
	"github.com/jwebster45206/route-tycoon/pkg/progression"
	"github.com/jwebster45206/route-tycoon/pkg/state"
	"github.com/jwebster45206/route-tycoon/pkg/suggest"
	"github.com/jwebster45206/route-tycoon/pkg/textfilter"
)

const (
	toastTTL      = 4 * time.Second
	toastInterval = 500 * time.Millisecond
	sidePanelMin  = 36
)

type inputMode int

const (
	modeRoutes inputMode = iota
	modeBuildFrom
	modeBuildTo
)

type toastKind int

const (
	toastInfo toastKind = iota
	toastFunds
	toastInvalid
	toastError
)

type toast struct {
	text    string
	kind    toastKind
	expires time.Time
}

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config *ConsoleConfig
	api    *APIClient
	ctx    context.Context
	cancel context.CancelFunc

	game   *state.GameState
	income int
	rules  state.Rules

	width  int
	height int
	ready  bool

	mode          inputMode
	selectedRoute int
	cityCursor    int
	buildFrom     string
	busy          bool
	toasts        []toast

	showSuggestions    bool
	suggestLoading     bool
	suggestions        *suggest.Result
	suggestErr         string
	selectedSuggestion int
	reasoning          viewport.Model
	spinner            spinner.Model

	stream <-chan events.Event
	live   bool

	showQuitModal bool
}

type gameLoadedMsg struct {
	resp *handlers.GameResponse
	err  error
}

type actionKind int

const (
	actionUpgrade actionKind = iota
	actionBuild
	actionUnlock
)

type actionMsg struct {
	kind actionKind
	resp *handlers.MutationResponse
	err  error
}

type suggestionsMsg struct {
	result *suggest.Result
	err    error
}

type streamOpenedMsg struct {
	stream <-chan events.Event
	err    error
}

type eventMsg struct {
	event events.Event
}

type streamClosedMsg struct{}

type toastTickMsg time.Time

type pollMsg struct{}

var (
	mapPanelStyle = lipgloss.NewStyle().
			PaddingTop(1).
			PaddingLeft(2)

	sidePanelStyle = lipgloss.NewStyle().
			PaddingTop(1).
			PaddingLeft(2).
			PaddingRight(1).
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("240"))

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244"))

	moneyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("86")) // green

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	wonStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("220")).
			Bold(true).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("205")).
			Bold(true)

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

	toastStyles = map[toastKind]lipgloss.Style{
		toastInfo:    okStyle,
		toastFunds:   warnStyle,
		toastInvalid: warnStyle,
		toastError:   errorStyle,
	}
)

func NewConsoleUI(cfg *ConsoleConfig, api *APIClient, game *handlers.GameResponse, rules state.Rules) ConsoleUI {
	ctx, cancel := context.WithCancel(context.Background())

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = warnStyle

	return ConsoleUI{
		config:    cfg,
		api:       api,
		ctx:       ctx,
		cancel:    cancel,
		game:      game.Game,
		income:    game.IncomePerTick,
		rules:     rules,
		reasoning: viewport.New(60, 8),
		spinner:   sp,
	}
}

func (m ConsoleUI) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.openStream(), toastTick())
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resizeReasoning()
		return m, nil

	case tea.KeyMsg:
		if m.showQuitModal {
			return m.updateQuitModal(msg)
		}
		if m.showSuggestions {
			return m.updateSuggestionsModal(msg)
		}
		return m.updateMain(msg)

	case gameLoadedMsg:
		if msg.err != nil {
			m.pushError(msg.err)
			return m, nil
		}
		m.setGame(msg.resp.Game, msg.resp.IncomePerTick)

	case actionMsg:
		m.busy = false
		if msg.err != nil {
			m.pushError(msg.err)
			return m, nil
		}
		m.setGame(msg.resp.Game, msg.resp.IncomePerTick)
		m.pushOutcome(msg.kind, msg.resp.Outcome)

	case suggestionsMsg:
		m.suggestLoading = false
		if msg.err != nil {
			m.suggestErr = advisor.FailureMessage
			var apiErr *APIError
			if errors.As(msg.err, &apiErr) && apiErr.Code != handlers.CodeSuggestionFailed {
				m.suggestErr = apiErr.Error()
			}
			return m, nil
		}
		m.suggestErr = ""
		m.suggestions = msg.result
		m.selectedSuggestion = 0
		m.reasoning.SetContent(m.renderReasoning())
		m.reasoning.GotoTop()

	case streamOpenedMsg:
		if msg.err != nil {
			m.pushToast("Live updates unavailable, polling instead", toastInvalid)
			return m, m.poll()
		}
		m.stream = msg.stream
		m.live = true
		return m, waitForEvent(m.stream)

	case eventMsg:
		cmds := []tea.Cmd{waitForEvent(m.stream)}
		switch msg.event.Type {
		case events.EventTypeIncomeTick, events.EventTypeRouteUpgraded, events.EventTypeRouteBuilt, events.EventTypeZoneUnlocked:
			cmds = append(cmds, m.refreshGame())
		case events.EventTypeGameWon:
			m.pushToast("You have connected every city. You won!", toastInfo)
		}
		return m, tea.Batch(cmds...)

	case streamClosedMsg:
		m.live = false
		m.stream = nil
		return m, m.poll()

	case pollMsg:
		return m, tea.Batch(m.refreshGame(), m.poll())

	case toastTickMsg:
		now := time.Time(msg)
		kept := m.toasts[:0]
		for _, t := range m.toasts {
			if now.Before(t.expires) {
				kept = append(kept, t)
			}
		}
		m.toasts = kept
		return m, toastTick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m ConsoleUI) updateMain(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.mode != modeRoutes {
		return m.updateBuild(msg)
	}

	switch msg.String() {
	case "ctrl+c", "q", "esc":
		m.showQuitModal = true
	case "up", "k":
		if m.selectedRoute > 0 {
			m.selectedRoute--
		}
	case "down", "j":
		if m.selectedRoute < len(m.game.Routes)-1 {
			m.selectedRoute++
		}
	case "u", "enter":
		if r, ok := m.currentRoute(); ok && !m.busy {
			m.busy = true
			return m, m.upgradeRoute(r.ID)
		}
	case "b":
		if m.unlockedCityCount() < 2 {
			m.pushToast("Unlock more cities before building routes", toastInvalid)
			return m, nil
		}
		m.mode = modeBuildFrom
		m.cityCursor = m.nextUnlockedCity(-1, 1)
		m.buildFrom = ""
	case "z":
		zone, ok := m.nextLockedZone()
		if !ok {
			m.pushToast("Every zone is already unlocked", toastInvalid)
			return m, nil
		}
		if !m.busy {
			m.busy = true
			return m, m.unlockZone(zone)
		}
	case "s":
		m.showSuggestions = true
		if m.suggestions == nil && m.suggestErr == "" && !m.suggestLoading {
			cmd := m.requestSuggestions()
			return m, cmd
		}
	}
	return m, nil
}

func (m ConsoleUI) updateBuild(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.showQuitModal = true
	case "esc", "q":
		m.mode = modeRoutes
		m.buildFrom = ""
	case "left", "up", "h", "k":
		m.cityCursor = m.nextUnlockedCity(m.cityCursor, -1)
	case "right", "down", "l", "j":
		m.cityCursor = m.nextUnlockedCity(m.cityCursor, 1)
	case "enter", " ":
		if m.cityCursor < 0 || m.cityCursor >= len(m.game.Cities) {
			return m, nil
		}
		id := m.game.Cities[m.cityCursor].ID
		if m.mode == modeBuildFrom {
			m.buildFrom = id
			m.mode = modeBuildTo
			m.cityCursor = m.nextUnlockedCity(m.cityCursor, 1)
			return m, nil
		}
		from := m.buildFrom
		m.mode = modeRoutes
		m.buildFrom = ""
		if !m.busy {
			m.busy = true
			return m, m.buildRoute(from, id)
		}
	}
	return m, nil
}

func (m ConsoleUI) updateSuggestionsModal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.showQuitModal = true
	case "esc", "s", "q":
		m.showSuggestions = false
	case "up", "k":
		if m.selectedSuggestion > 0 {
			m.selectedSuggestion--
		}
	case "down", "j":
		if m.suggestions != nil && m.selectedSuggestion < len(m.suggestions.Suggestions)-1 {
			m.selectedSuggestion++
		}
	case "r":
		if !m.suggestLoading {
			cmd := m.requestSuggestions()
			return m, cmd
		}
	case "c":
		if m.suggestions == nil || m.suggestions.Reasoning == "" {
			return m, nil
		}
		if err := clipboard.WriteAll(textfilter.Clean(m.suggestions.Reasoning)); err != nil {
			m.pushToast("Clipboard copy failed: "+err.Error(), toastError)
		} else {
			m.pushToast("Reasoning copied to clipboard", toastInfo)
		}
	case "enter", "a":
		return m.applySuggestion()
	default:
		var cmd tea.Cmd
		m.reasoning, cmd = m.reasoning.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m ConsoleUI) applySuggestion() (tea.Model, tea.Cmd) {
	if m.suggestions == nil || len(m.suggestions.Suggestions) == 0 || m.busy {
		return m, nil
	}
	s := m.suggestions.Suggestions[m.selectedSuggestion]
	m.showSuggestions = false

	switch s.UpgradeType {
	case suggest.UpgradeCapacity:
		m.busy = true
		m.selectRoute(s.RouteID)
		return m, m.upgradeRoute(s.RouteID)
	case suggest.UpgradeNewRoute:
		from, to, ok := s.Endpoints()
		if !ok {
			m.pushToast("Suggestion does not name two cities", toastInvalid)
			return m, nil
		}
		m.busy = true
		return m, m.buildRoute(from, to)
	}
	return m, nil
}

func (m ConsoleUI) updateQuitModal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "y", "Y", "enter":
		m.cancel()
		return m, tea.Quit
	case "n", "N", "esc":
		m.showQuitModal = false
	}
	return m, nil
}

// Commands

func (m ConsoleUI) upgradeRoute(routeID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(m.ctx, requestTimeout)
		defer cancel()
		resp, err := m.api.UpgradeRoute(ctx, m.game.ID, routeID)
		return actionMsg{actionUpgrade, resp, err}
	}
}

func (m ConsoleUI) buildRoute(from, to string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(m.ctx, requestTimeout)
		defer cancel()
		resp, err := m.api.BuildRoute(ctx, m.game.ID, from, to)
		return actionMsg{actionBuild, resp, err}
	}
}

func (m ConsoleUI) unlockZone(zone state.Zone) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(m.ctx, requestTimeout)
		defer cancel()
		resp, err := m.api.UnlockZone(ctx, m.game.ID, zone)
		return actionMsg{actionUnlock, resp, err}
	}
}

// requestSuggestions sets the loading flag; callers must check it first.
func (m *ConsoleUI) requestSuggestions() tea.Cmd {
	m.suggestLoading = true
	m.suggestErr = ""
	id := m.game.ID
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		res, err := m.api.Suggest(m.ctx, id, "")
		return suggestionsMsg{res, err}
	})
}

func (m ConsoleUI) refreshGame() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(m.ctx, requestTimeout)
		defer cancel()
		resp, err := m.api.GetGame(ctx, m.game.ID)
		return gameLoadedMsg{resp, err}
	}
}

func (m ConsoleUI) openStream() tea.Cmd {
	return func() tea.Msg {
		stream, err := m.api.Subscribe(m.ctx, m.game.ID)
		return streamOpenedMsg{stream, err}
	}
}

func (m ConsoleUI) poll() tea.Cmd {
	interval := time.Duration(m.rules.IncomeIntervalMS) * time.Millisecond
	if interval <= 0 {
		interval = state.IncomeInterval
	}
	return tea.Tick(interval, func(time.Time) tea.Msg { return pollMsg{} })
}

func waitForEvent(stream <-chan events.Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-stream
		if !ok {
			return streamClosedMsg{}
		}
		return eventMsg{event}
	}
}

func toastTick() tea.Cmd {
	return tea.Tick(toastInterval, func(t time.Time) tea.Msg {
		return toastTickMsg(t)
	})
}

// State helpers

func (m *ConsoleUI) setGame(gs *state.GameState, income int) {
	if gs == nil {
		return
	}
	wasWon := m.game != nil && m.game.Won
	m.game = gs
	m.income = income
	if m.selectedRoute >= len(gs.Routes) {
		m.selectedRoute = len(gs.Routes) - 1
	}
	if m.selectedRoute < 0 {
		m.selectedRoute = 0
	}
	if gs.Won && !wasWon {
		m.pushToast("You have connected every city. You won!", toastInfo)
	}
}

func (m *ConsoleUI) pushToast(text string, kind toastKind) {
	m.toasts = append(m.toasts, toast{text: text, kind: kind, expires: time.Now().Add(toastTTL)})
	if len(m.toasts) > 4 {
		m.toasts = m.toasts[len(m.toasts)-4:]
	}
}

// pushError shows a failed action. Funds and invalid targets get their own categories.
func (m *ConsoleUI) pushError(err error) {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		m.pushToast("Error: "+err.Error(), toastError)
		return
	}
	switch apiErr.Code {
	case handlers.CodeInsufficientFunds:
		m.pushToast("Not enough money: "+apiErr.Error(), toastFunds)
	case handlers.CodeUnknownRoute, handlers.CodeUnknownCity, handlers.CodeDuplicateRoute,
		handlers.CodeSameCity, handlers.CodeCityLocked, handlers.CodeRouteLocked,
		handlers.CodeInvalidZone, handlers.CodeZoneUnlocked:
		m.pushToast("Can't do that: "+apiErr.Error(), toastInvalid)
	default:
		m.pushToast("Error: "+apiErr.Error(), toastError)
	}
}

func (m *ConsoleUI) pushOutcome(kind actionKind, out state.Outcome) {
	switch kind {
	case actionBuild:
		m.pushToast(fmt.Sprintf("Built %s for %s", m.routeLabel(out.RouteID), textfilter.Currency(out.Cost)), toastInfo)
	case actionUpgrade:
		r, _ := m.game.Route(out.RouteID)
		m.pushToast(fmt.Sprintf("Upgraded %s to level %d for %s", m.routeLabel(out.RouteID), r.Level, textfilter.Currency(out.Cost)), toastInfo)
	case actionUnlock:
		m.pushToast(fmt.Sprintf("Unlocked zone %s for %s", out.Zone, textfilter.Currency(out.Cost)), toastInfo)
	}
	if out.LevelsGained > 0 {
		m.pushToast(fmt.Sprintf("Level up! You are now level %d", m.game.Player.Level), toastInfo)
	}
}

func (m ConsoleUI) currentRoute() (state.Route, bool) {
	if m.selectedRoute < 0 || m.selectedRoute >= len(m.game.Routes) {
		return state.Route{}, false
	}
	return m.game.Routes[m.selectedRoute], true
}

func (m *ConsoleUI) selectRoute(id string) {
	for i, r := range m.game.Routes {
		if r.ID == id {
			m.selectedRoute = i
			return
		}
	}
}

func (m ConsoleUI) nextLockedZone() (state.Zone, bool) {
	for _, z := range state.Zones {
		if !m.game.ZoneUnlocked(z) {
			return z, true
		}
	}
	return "", false
}

func (m ConsoleUI) unlockedCityCount() int {
	n := 0
	for _, c := range m.game.Cities {
		if c.IsUnlocked {
			n++
		}
	}
	return n
}

// nextUnlockedCity steps from index i in direction dir to the next unlocked
// city, wrapping around. It returns -1 if none is unlocked.
func (m ConsoleUI) nextUnlockedCity(i, dir int) int {
	n := len(m.game.Cities)
	for step := 1; step <= n; step++ {
		j := ((i+dir*step)%n + n) % n
		if m.game.Cities[j].IsUnlocked {
			return j
		}
	}
	return -1
}

func (m ConsoleUI) cityName(id string) string {
	if c, ok := m.game.City(id); ok {
		return textfilter.Title(c.Name)
	}
	return id
}

func (m ConsoleUI) routeLabel(id string) string {
	r, ok := m.game.Route(id)
	if !ok {
		return id
	}
	return fmt.Sprintf("%s → %s", m.cityName(r.From), m.cityName(r.To))
}

func (m *ConsoleUI) resizeReasoning() {
	w, h := m.modalWidth()-6, m.height/3
	if h < 4 {
		h = 4
	}
	m.reasoning.Width = w
	m.reasoning.Height = h
	if m.suggestions != nil {
		m.reasoning.SetContent(m.renderReasoning())
	}
}

func (m ConsoleUI) modalWidth() int {
	w := m.width * 3 / 4
	if w > 90 {
		w = 90
	}
	if w < 40 {
		w = 40
	}
	return w
}

// Views

func (m ConsoleUI) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}
	if m.showQuitModal {
		return m.renderQuitModal()
	}
	if m.showSuggestions {
		return m.renderSuggestionsModal()
	}

	sideWidth := m.width / 3
	if sideWidth < sidePanelMin {
		sideWidth = sidePanelMin
	}
	mapWidth := m.width - sideWidth - 4
	mapHeight := m.height - 6 - len(m.toasts)

	sel := mapSelection{}
	switch m.mode {
	case modeRoutes:
		if r, ok := m.currentRoute(); ok {
			sel.routeID = r.ID
		}
	default:
		if m.buildFrom != "" {
			sel.cityIDs = append(sel.cityIDs, m.buildFrom)
		}
		if m.cityCursor >= 0 && m.cityCursor < len(m.game.Cities) {
			sel.cityIDs = append(sel.cityIDs, m.game.Cities[m.cityCursor].ID)
		}
	}

	var left strings.Builder
	left.WriteString(titleStyle.Render("ROUTE TYCOON"))
	if m.live {
		left.WriteString(promptStyle.Render("  ● live"))
	}
	left.WriteString("\n\n")
	left.WriteString(renderMap(m.game, mapWidth, mapHeight, sel))
	left.WriteString("\n")
	for _, t := range m.toasts {
		left.WriteString("\n" + toastStyles[t.kind].Render(textfilter.Truncate(t.text, mapWidth)))
	}
	left.WriteString("\n" + promptStyle.Render(m.helpLine()))

	mapPanel := mapPanelStyle.Width(mapWidth + 2).Render(left.String())
	sidePanel := sidePanelStyle.Width(sideWidth).Height(m.height - 2).Render(m.renderSidePanel(sideWidth - 3))

	return lipgloss.JoinHorizontal(lipgloss.Top, mapPanel, sidePanel)
}

func (m ConsoleUI) helpLine() string {
	switch m.mode {
	case modeBuildFrom:
		return "Build: ←/→ pick the first city, Enter to confirm, Esc to cancel"
	case modeBuildTo:
		return fmt.Sprintf("Build from %s: ←/→ pick the second city, Enter to build, Esc to cancel", m.cityName(m.buildFrom))
	}
	return "↑/↓ route  u upgrade  b build  z unlock zone  s AI suggestions  q quit"
}

func (m ConsoleUI) renderSidePanel(width int) string {
	gs := m.game
	var b strings.Builder

	if gs.Won {
		b.WriteString(wonStyle.Render("★ NETWORK COMPLETE ★") + "\n\n")
	}

	b.WriteString(labelStyle.Render("Money    ") + moneyStyle.Render(textfilter.Currency(gs.Player.Currency)) + "\n")
	b.WriteString(labelStyle.Render("Income   ") + okStyle.Render("+"+textfilter.Currency(m.income)) + labelStyle.Render(" / tick") + "\n")
	b.WriteString(labelStyle.Render("Level    ") + fmt.Sprintf("%d", gs.Player.Level) + "\n")
	b.WriteString(labelStyle.Render("XP       ") + fmt.Sprintf("%s / %s",
		textfilter.Number(gs.Player.XP), textfilter.Number(progression.Threshold(gs.Player.Level))) + "\n")
	b.WriteString(renderBar(progression.Progress(gs.Player.Level, gs.Player.XP), width) + "\n\n")

	b.WriteString(titleStyle.Render("ZONES") + "\n")
	for _, z := range state.Zones {
		status := warnStyle.Render("locked · " + textfilter.Currency(m.rules.UnlockCost))
		if gs.ZoneUnlocked(z) {
			status = okStyle.Render("open")
		}
		b.WriteString(fmt.Sprintf("Zone %s  %s\n", z, status))
	}
	b.WriteString("\n")

	b.WriteString(titleStyle.Render("ROUTES") + "\n")
	for i, r := range gs.Routes {
		line := fmt.Sprintf("%-4s %s", r.ID, m.routeLabel(r.ID))
		detail := fmt.Sprintf("     Lv %d · cap %d · up %s", r.Level, r.Capacity, textfilter.Currency(r.UpgradeCost()))
		if !r.IsUnlocked {
			detail = "     locked"
		}
		line = textfilter.Truncate(line, width)
		detail = textfilter.Truncate(detail, width)
		if i == m.selectedRoute && m.mode == modeRoutes {
			b.WriteString(selectedStyle.Render(line) + "\n")
		} else if r.IsUnlocked {
			b.WriteString(line + "\n")
		} else {
			b.WriteString(promptStyle.Render(line) + "\n")
		}
		b.WriteString(labelStyle.Render(detail) + "\n")
	}

	if m.suggestLoading {
		b.WriteString("\n" + m.spinner.View() + " Asking the advisor...\n")
	} else if m.suggestErr != "" {
		b.WriteString("\n" + errorStyle.Render(wordwrap.String(m.suggestErr, width)) + "\n")
	}

	return b.String()
}

func (m ConsoleUI) renderSuggestionsModal() string {
	width := m.modalWidth()
	inner := width - 6

	var content strings.Builder
	content.WriteString(modalTitleStyle.Width(inner).Render("AI Suggestions"))
	content.WriteString("\n\n")

	switch {
	case m.suggestLoading:
		content.WriteString(m.spinner.View() + " Analyzing your network...")
	case m.suggestErr != "":
		content.WriteString(errorStyle.Render(wordwrap.String(m.suggestErr, inner)))
		content.WriteString("\n\n")
		content.WriteString(promptStyle.Render("Press r to retry, Esc to close"))
	case m.suggestions == nil:
		content.WriteString(promptStyle.Render("Press r to ask for suggestions"))
	default:
		if len(m.suggestions.Suggestions) == 0 {
			content.WriteString("No upgrades suggested right now.\n")
		}
		for i, s := range m.suggestions.Suggestions {
			line := m.suggestionLine(s)
			if i == m.selectedSuggestion {
				content.WriteString(selectedStyle.Render("▶ "+textfilter.Truncate(line, inner-2)) + "\n")
			} else {
				content.WriteString("  " + textfilter.Truncate(line, inner-2) + "\n")
			}
			if s.Reason != "" {
				content.WriteString(labelStyle.Render(wordwrap.String("    "+textfilter.Clean(s.Reason), inner)) + "\n")
			}
		}
		content.WriteString("\n" + titleStyle.Render("Reasoning") + "\n")
		content.WriteString(m.reasoning.View())
		content.WriteString("\n\n")
		content.WriteString(promptStyle.Render("↑/↓ select  Enter apply  c copy reasoning  r refresh  Esc close"))
	}

	modal := modalStyle.Width(width).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) suggestionLine(s suggest.Suggestion) string {
	cost := textfilter.Currency(s.Cost)
	if !s.Affordable(m.game.Player.Currency) {
		cost += " (can't afford)"
	}
	switch s.UpgradeType {
	case suggest.UpgradeNewRoute:
		from, to, ok := s.Endpoints()
		if ok {
			return fmt.Sprintf("Build %s → %s · %s", m.cityName(from), m.cityName(to), cost)
		}
		return fmt.Sprintf("Build %s · %s", s.RouteID, cost)
	default:
		return fmt.Sprintf("Upgrade %s (%s) · %s", s.RouteID, m.routeLabel(s.RouteID), cost)
	}
}

func (m ConsoleUI) renderReasoning() string {
	if m.suggestions == nil {
		return ""
	}
	w := m.reasoning.Width
	if w <= 0 {
		w = 60
	}
	return wordwrap.String(textfilter.Clean(m.suggestions.Reasoning), w)
}

func (m ConsoleUI) renderQuitModal() string {
	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quit Game?"))
	content.WriteString("\n\n")
	content.WriteString("Your network keeps earning while you are away.")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

// renderBar draws a progress bar for a fraction in [0, 1].
func renderBar(fraction float64, width int) string {
	if width < 10 {
		width = 10
	}
	if width > 40 {
		width = 40
	}
	filled := int(fraction * float64(width))
	filled = clamp(filled, 0, width)
	return okStyle.Render(strings.Repeat("█", filled)) + promptStyle.Render(strings.Repeat("░", width-filled))
}
