package tui

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	textinput "github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/unowned-ai/memorynet/pkg/backend"
	"github.com/unowned-ai/memorynet/pkg/brain"
	"github.com/unowned-ai/memorynet/pkg/memories"
)

const (
	focusTags = iota
	focusTimeline
	focusDetail
)

type model struct {
	backend *backend.SQL
	user    memories.User
	brain   *brain.Synthesizer
	loc     *time.Location

	records []memories.Memory
	// timeline is nil until the first load finishes; an empty Timeline is a
	// loaded collection with nothing matching.
	timeline *memories.Timeline
	tags     []string
	selected map[string]bool

	columnFocus  int
	tagCursor    int
	memoryCursor int // index into timeline.Flatten()

	searching   bool
	searchInput textinput.Model

	asking   bool
	askInput textinput.Model
	reply    *brain.Reply

	deleting         bool
	deleteConfirmIdx int // 0 = "Yes" selected, 1 = "No"

	width      int
	height     int
	err        error
	status     string
	dbFilename string
	quitting   bool

	marqueeOffset int
	marqueeTimer  int
}

func initModel(b *backend.SQL, user memories.User, synth *brain.Synthesizer, loc *time.Location) model {
	_, file := getDbPragmaList(b.DB)

	search := textinput.New()
	search.Placeholder = "Search your memories"
	search.CharLimit = 256

	question := textinput.New()
	question.Placeholder = "What do I believe about fear?"
	question.CharLimit = 512

	if loc == nil {
		loc = time.Local
	}
	if synth == nil {
		synth = brain.NewSynthesizer(brain.DefaultMaxCitations, loc)
	}

	return model{
		backend:     b,
		user:        user,
		brain:       synth,
		loc:         loc,
		selected:    map[string]bool{},
		columnFocus: focusTimeline,
		searchInput: search,
		askInput:    question,
		dbFilename:  filepath.Base(file),
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		loadMemories(m.backend, m.user.ID),
		tea.Tick(marqueeTickDuration, func(t time.Time) tea.Msg {
			return t
		}),
	)
}

// filter turns the current view state into a query.
func (m model) filter() memories.Filter {
	var tags []string
	for _, tag := range m.tags {
		if m.selected[tag] {
			tags = append(tags, tag)
		}
	}
	return memories.Filter{SearchText: m.searchInput.Value(), Tags: tags}
}

// requery rebuilds the timeline from the loaded records and the view state.
func (m model) requery() model {
	if m.records == nil {
		return m
	}
	timeline, err := memories.Query(m.records, m.filter(), m.loc)
	if err != nil {
		m.status = err.Error()
		return m
	}
	m.status = ""
	m.timeline = &timeline
	if m.memoryCursor >= timeline.Total {
		m.memoryCursor = max(timeline.Total-1, 0)
	}
	return m
}

func (m model) visible() []memories.Memory {
	if m.timeline == nil {
		return nil
	}
	return m.timeline.Flatten()
}

func (m model) current() (memories.Memory, bool) {
	visible := m.visible()
	if m.memoryCursor < 0 || m.memoryCursor >= len(visible) {
		return memories.Memory{}, false
	}
	return visible[m.memoryCursor], true
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case error:
		m.err = msg
		return m, nil

	case recordsMsg:
		m.records = []memories.Memory(msg)
		if m.records == nil {
			m.records = []memories.Memory{}
		}
		m.tags = memories.AllTags(m.records)
		for tag := range m.selected {
			if !containsTag(m.tags, tag) {
				delete(m.selected, tag)
			}
		}
		if m.tagCursor >= len(m.tags) {
			m.tagCursor = max(len(m.tags)-1, 0)
		}
		return m.requery(), nil

	case memoryDeletedMsg:
		return m, loadMemories(m.backend, m.user.ID)

	case memoryUpdatedMsg:
		for i := range m.records {
			if m.records[i].ID == msg.ID {
				m.records[i] = memories.Memory(msg)
			}
		}
		return m.requery(), nil

	case replyMsg:
		reply := brain.Reply(msg)
		m.reply = &reply
		return m, nil

	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		if m.asking {
			return m.updateAsk(msg)
		}
		if m.deleting {
			return m.updateDelete(msg)
		}
		return m.updateNavigation(msg)

	case time.Time:
		m.marqueeTimer++
		if m.marqueeTimer >= 10 {
			m.marqueeTimer = 0
			m.marqueeOffset++
		}
		return m, tea.Tick(marqueeTickDuration, func(t time.Time) tea.Msg {
			return t
		})
	}

	return m, nil
}

// The timeline narrows as the user types.
func (m model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.searching = false
		m.searchInput.Blur()
		return m.requery(), nil
	case tea.KeyEsc:
		m.searching = false
		m.searchInput.Reset()
		m.searchInput.Blur()
		return m.requery(), nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	m.memoryCursor = 0
	return m.requery(), cmd
}

func (m model) updateAsk(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		question := m.askInput.Value()
		if strings.TrimSpace(question) == "" {
			m.status = "Ask a question first"
			return m, nil
		}
		m.status = ""
		return m, ask(m.brain, question, m.records)
	case tea.KeyEsc:
		m.asking = false
		m.reply = nil
		m.askInput.Reset()
		m.askInput.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.askInput, cmd = m.askInput.Update(msg)
	return m, cmd
}

func (m model) updateDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		m.deleteConfirmIdx = 0
	case "down", "j":
		m.deleteConfirmIdx = 1
	case "enter":
		m.deleting = false
		if m.deleteConfirmIdx != 0 {
			return m, nil
		}
		memory, ok := m.current()
		if !ok {
			return m, nil
		}
		return m, deleteMemory(m.backend, memory.ID)
	case "esc":
		m.deleting = false
	}
	return m, nil
}

func (m model) updateNavigation(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Sequence(tea.ExitAltScreen, tea.Quit)

	case "up", "k":
		if m.columnFocus == focusTags && m.tagCursor > 0 {
			m.tagCursor--
		}
		if m.columnFocus == focusTimeline && m.memoryCursor > 0 {
			m.memoryCursor--
		}

	case "down", "j":
		if m.columnFocus == focusTags && m.tagCursor < len(m.tags)-1 {
			m.tagCursor++
		}
		if m.columnFocus == focusTimeline && m.memoryCursor < len(m.visible())-1 {
			m.memoryCursor++
		}

	case "right", "l":
		if m.columnFocus < focusDetail {
			m.columnFocus++
		}

	case "left", "h":
		if m.columnFocus > focusTags {
			m.columnFocus--
		}

	case " ", "space", "t":
		if m.columnFocus == focusTags && len(m.tags) > 0 {
			tag := m.tags[m.tagCursor]
			if m.selected[tag] {
				delete(m.selected, tag)
			} else {
				m.selected[tag] = true
			}
			m.memoryCursor = 0
			return m.requery(), nil
		}

	case "/":
		m.searching = true
		m.searchInput.Focus()
		return m, textinput.Blink

	case "a":
		m.asking = true
		m.reply = nil
		m.askInput.Reset()
		m.askInput.Focus()
		return m, textinput.Blink

	case "s":
		if memory, ok := m.current(); ok {
			return m, setShared(m.backend, memory.ID, !memory.Shared())
		}

	case "d":
		if _, ok := m.current(); ok {
			m.deleteConfirmIdx = 1
			m.deleting = true
		}

	case "r":
		return m, loadMemories(m.backend, m.user.ID)
	}

	return m, nil
}

func containsTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

func (m model) View() string {
	if m.quitting {
		return "Closing the memory vault. Everything is saved.\n"
	}
	if m.err != nil {
		return fmt.Sprintf("Error: %v\n", m.err)
	}

	titleBar := titleStyle.Width(m.width).Render("MemoryNet - " + m.user.Name)
	leftWidth, middleWidth, rightWidth := m.columnWidths()

	m.searchInput.Width = middleWidth - bordersAndPaddingWidth - len("Search: ")
	m.askInput.Width = rightWidth - bordersAndPaddingWidth - len("Ask: ")

	panelHeightPadding := 3
	panelHeight := max(m.height-panelHeightPadding, 0)

	leftPanel := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), false, true, false, false).
		BorderForeground(lipgloss.Color(colorGray)).
		Padding(0, 2).
		Width(leftWidth).Height(panelHeight).
		Render(m.viewTags(leftWidth))

	middlePanel := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), false, true, false, false).
		BorderForeground(lipgloss.Color(colorGray)).
		Padding(0, 2).
		Width(middleWidth).Height(panelHeight).
		Render(m.viewTimeline(middleWidth))

	rightPanel := lipgloss.NewStyle().Padding(0, 2).
		Width(rightWidth).Height(panelHeight).
		Render(m.viewDetail(rightWidth))

	columns := lipgloss.JoinHorizontal(lipgloss.Top, leftPanel, middlePanel, rightPanel)

	footerText := "\n↑/↓ navigate • ←/→ switch column • space toggle tag • / search • a ask • s share • d delete • q quit"
	footerBar := footerStyle.Width(m.width).Render(footerText)

	return titleBar + "\n\n" + columns + footerBar
}

func (m model) viewTags(width int) string {
	var b strings.Builder
	b.WriteString(subtitleStyle.Width(width - bordersAndPaddingWidth).Render("  Tags"))
	b.WriteString("\n\n")

	if len(m.tags) == 0 {
		b.WriteString("No tags yet.\n")
	}
	for i, tag := range m.tags {
		box := "[ ] "
		if m.selected[tag] {
			box = "[x] "
		}
		pointer := generateLinePointer(m.columnFocus == focusTags && i == m.tagCursor, 2)
		text := truncate(box+tag, width-len(pointer)-bordersAndPaddingWidth-1)
		if m.columnFocus == focusTags && i == m.tagCursor {
			text = selectedStyle.Render(text)
		} else {
			text = inactiveStyle.Render(text)
		}
		b.WriteString(pointer + text + "\n")
	}

	shared := 0
	for _, record := range m.records {
		if record.Shared() {
			shared++
		}
	}
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Memories: %v\nShared: %v\nDatabase file: %v\n",
		TextStatusColorize(strconv.Itoa(len(m.records)), 1),
		TextStatusColorize(strconv.Itoa(shared), 1),
		TextStatusColorize(m.dbFilename, 1)))

	return b.String()
}

func (m model) viewTimeline(width int) string {
	var b strings.Builder
	b.WriteString(subtitleStyle.Width(width - bordersAndPaddingWidth).Render("  Timeline"))
	b.WriteString("\n\n")

	if m.searching || m.searchInput.Value() != "" {
		b.WriteString("Search: " + m.searchInput.View() + "\n\n")
	}
	if m.status != "" && !m.asking {
		b.WriteString(errorStyle.Render(m.status) + "\n\n")
	}

	if m.timeline == nil {
		b.WriteString("  Loading memories...\n")
		return b.String()
	}
	if m.timeline.Empty() {
		if len(m.records) == 0 {
			b.WriteString("  No memories yet. Use 'memorynet memories create' to add one.\n")
		} else {
			b.WriteString("  No memories match your search.\n")
		}
		return b.String()
	}

	i := 0
	for _, group := range m.timeline.Groups {
		b.WriteString(dateStyle.Render(group.Label) + "\n")
		for _, memory := range group.Memories {
			focused := i == m.memoryCursor && m.columnFocus == focusTimeline
			pointer := generateLinePointer(focused, 2)
			availableWidth := width - len(pointer) - bordersAndPaddingWidth - 1

			title := displayTitle(memory)
			if i == m.memoryCursor {
				text := lipgloss.NewStyle().MaxWidth(availableWidth).Render(m.marqueeText(title, availableWidth))
				b.WriteString(pointer + selectedStyle.Render(text) + "\n")
			} else {
				b.WriteString(pointer + inactiveStyle.Render(truncate(title, availableWidth)) + "\n")
			}
			i++
		}
		b.WriteString("\n")
	}

	return b.String()
}

func (m model) viewDetail(width int) string {
	var b strings.Builder

	subtitle := "Memory"
	switch {
	case m.asking:
		subtitle = "Ask Your Memories"
	case m.deleting:
		subtitle = "Delete Memory"
	}
	b.WriteString(subtitleStyle.Width(width - bordersAndPaddingWidth).Render(subtitle))
	b.WriteString("\n\n")

	if m.asking {
		b.WriteString("Ask: " + m.askInput.View() + "\n\n")
		if m.status != "" {
			b.WriteString(errorStyle.Render(m.status) + "\n\n")
		}
		if m.reply != nil {
			b.WriteString(inactiveStyle.Render(m.reply.Text) + "\n\n")
			if len(m.reply.Citations) > 0 {
				b.WriteString(labelStyle.Render("Drawn from:") + "\n")
				for _, citation := range m.reply.Citations {
					b.WriteString("  " + tagStyle.Render(citation.Label) + "\n")
				}
			}
		}
		b.WriteString("\n(enter to ask, esc to close)")
		return b.String()
	}

	memory, ok := m.current()
	if !ok {
		b.WriteString("Select a memory to view details.")
		return b.String()
	}

	if m.deleting {
		b.WriteString("Title: " + errorStyle.Render(displayTitle(memory)) + "\n\n")
		yesOpt, noOpt := "Yes", "No"
		if m.deleteConfirmIdx == 0 {
			yesOpt = dangerSelectedStyle.Render(" >" + yesOpt)
			noOpt = inactiveStyle.Render("  " + noOpt)
		} else {
			yesOpt = inactiveStyle.Render("  " + yesOpt)
			noOpt = selectedStyle.Render(" >" + noOpt)
		}
		b.WriteString(fmt.Sprintf("%s\n%s\n\n", yesOpt, noOpt))
		b.WriteString("(enter to confirm, esc to cancel, up/down to switch)")
		return b.String()
	}

	field := func(label, value string) {
		b.WriteString(labelStyle.Render(label+": ") + inactiveStyle.Render(value) + "\n")
	}

	b.WriteString(lipgloss.NewStyle().Bold(true).Render(displayTitle(memory)) + "\n\n")
	field("Date", memory.CreatedAt.In(m.loc).Format("January 2, 2006 15:04"))
	field("Kind", string(memory.Kind))
	if memory.Emotion != memories.EmotionNone {
		field("Emotion", string(memory.Emotion))
	}
	visibility := TextStatusColorize(string(memory.Visibility), 0)
	if memory.Shared() {
		visibility = TextStatusColorize(string(memory.Visibility), 1)
	}
	b.WriteString(labelStyle.Render("Visibility: ") + visibility + "\n")

	tagsLine := "-"
	if len(memory.Tags) > 0 {
		tagsLine = strings.Join(memory.Tags, " ")
	}
	b.WriteString(labelStyle.Render("Tags: ") + tagStyle.Render(tagsLine) + "\n\n")

	b.WriteString(inactiveStyle.Width(max(width-bordersAndPaddingWidth, 1)).Render(memory.Content))

	return b.String()
}

func displayTitle(memory memories.Memory) string {
	if memory.Title != "" {
		return memory.Title
	}
	return "Untitled"
}

// ShowTUI runs the timeline browser for user until they quit.
func ShowTUI(b *backend.SQL, user memories.User, synth *brain.Synthesizer, loc *time.Location) error {
	p := tea.NewProgram(initModel(b, user, synth, loc), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
