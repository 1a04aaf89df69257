// Package tui is the contact screen: list, search, add/edit form, detail
// view, delete confirmation and swipe-to-reveal row actions over a
// contacts.Provider.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pdxmph/phonebook/internal/contacts"
	"github.com/pdxmph/phonebook/internal/exchange"
)

// Defaults used when Options leaves a value zero.
const (
	DefaultTimeout        = 10 * time.Second
	DefaultSwipeThreshold = 100
	DefaultCellUnits      = 10
)

type mode int

const (
	modeList mode = iota
	modeSearch
	modeForm
	modeDetail
	modeConfirm
)

// Options configures the screen.
type Options struct {
	// Timeout bounds every provider call.
	Timeout time.Duration
	// SwipeThreshold is the leftward displacement, in units, a release must
	// exceed to reveal a row's actions.
	SwipeThreshold int
	// CellUnits is the number of swipe units one terminal cell is worth.
	CellUnits int
	// Now is the clock used for the birthday marker.
	Now func() time.Time
}

// Model represents the contact screen state
type Model struct {
	provider contacts.Provider
	timeout  time.Duration
	now      func() time.Time

	items    []item
	selected int // index into the visible items
	width    int
	height   int
	mode     mode

	search  textinput.Model
	form    form
	detail  *contacts.Contact
	confirm *contacts.Contact
	alert   string

	// Swipe state: one open row at most
	open           int
	drag           *drag
	swipeThreshold int
	cellUnits      int

	// In-flight provider calls
	refreshSeq int
	loading    bool
	saving     bool
	removing   bool
	spinner    spinner.Model

	help help.Model
}

// New creates the contact screen over provider
func New(provider contacts.Provider, opts Options) Model {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.SwipeThreshold <= 0 {
		opts.SwipeThreshold = DefaultSwipeThreshold
	}
	if opts.CellUnits <= 0 {
		opts.CellUnits = DefaultCellUnits
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	// Setup search input
	ti := textinput.New()
	ti.Placeholder = "Search contacts..."
	ti.Width = 30
	ti.CharLimit = 50
	ti.Prompt = "/ "
	ti.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("230"))
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	ti.PlaceholderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		provider:       provider,
		timeout:        opts.Timeout,
		now:            opts.Now,
		width:          80,
		height:         24,
		search:         ti,
		form:           newForm(),
		open:           -1,
		swipeThreshold: opts.SwipeThreshold,
		cellUnits:      opts.CellUnits,
		refreshSeq:     1,
		loading:        true,
		spinner:        sp,
		help:           help.New(),
	}
}

// Init fetches the initial list
func (m Model) Init() tea.Cmd {
	return tea.Batch(findContacts(m.provider, m.timeout, m.refreshSeq), m.spinner.Tick)
}

// refresh issues a full list fetch. Results of earlier refreshes are
// discarded when they arrive.
func (m *Model) refresh() tea.Cmd {
	m.refreshSeq++
	m.loading = true
	return tea.Batch(findContacts(m.provider, m.timeout, m.refreshSeq), m.spinner.Tick)
}

func (m Model) busy() bool {
	return m.loading || m.saving || m.removing
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case contactsLoadedMsg:
		if msg.seq != m.refreshSeq {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.alert = fmt.Sprintf("Error fetching contacts: %s", contacts.CodeOf(msg.err))
			return m, nil
		}
		m.items = buildItems(msg.contacts, m.now())
		m.open = -1
		m.drag = nil
		applyFilter(m.items, m.search.Value())
		m.selected = m.ensureValidSelection()
		return m, nil

	case contactSavedMsg:
		m.saving = false
		if msg.err != nil {
			m.alert = fmt.Sprintf("Error saving contact: %s", contacts.CodeOf(msg.err))
			return m, nil
		}
		m.closeForm()
		return m, m.refresh()

	case contactRemovedMsg:
		m.removing = false
		if msg.err != nil {
			m.alert = fmt.Sprintf("Error deleting contact: %s", contacts.CodeOf(msg.err))
			return m, nil
		}
		return m, m.refresh()

	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.MouseMsg:
		if m.mode != modeList || m.alert != "" {
			return m, nil
		}
		return m.updateMouse(msg)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		// Alert overlay: any key dismisses
		if m.alert != "" {
			m.alert = ""
			return m, nil
		}

		switch m.mode {
		case modeForm:
			return m.updateForm(msg)
		case modeSearch:
			return m.updateSearch(msg)
		case modeDetail:
			return m.updateDetail(msg)
		case modeConfirm:
			return m.updateConfirm(msg)
		default:
			return m.updateList(msg)
		}
	}

	// Forward blink and other input messages to the focused input
	var cmd tea.Cmd
	switch m.mode {
	case modeForm:
		m.form.inputs[m.form.focus], cmd = m.form.inputs[m.form.focus].Update(msg)
	case modeSearch:
		m.search, cmd = m.search.Update(msg)
	}
	return m, cmd
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	keys := ListKeyMap()
	vis := visible(m.items)

	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Up):
		if m.selected > 0 {
			m.selected--
		}

	case key.Matches(msg, keys.Down):
		if m.selected < len(vis)-1 {
			m.selected++
		}

	case key.Matches(msg, keys.Add):
		return m.startCreate()

	case key.Matches(msg, keys.Search):
		m.mode = modeSearch
		m.search.Focus()
		return m, textinput.Blink

	case key.Matches(msg, keys.Refresh):
		return m, m.refresh()

	case key.Matches(msg, keys.Reveal):
		if i, ok := m.current(); ok {
			m.reveal(i)
		}

	case key.Matches(msg, keys.Close):
		m.closeActions()

	case key.Matches(msg, keys.Edit):
		if i, ok := m.current(); ok {
			return m.startEdit(m.items[i].contact)
		}

	case key.Matches(msg, keys.Delete):
		if i, ok := m.current(); ok {
			return m.startDelete(m.items[i].contact)
		}

	case key.Matches(msg, keys.Detail):
		if i, ok := m.current(); ok {
			return m.showDetail(m.items[i].contact)
		}
	}
	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	keys := SearchKeyMap()
	switch {
	case key.Matches(msg, keys.Clear):
		m.search.SetValue("")
		m.search.Blur()
		m.mode = modeList
		applyFilter(m.items, "")
		m.selected = m.ensureValidSelection()
		return m, nil

	case key.Matches(msg, keys.Done):
		m.search.Blur()
		m.mode = modeList
		return m, nil
	}

	// Filter on every keystroke
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	applyFilter(m.items, m.search.Value())
	m.selected = m.ensureValidSelection()
	return m, cmd
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	keys := FormKeyMap()
	switch {
	case key.Matches(msg, keys.Cancel):
		if m.saving {
			return m, nil
		}
		m.closeForm()
		return m, nil

	case key.Matches(msg, keys.Submit):
		return m.submit()

	case msg.Type == tea.KeyEnter:
		if m.form.onLastField() {
			return m.submit()
		}
		m.form.next()
		return m, textinput.Blink

	case key.Matches(msg, keys.Next):
		m.form.next()
		return m, textinput.Blink

	case key.Matches(msg, keys.Prev):
		m.form.prev()
		return m, textinput.Blink
	}

	if m.saving {
		return m, nil
	}

	// Update the active text input
	var cmd tea.Cmd
	m.form.inputs[m.form.focus], cmd = m.form.inputs[m.form.focus].Update(msg)
	return m, cmd
}

func (m Model) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, DismissKeyMap().Dismiss) {
		m.detail = nil
		m.mode = modeList
	}
	return m, nil
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	c := m.confirm
	m.confirm = nil
	m.mode = modeList

	if msg.String() != "y" {
		return m, nil
	}
	m.removing = true
	m.closeActions()
	return m, tea.Batch(removeContact(m.provider, m.timeout, c), m.spinner.Tick)
}

// startCreate opens the form in create mode
func (m Model) startCreate() (tea.Model, tea.Cmd) {
	m.form.reset()
	m.mode = modeForm
	return m, textinput.Blink
}

// startEdit opens the form bound to c
func (m Model) startEdit(c *contacts.Contact) (tea.Model, tea.Cmd) {
	m.form.load(c)
	m.mode = modeForm
	return m, textinput.Blink
}

func (m Model) startDelete(c *contacts.Contact) (tea.Model, tea.Cmd) {
	m.confirm = c
	m.mode = modeConfirm
	return m, nil
}

func (m Model) showDetail(c *contacts.Contact) (tea.Model, tea.Cmd) {
	m.detail = c
	m.mode = modeDetail
	return m, nil
}

// submit validates the form and hands the record to the provider. A second
// submit while a save is in flight is ignored.
func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.saving {
		return m, nil
	}

	var c *contacts.Contact
	if m.form.editing() {
		c = m.form.target
		if err := m.form.apply(c); err != nil {
			m.alert = fmt.Sprintf("Error saving contact: %s", contacts.CodeOf(err))
			return m, nil
		}
	} else {
		var err error
		c, err = m.form.build()
		if err != nil {
			m.alert = fmt.Sprintf("Error saving contact: %s", contacts.CodeOf(err))
			return m, nil
		}
	}

	m.saving = true
	return m, tea.Batch(saveContact(m.provider, m.timeout, c), m.spinner.Tick)
}

func (m *Model) closeForm() {
	m.form.reset()
	m.form.inputs[0].Blur()
	m.mode = modeList
}

// current returns the item index under the selection
func (m Model) current() (int, bool) {
	vis := visible(m.items)
	if len(vis) == 0 || m.selected >= len(vis) {
		return 0, false
	}
	return vis[m.selected], true
}

// selectItem moves the selection to item i when it is visible
func (m *Model) selectItem(i int) {
	for pos, idx := range visible(m.items) {
		if idx == i {
			m.selected = pos
			return
		}
	}
}

// ensureValidSelection ensures the current selection is within bounds
func (m Model) ensureValidSelection() int {
	n := len(visible(m.items))
	if n == 0 {
		return 0
	}
	if m.selected >= n {
		return n - 1
	}
	if m.selected < 0 {
		return 0
	}
	return m.selected
}

// listHeight is the number of rows available for contacts
func (m Model) listHeight() int {
	h := m.height - listTop - 2 // blank line and help
	if h < 1 {
		return 1
	}
	return h
}

// listStart is the first visible position drawn, keeping the selection on screen
func (m Model) listStart() int {
	if m.selected >= m.listHeight() {
		return m.selected - m.listHeight() + 1
	}
	return 0
}

// View renders the UI
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	switch {
	case m.alert != "":
		return m.center(m.renderAlert())
	case m.mode == modeForm:
		return m.center(m.form.render(m.saving, m.spinner.View()))
	case m.mode == modeDetail && m.detail != nil:
		return m.center(m.renderDetail())
	case m.mode == modeConfirm:
		return m.center(m.renderConfirm())
	}

	return lipgloss.JoinVertical(lipgloss.Left, m.renderList(), "", m.renderHelp())
}

// renderList renders the title, search line and contact rows
func (m Model) renderList() string {
	vis := visible(m.items)
	var lines []string

	header := fmt.Sprintf("Contacts (%d)", len(vis))
	if len(vis) != len(m.items) {
		header = fmt.Sprintf("Contacts (%d of %d)", len(vis), len(m.items))
	}
	header = titleStyle.Render(header)
	if m.busy() {
		header += " " + m.spinner.View()
	}
	lines = append(lines, header)

	if m.mode == modeSearch || m.search.Value() != "" {
		lines = append(lines, m.search.View())
	} else {
		lines = append(lines, labelStyle.Render("/ to search"))
	}
	lines = append(lines, strings.Repeat("─", m.width))

	if len(vis) == 0 && !m.loading {
		lines = append(lines, labelStyle.Render("  No contacts"))
	}

	now := m.now()
	start := m.listStart()
	for pos := start; pos < len(vis) && pos < start+m.listHeight(); pos++ {
		i := vis[pos]
		it := m.items[i]
		shift := it.offset / m.cellUnits
		lines = append(lines, renderRow(rowLabel(it.contact, now), m.width, shift, m.open == i, pos == m.selected))
	}

	// Pad so the help line stays at the bottom
	for len(lines) < listTop+m.listHeight() {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

// renderHelp renders the help line for the current mode
func (m Model) renderHelp() string {
	switch m.mode {
	case modeSearch:
		return m.help.View(SearchKeyMap())
	case modeForm:
		return m.help.View(FormKeyMap())
	case modeConfirm:
		return m.help.View(ConfirmKeyMap())
	case modeDetail:
		return m.help.View(DismissKeyMap())
	}
	return m.help.View(ListKeyMap())
}

// renderDetail renders the detail overlay for the selected contact
func (m Model) renderDetail() string {
	c := m.detail
	var lines []string
	lines = append(lines, titleStyle.Render(c.DisplayName))
	lines = append(lines, strings.Repeat("─", 40))
	lines = append(lines, "")

	if phone := c.FirstPhone(); phone != "" {
		lines = append(lines, fmt.Sprintf("Phone:    %s", phone))
	}
	if email := c.FirstEmail(); email != "" {
		lines = append(lines, fmt.Sprintf("Email:    %s", email))
	}
	if c.Birthday != nil {
		bday := c.Birthday.Format("Mon Jan 2 2006")
		if c.IsBirthday(m.now()) {
			bday += " " + giftMarker
		}
		lines = append(lines, fmt.Sprintf("Birthday: %s", bday))
	}
	if len(c.Photos) > 0 {
		lines = append(lines, fmt.Sprintf("Photo:    %s", exchange.PhotoSummary(c.Photos[0])))
	}

	lines = append(lines, "")
	lines = append(lines, labelStyle.Render("esc: close"))

	return borderStyle.
		Padding(1).
		Width(50).
		Render(strings.Join(lines, "\n"))
}

// renderConfirm renders the delete confirmation prompt
func (m Model) renderConfirm() string {
	name := ""
	if m.confirm != nil {
		name = m.confirm.DisplayName
	}
	prompt := fmt.Sprintf("Are you sure you want to delete this contact?\n\n%s\n\n(y/n)", name)

	content := lipgloss.NewStyle().
		Width(52).
		Align(lipgloss.Center).
		Render(prompt)

	return confirmStyle.Padding(1).Render(content)
}

// renderAlert renders the alert box
func (m Model) renderAlert() string {
	content := lipgloss.NewStyle().
		Width(52).
		Align(lipgloss.Center).
		Render(m.alert + "\n\n" + labelStyle.Render("press any key"))
	return alertStyle.Padding(1).Render(content)
}

// center places box in the middle of the screen
func (m Model) center(box string) string {
	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(box)
}
