package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/pdxmph/phonebook/internal/contacts"
)

const (
	giftMarker   = "🎁"
	deleteLabel  = "Delete"
	editLabel    = "Edit"
	actionsLabel = "[" + deleteLabel + "] [" + editLabel + "]"
)

// listTop is the screen row of the first contact: title, search line and
// separator come first.
const listTop = 3

// item is one rendered row. offset is the leftward drag displacement in
// swipe units while a drag is in progress.
type item struct {
	contact *contacts.Contact
	text    string
	hidden  bool
	offset  int
}

// rowText is the full text content of a row, the string search matches
// against: name, birthday marker and the action labels.
func rowText(c *contacts.Contact, now time.Time) string {
	parts := []string{c.DisplayName}
	if c.IsBirthday(now) {
		parts = append(parts, giftMarker)
	}
	parts = append(parts, deleteLabel, editLabel)
	return strings.Join(parts, " ")
}

// buildItems returns a fresh row per contact.
func buildItems(list []*contacts.Contact, now time.Time) []item {
	items := make([]item, len(list))
	for i, c := range list {
		items[i] = item{contact: c, text: rowText(c, now)}
	}
	return items
}

// applyFilter hides every item whose text does not contain query, case
// insensitively. An empty query shows every item.
func applyFilter(items []item, query string) {
	query = strings.ToLower(query)
	for i := range items {
		items[i].hidden = !strings.Contains(strings.ToLower(items[i].text), query)
	}
}

// visible returns the indexes of items that are not hidden, in order.
func visible(items []item) []int {
	var idx []int
	for i, it := range items {
		if !it.hidden {
			idx = append(idx, i)
		}
	}
	return idx
}

// rowLabel is what a row shows before any actions: name and gift marker.
func rowLabel(c *contacts.Contact, now time.Time) string {
	if c.IsBirthday(now) {
		return c.DisplayName + " " + giftMarker
	}
	return c.DisplayName
}

// renderRow renders one row at width cells. A revealed row shows its actions
// at the right edge; a row being dragged is shifted left by shift cells with
// the actions sliding in behind it.
func renderRow(label string, width, shift int, revealed, selected bool) string {
	content := padCells("  "+label, width)

	if revealed {
		head, _ := cutCells(content, width-lipgloss.Width(actionsLabel)-1)
		line := head + " " + deleteStyle.Render("["+deleteLabel+"]") + " " + editStyle.Render("["+editLabel+"]")
		if selected {
			return selectedStyle.Render(head) + line[len(head):]
		}
		return line
	}

	if shift > 0 {
		_, rest := cutCells(content, shift)
		actions, _ := cutCells(actionsLabel, shift)
		line := padCells(rest, width-lipgloss.Width(actions)) + actions
		if selected {
			return selectedStyle.Render(line)
		}
		return line
	}

	if selected {
		return selectedStyle.Render(content)
	}
	return strings.Replace(content, giftMarker, giftStyle.Render(giftMarker), 1)
}

// cutCells splits plain text after n terminal cells.
func cutCells(s string, n int) (head, tail string) {
	if n <= 0 {
		return "", s
	}
	w := 0
	for i, r := range s {
		rw := lipgloss.Width(string(r))
		if w+rw > n {
			return s[:i], s[i:]
		}
		w += rw
	}
	return s, ""
}

// padCells truncates or right-pads plain text to exactly n cells.
func padCells(s string, n int) string {
	head, _ := cutCells(s, n)
	if w := lipgloss.Width(head); w < n {
		head += strings.Repeat(" ", n-w)
	}
	return head
}

// actionAt returns which action label sits at column x of a revealed row of
// the given width, or "".
func actionAt(x, width int) string {
	start := width - lipgloss.Width(actionsLabel)
	switch {
	case x >= start && x < start+len(deleteLabel)+2:
		return deleteLabel
	case x >= width-len(editLabel)-2 && x < width:
		return editLabel
	}
	return ""
}
