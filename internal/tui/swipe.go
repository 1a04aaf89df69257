package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// drag tracks a press on a list row until it is released.
type drag struct {
	item   int
	startX int
	moved  bool
}

// displacement converts a pointer position into leftward swipe units.
// Rightward motion yields zero.
func (m Model) displacement(d *drag, x int) int {
	units := (d.startX - x) * m.cellUnits
	if units < 0 {
		return 0
	}
	return units
}

// reveal opens the actions of item i and closes any other open row.
func (m *Model) reveal(i int) {
	m.open = i
}

// closeActions returns every row to its origin.
func (m *Model) closeActions() {
	m.open = -1
}

// itemAtRow maps a screen row to an item index, or -1.
func (m Model) itemAtRow(y int) int {
	vis := visible(m.items)
	row := y - listTop
	if row < 0 || row >= m.listHeight() {
		return -1
	}
	pos := m.listStart() + row
	if pos >= len(vis) {
		return -1
	}
	return vis[pos]
}

func (m Model) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return m, nil
		}
		i := m.itemAtRow(msg.Y)
		if i < 0 {
			return m, nil
		}
		m.selectItem(i)
		m.drag = &drag{item: i, startX: msg.X}
		return m, nil

	case tea.MouseActionMotion:
		if m.drag == nil {
			return m, nil
		}
		if msg.X != m.drag.startX {
			m.drag.moved = true
		}
		m.items[m.drag.item].offset = m.displacement(m.drag, msg.X)
		return m, nil

	case tea.MouseActionRelease:
		if m.drag == nil {
			return m, nil
		}
		d := m.drag
		m.drag = nil
		units := m.displacement(d, msg.X)
		m.items[d.item].offset = 0
		if msg.X != d.startX {
			d.moved = true
		}

		switch {
		case units > m.swipeThreshold:
			m.reveal(d.item)
			return m, nil
		case d.moved:
			// Short swipe snaps back to the origin
			if m.open == d.item {
				m.closeActions()
			}
			return m, nil
		}
		return m.tap(d.item, msg.X)
	}
	return m, nil
}

// tap handles a press and release without movement on item i.
func (m Model) tap(i, x int) (tea.Model, tea.Cmd) {
	if m.open == i {
		switch actionAt(x, m.width) {
		case deleteLabel:
			return m.startDelete(m.items[i].contact)
		case editLabel:
			return m.startEdit(m.items[i].contact)
		}
	}
	return m.showDetail(m.items[i].contact)
}
