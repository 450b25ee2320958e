// Package picker is the category filter view: the built-in categories,
// then the user's own, with an inline input to add more.
package picker

import (
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/CrestNiraj12/commonswipe/domain"
	"github.com/CrestNiraj12/commonswipe/tui/common"
)

// --- Messages ---

// SelectedMsg is sent when the user picks a category.
type SelectedMsg struct {
	Category domain.Category
}

// BackMsg is sent when the user leaves the picker without choosing.
type BackMsg struct{}

type editedMsg struct {
	path string
	err  error
}

// Prefs is the category store the picker edits. Implemented by prefs.Store.
type Prefs interface {
	All() []domain.Category
	IsCustom(c domain.Category) bool
	AddCustom(c domain.Category) (bool, error)
	RemoveCustom(c domain.Category) (bool, error)
	Catalog() domain.Catalog
}

// Editor edits the custom list outside the TUI. Implemented by
// editor.EnvEditor.
type Editor interface {
	Cmd(categories []domain.Category) (*exec.Cmd, string, error)
	ReadCategories(path string) ([]domain.Category, error)
}

type categoryItem struct {
	key      domain.Category
	name     string
	custom   bool
	selected bool
}

func (i categoryItem) FilterValue() string { return i.name }

type delegate struct{}

func (delegate) Height() int                             { return 1 }
func (delegate) Spacing() int                            { return 0 }
func (delegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (delegate) Render(w io.Writer, m list.Model, index int, li list.Item) {
	it, ok := li.(categoryItem)
	if !ok {
		return
	}
	label := it.name
	if it.selected {
		label = "✓ " + label
	} else {
		label = "  " + label
	}
	if it.custom {
		label += common.FilterBadgeStyle.Render("custom")
	}
	style := common.ActionInactiveStyle
	if index == m.Index() {
		style = common.ActionActiveStyle
	}
	fmt.Fprint(w, style.Render(label))
}

// --- Model ---

// Model holds the state of the category picker.
type Model struct {
	prefs    Prefs
	editor   Editor
	list     list.Model
	input    textinput.Model
	adding   bool
	keys     common.KeyMap
	selected domain.Category
	status   string
	err      error
}

// New creates a picker over prefs. editor may be nil.
func New(prefs Prefs, editor Editor) Model {
	l := list.New(nil, delegate{}, 40, 12)
	l.Title = "Categories"
	l.Styles.Title = common.AppTitleStyle
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.DisableQuitKeybindings()

	in := textinput.New()
	in.Placeholder = "Category name, e.g. Lighthouses in Norway"
	in.Prompt = "+ "
	in.CharLimit = 200

	return Model{
		prefs:  prefs,
		editor: editor,
		list:   l,
		input:  in,
		keys:   common.DefaultKeyMap(),
	}
}

// Open refreshes the list and highlights selected.
func (m *Model) Open(selected domain.Category) {
	m.selected = selected
	m.adding = false
	m.input.Blur()
	m.status, m.err = "", nil
	m.reload(selected)
}

// SetSize sets the area available to the view.
func (m *Model) SetSize(width, height int) {
	m.input.Width = max(width-4, 10)
	// Title, blank line, input and status.
	m.list.SetSize(width, max(height-4, 3))
}

// Adding reports whether the inline input has focus.
func (m Model) Adding() bool { return m.adding }

// Cursor returns the highlighted category.
func (m Model) Cursor() (domain.Category, bool) {
	it, ok := m.list.SelectedItem().(categoryItem)
	return it.key, ok
}

func (m *Model) reload(focus domain.Category) {
	catalog := m.prefs.Catalog()
	all := m.prefs.All()
	items := make([]list.Item, 0, len(all))
	cursor := 0
	for i, c := range all {
		items = append(items, categoryItem{
			key:      c,
			name:     catalog.DisplayName(c),
			custom:   m.prefs.IsCustom(c),
			selected: c == m.selected,
		})
		if c == focus {
			cursor = i
		}
	}
	m.list.SetItems(items)
	m.list.Select(cursor)
}

// Update handles key input.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(editedMsg); ok {
		m.applyEdit(msg)
		return m, nil
	}
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		if m.adding {
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}
	if m.adding {
		return m.updateAdding(keyMsg)
	}

	switch {
	case key.Matches(keyMsg, m.keys.Choose):
		cat, ok := m.Cursor()
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg { return SelectedMsg{Category: cat} }

	case key.Matches(keyMsg, m.keys.Back):
		return m, func() tea.Msg { return BackMsg{} }

	case key.Matches(keyMsg, m.keys.Add):
		m.adding = true
		m.status, m.err = "", nil
		m.input.SetValue("")
		return m, m.input.Focus()

	case key.Matches(keyMsg, m.keys.Remove):
		m.remove()
		return m, nil

	case key.Matches(keyMsg, m.keys.Edit):
		return m, m.openEditor()
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) updateAdding(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.adding = false
		m.input.Blur()
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		m.adding = false
		m.input.Blur()
		cat := domain.Category(m.input.Value()).Normalize()
		if cat == "" {
			return m, nil
		}
		added, err := m.prefs.AddCustom(cat)
		m.reload(cat)
		switch {
		case err != nil:
			// Kept for this session even when saving failed.
			m.status, m.err = "", err
		case added:
			m.status, m.err = "Added "+m.prefs.Catalog().DisplayName(cat), nil
		default:
			m.status, m.err = m.prefs.Catalog().DisplayName(cat)+" is already listed", nil
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) remove() {
	cat, ok := m.Cursor()
	if !ok {
		return
	}
	if !m.prefs.IsCustom(cat) {
		m.status, m.err = "Built-in categories can't be removed", nil
		return
	}
	idx := m.list.Index()
	if _, err := m.prefs.RemoveCustom(cat); err != nil {
		m.err = err
	} else {
		m.status, m.err = "Removed "+m.prefs.Catalog().DisplayName(cat), nil
	}
	m.reload("")
	if n := len(m.list.Items()); n > 0 {
		m.list.Select(min(idx, n-1))
	}
}

func (m *Model) openEditor() tea.Cmd {
	if m.editor == nil {
		return nil
	}
	cmd, path, err := m.editor.Cmd(m.customs())
	if err != nil {
		m.err = err
		return nil
	}
	return tea.ExecProcess(cmd, func(err error) tea.Msg {
		return editedMsg{path: path, err: err}
	})
}

func (m Model) customs() []domain.Category {
	var out []domain.Category
	for _, c := range m.prefs.All() {
		if m.prefs.IsCustom(c) {
			out = append(out, c)
		}
	}
	return out
}

// applyEdit makes the custom list match the edited file.
func (m *Model) applyEdit(msg editedMsg) {
	if m.editor == nil {
		return
	}
	edited, err := m.editor.ReadCategories(msg.path)
	if msg.err != nil {
		m.err = fmt.Errorf("editor: %w", msg.err)
		return
	}
	if err != nil {
		m.err = err
		return
	}

	keep := make(map[domain.Category]bool, len(edited))
	for _, c := range edited {
		keep[c] = true
	}
	var added, removed int
	for _, c := range m.customs() {
		if keep[c] {
			continue
		}
		if ok, err := m.prefs.RemoveCustom(c); err != nil {
			m.err = err
		} else if ok {
			removed++
		}
	}
	for _, c := range edited {
		if ok, err := m.prefs.AddCustom(c); err != nil {
			m.err = err
		} else if ok {
			added++
		}
	}
	cur, _ := m.Cursor()
	m.reload(cur)
	if m.err == nil {
		m.status = fmt.Sprintf("Custom list saved: %d added, %d removed", added, removed)
	}
}

// View renders the picker.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.list.View())
	b.WriteString("\n\n")
	if m.adding {
		b.WriteString(m.input.View())
	} else {
		b.WriteString(common.MetadataStyle.Render("a add · d remove custom · e edit list · enter show · b back"))
	}
	b.WriteString("\n")
	switch {
	case m.err != nil:
		b.WriteString(common.ErrorStyle.Render("Error: " + m.err.Error()))
	case m.status != "":
		b.WriteString(common.SuccessStyle.Render(m.status))
	}
	return b.String()
}
