// Package tui is the interactive terminal picker: an anatomy tree, the
// phenotype results for the selected term or search, and the selection.
package tui

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kamusis/phenopick/internal/obograph"
	"github.com/kamusis/phenopick/internal/phenodata"
	"github.com/kamusis/phenopick/internal/picker"
)

type focus int

const (
	focusTree focus = iota
	focusResults
	focusSelection
)

type inputMode int

const (
	inputNone inputMode = iota
	inputSearch
	inputFilter
)

// Options configures New.
type Options struct {
	PageSize  int
	Clipboard picker.Clipboard
}

// row is one visible line of the anatomy tree.
type row struct {
	node  *obograph.Node
	depth int
}

type loadedMsg struct {
	bundle *phenodata.Bundle
	err    error
}

// Model is the bubbletea model of the picker.
type Model struct {
	cache *phenodata.Cache
	opts  Options

	spinner spinner.Model
	input   textinput.Model
	mode    inputMode
	focus   focus

	ctrl   *picker.Controller
	err    error
	status string

	expanded     map[string]bool
	rows         []row
	treeCursor   int
	resultCursor int
	selCursor    int
	keep         []string

	width, height int
}

// New returns a model that loads its bundle from cache on start.
func New(cache *phenodata.Cache, opts Options) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	ti := textinput.New()
	ti.Prompt = "/ "
	ti.CharLimit = 200

	return &Model{
		cache:    cache,
		opts:     opts,
		spinner:  s,
		input:    ti,
		expanded: make(map[string]bool),
		width:    120,
		height:   30,
	}
}

// Selection returns the phenotypes selected when the program exited.
func (m *Model) Selection() []phenodata.Phenotype {
	if m.ctrl == nil {
		return nil
	}
	return m.ctrl.Selection()
}

// Err returns the last load error, if the picker never got a bundle.
func (m *Model) Err() error {
	if m.ctrl != nil {
		return nil
	}
	return m.err
}

// Init starts the spinner and the load.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, subscribe(m.cache))
}

// subscribe waits for the cache to publish a bundle.
func subscribe(cache *phenodata.Cache) tea.Cmd {
	return func() tea.Msg {
		ch := make(chan loadedMsg, 1)
		state, _ := cache.Subscribe(func(s phenodata.State, err error) {
			msg := loadedMsg{err: err}
			if l, ok := s.(phenodata.Loaded); ok {
				msg.bundle = l.Bundle
			}
			ch <- msg
		})
		if l, ok := state.(phenodata.Loaded); ok {
			return loadedMsg{bundle: l.Bundle}
		}
		return <-ch
	}
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case spinner.TickMsg:
		if m.ctrl != nil {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case loadedMsg:
		if m.ctrl != nil {
			// a session is attached already; a late message must not replace it
			return m, nil
		}
		if msg.err != nil {
			m.err = msg.err
			m.status = "load failed: " + msg.err.Error() + " (r to retry, q to quit)"
			return m, nil
		}
		m.attach(msg.bundle)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.mode != inputNone {
			return m.updateInput(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

// attach starts a session on b, restoring the selection kept across reloads.
func (m *Model) attach(b *phenodata.Bundle) {
	m.err = nil
	m.ctrl = picker.New(b, picker.Options{
		PageSize:  m.opts.PageSize,
		Clipboard: m.opts.Clipboard,
		OnSelect: func(p phenodata.Phenotype) {
			m.status = fmt.Sprintf("%s  %s  usage %d", p.Node.LocalID(), p.Label(), p.Usage)
		},
	})
	for _, uri := range m.keep {
		_ = m.ctrl.Add(uri)
	}
	m.keep = nil
	m.expanded = map[string]bool{b.Anatomy.Root.URI: true}
	m.treeCursor, m.resultCursor, m.selCursor = 0, 0, 0
	m.rebuildTree()
	m.status = fmt.Sprintf("loaded %d anatomy and %d phenotype terms", b.Anatomy.Len(), len(b.Phenotypes))
}

func (m *Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		m.mode = inputNone
		m.input.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.ctrl != nil {
		switch m.mode {
		case inputSearch:
			m.ctrl.SetQuery(m.input.Value())
		case inputFilter:
			m.ctrl.SetFilter(m.input.Value())
		}
		m.resultCursor = 0
	}
	return m, cmd
}

func (m *Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "q":
		return m, tea.Quit
	case "r":
		return m, m.reload()
	}
	if m.ctrl == nil {
		return m, nil
	}

	switch key {
	case "/":
		return m, m.startInput(inputSearch, "search: ", m.ctrl.Query())
	case "f":
		return m, m.startInput(inputFilter, "filter: ", m.ctrl.Filter())
	case "esc":
		m.ctrl.SetQuery("")
		m.ctrl.SetFilter("")
		m.resultCursor = 0
	case "tab":
		m.focus = (m.focus + 1) % 3
	case "shift+tab":
		m.focus = (m.focus + 2) % 3
	case "up", "k":
		m.move(-1)
	case "down", "j":
		m.move(1)
	case "m":
		m.ctrl.ShowMore()
	case "x":
		m.ctrl.Clear()
		m.selCursor = 0
		m.status = "selection cleared"
	case "Y":
		m.report(m.ctrl.CopyAll(), fmt.Sprintf("copied %d URIs", len(m.ctrl.Selection())))
	default:
		m.paneKey(key)
	}
	return m, nil
}

func (m *Model) paneKey(key string) {
	switch m.focus {
	case focusTree:
		if len(m.rows) == 0 {
			return
		}
		n := m.rows[m.treeCursor].node
		switch key {
		case "right", "l":
			m.expanded[n.URI] = true
			m.rebuildTree()
		case "left", "h":
			delete(m.expanded, n.URI)
			m.rebuildTree()
		case "enter", " ":
			err := m.ctrl.SelectAnatomy(n.URI)
			if errors.Is(err, picker.ErrSearchActive) {
				m.status = "clear the search (esc) to browse by anatomy"
				return
			}
			m.report(err, m.ctrl.Summary())
			m.resultCursor = 0
		}
	case focusResults:
		p, ok := m.currentResult()
		if !ok {
			return
		}
		switch key {
		case "enter", " ":
			m.report(m.ctrl.Highlight(p.URI()), "")
		case "a":
			if m.ctrl.AddPhenotype(p.Phenotype) {
				m.status = "added " + p.Label()
			}
		case "y":
			m.report(m.ctrl.CopyURI(p.URI()), "copied "+p.URI())
		}
	case focusSelection:
		sel := m.ctrl.Selection()
		if len(sel) == 0 {
			return
		}
		p := sel[min(m.selCursor, len(sel)-1)]
		switch key {
		case "d":
			m.ctrl.Remove(p.URI())
			m.selCursor = max(0, min(m.selCursor, len(sel)-2))
			m.status = "removed " + p.Label()
		case "y":
			m.report(m.ctrl.CopyURI(p.URI()), "copied "+p.URI())
		}
	}
}

func (m *Model) startInput(mode inputMode, prompt, value string) tea.Cmd {
	m.mode = mode
	m.input.Prompt = prompt
	m.input.SetValue(value)
	m.input.CursorEnd()
	return m.input.Focus()
}

func (m *Model) reload() tea.Cmd {
	if m.ctrl == nil && m.err == nil {
		return nil
	}
	if m.ctrl != nil {
		if err := m.cache.Invalidate(); err != nil {
			m.status = err.Error()
			return nil
		}
		for _, p := range m.ctrl.Selection() {
			m.keep = append(m.keep, p.URI())
		}
		m.ctrl = nil
	}
	m.err = nil
	m.status = "reloading"
	return tea.Batch(m.spinner.Tick, subscribe(m.cache))
}

func (m *Model) report(err error, ok string) {
	switch {
	case err != nil:
		m.status = err.Error()
	case ok != "":
		m.status = ok
	}
}

func (m *Model) move(delta int) {
	clamp := func(v, n int) int {
		if n == 0 {
			return 0
		}
		return max(0, min(v, n-1))
	}
	switch m.focus {
	case focusTree:
		m.treeCursor = clamp(m.treeCursor+delta, len(m.rows))
	case focusResults:
		m.resultCursor = clamp(m.resultCursor+delta, len(m.ctrl.Visible()))
	case focusSelection:
		m.selCursor = clamp(m.selCursor+delta, len(m.ctrl.Selection()))
	}
}

func (m *Model) currentResult() (picker.Match, bool) {
	vis := m.ctrl.Visible()
	if len(vis) == 0 {
		return picker.Match{}, false
	}
	return vis[min(m.resultCursor, len(vis)-1)], true
}

// rebuildTree flattens the expanded part of the anatomy hierarchy.
func (m *Model) rebuildTree() {
	h := m.ctrl.Bundle().Anatomy
	m.rows = m.rows[:0]
	var walk func(n *obograph.Node, depth int)
	walk = func(n *obograph.Node, depth int) {
		m.rows = append(m.rows, row{node: n, depth: depth})
		if !m.expanded[n.URI] {
			return
		}
		for _, c := range h.Children(n.URI) {
			walk(c, depth+1)
		}
	}
	walk(h.Root, 0)
	if m.treeCursor >= len(m.rows) {
		m.treeCursor = len(m.rows) - 1
	}
}

var (
	spinnerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	subtleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	matchStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	paneStyle     = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
	activePaneStyle = paneStyle.BorderForeground(lipgloss.Color("63"))
)
