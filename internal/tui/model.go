package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"categorydesk/internal/models"
	"categorydesk/internal/services"
)

type mode int

const (
	modeList mode = iota
	modeSearch
	modeAdd
	modeEdit
	modeBulk
	modeConfirmDelete
)

// Model is the terminal category manager. It keeps its own copy of the workspace
// snapshot; service calls only happen inside commands.
type Model struct {
	ctx     context.Context
	service services.CategoryService

	snapshot services.Snapshot
	loading  bool
	busy     bool
	cursor   int
	mode     mode
	search   string

	searchInput textinput.Model
	input       textinput.Model
	bulk        textarea.Model

	editing    *models.Category
	pendingDel *models.Category
	dialogErr  string
	progress   *models.BulkResult
	progressCh chan models.BulkResult

	notice models.Notice
	status string
	width  int
}

func New(ctx context.Context, svc services.CategoryService) Model {
	si := textinput.New()
	si.Placeholder = "Search categories..."
	si.Prompt = "/ "
	si.CharLimit = 128
	si.Width = 40

	ti := textinput.New()
	ti.Placeholder = "Enter category name"
	ti.CharLimit = 256
	ti.Width = 40

	ta := textarea.New()
	ta.Placeholder = "Technology\nBusiness\nEducation\nHealth"
	ta.CharLimit = 0
	ta.ShowLineNumbers = false
	ta.SetWidth(48)
	ta.SetHeight(8)

	return Model{
		ctx:         ctx,
		service:     svc,
		loading:     true,
		mode:        modeList,
		searchInput: si,
		input:       ti,
		bulk:        ta,
		status:      "Loading categories...",
	}
}

// Run starts the program and blocks until the user quits.
func Run(ctx context.Context, svc services.CategoryService, opts ...tea.ProgramOption) error {
	program := tea.NewProgram(New(ctx, svc), opts...)
	_, err := program.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return loadCmd(m.ctx, m.service, false)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.searchInput.Width = max(20, msg.Width-10)
		m.input.Width = max(20, msg.Width-20)
		m.bulk.SetWidth(max(20, msg.Width-16))
		return m, nil

	case loadedMsg:
		m.loading = false
		m.busy = false
		m.snapshot = msg.snapshot
		m.notice = msg.notice
		m.status = ""
		m.cursor = clampCursor(m.cursor, len(m.visible()))
		return m, nil

	case mutationMsg:
		return m.finishMutation(msg)

	case bulkProgressMsg:
		if !m.busy || m.mode != modeBulk {
			return m, nil
		}
		progress := models.BulkResult(msg)
		m.progress = &progress
		return m, waitForProgress(m.progressCh)

	case bulkDoneMsg:
		return m.finishBulk(msg)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.busy || m.loading {
			return m, nil
		}
		switch m.mode {
		case modeSearch:
			return m.updateSearchMode(msg)
		case modeAdd, modeEdit:
			return m.updateNameDialog(msg)
		case modeBulk:
			return m.updateBulkDialog(msg)
		case modeConfirmDelete:
			return m.updateDeleteConfirm(msg.String())
		default:
			return m.updateListMode(msg.String())
		}
	}
	return m, nil
}

func (m Model) updateListMode(key string) (tea.Model, tea.Cmd) {
	visible := m.visible()

	switch key {
	case "q":
		return m, tea.Quit
	case "down", "j":
		m.cursor = clampCursor(m.cursor+1, len(visible))
	case "up", "k":
		m.cursor = clampCursor(m.cursor-1, len(visible))
	case "/":
		m.mode = modeSearch
		m.searchInput.SetValue(m.search)
		m.searchInput.CursorEnd()
		m.searchInput.Focus()
		m.status = "Type to filter, enter to keep, esc to clear"
	case "esc":
		if m.search != "" {
			m.search = ""
			m.cursor = clampCursor(m.cursor, len(m.visible()))
			m.status = "Search cleared"
		}
	case "a":
		return m.openNameDialog(modeAdd, nil), nil
	case "b":
		m.mode = modeBulk
		m.dialogErr = ""
		m.progress = nil
		m.bulk.SetValue("")
		m.bulk.Focus()
		m.status = "One name per line, ctrl+s to create, esc to cancel"
	case "e", "enter":
		if len(visible) == 0 {
			m.status = "No categories to edit"
			return m, nil
		}
		category := visible[m.cursor]
		return m.openNameDialog(modeEdit, &category), nil
	case "d":
		if len(visible) == 0 {
			m.status = "No categories to delete"
			return m, nil
		}
		category := visible[m.cursor]
		m.pendingDel = &category
		m.mode = modeConfirmDelete
		m.status = fmt.Sprintf("Delete %q? Are you sure you want to delete this category? y/n", category.Name)
	case "r":
		m.loading = true
		m.status = "Retrying connection..."
		return m, loadCmd(m.ctx, m.service, true)
	}
	return m, nil
}

func (m Model) updateSearchMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.search = ""
		m.searchInput.SetValue("")
		m.searchInput.Blur()
		m.mode = modeList
		m.status = "Search cleared"
		m.cursor = clampCursor(m.cursor, len(m.visible()))
		return m, nil
	case "enter":
		m.searchInput.Blur()
		m.mode = modeList
		m.status = ""
		return m, nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	m.search = m.searchInput.Value()
	m.cursor = clampCursor(m.cursor, len(m.visible()))
	return m, cmd
}

func (m Model) openNameDialog(next mode, category *models.Category) Model {
	m.mode = next
	m.editing = category
	m.dialogErr = ""
	m.input.SetValue("")
	if category != nil {
		m.input.SetValue(category.Name)
		m.input.CursorEnd()
	}
	m.input.Focus()
	m.status = "enter to save, esc to cancel"
	return m
}

func (m Model) updateNameDialog(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m.closeDialog("Cancelled"), nil
	case "enter":
		m.busy = true
		name := m.input.Value()
		if m.mode == modeEdit && m.editing != nil {
			return m, renameCmd(m.ctx, m.service, m.editing.ID, name)
		}
		return m, createCmd(m.ctx, m.service, name)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateBulkDialog(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m.closeDialog("Cancelled"), nil
	case "ctrl+s":
		raw := m.bulk.Value()
		m.busy = true
		m.dialogErr = ""
		m.progress = &models.BulkResult{Total: len(services.ParseBulkNames(raw))}
		m.progressCh = make(chan models.BulkResult, max(1, m.progress.Total))
		return m, tea.Batch(
			bulkCmd(m.ctx, m.service, raw, m.progressCh),
			waitForProgress(m.progressCh),
		)
	}

	var cmd tea.Cmd
	m.bulk, cmd = m.bulk.Update(msg)
	return m, cmd
}

func (m Model) updateDeleteConfirm(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "y", "Y":
		if m.pendingDel == nil {
			m.mode = modeList
			return m, nil
		}
		m.busy = true
		return m, deleteCmd(m.ctx, m.service, m.pendingDel.ID)
	case "n", "N", "esc":
		m.pendingDel = nil
		m.mode = modeList
		m.status = "Delete cancelled"
	}
	return m, nil
}

func (m Model) finishMutation(msg mutationMsg) (tea.Model, tea.Cmd) {
	m.busy = false
	m.snapshot = msg.snapshot

	if msg.err != nil && (m.mode == modeAdd || m.mode == modeEdit) && !errors.Is(msg.err, services.ErrNotFound) {
		// Keep the dialog and the typed name so the user can try again.
		if errors.Is(msg.err, services.ErrNameRequired) {
			m.dialogErr = msg.notice.Description
		} else {
			m.dialogErr = ""
			m.notice = msg.notice
		}
		return m, nil
	}

	m.notice = msg.notice
	m = m.closeDialog("")
	m.cursor = clampCursor(m.cursor, len(m.visible()))
	return m, nil
}

func (m Model) finishBulk(msg bulkDoneMsg) (tea.Model, tea.Cmd) {
	m.busy = false
	m.snapshot = msg.snapshot
	m.notice = msg.notice

	switch {
	case errors.Is(msg.err, services.ErrNoNames):
		m.dialogErr = msg.notice.Description
		m.notice = models.Notice{}
		m.progress = nil
	case len(msg.result.Failed) > 0:
		result := msg.result
		m.progress = &result
		m.bulk.SetValue(strings.Join(result.Failed, "\n"))
	default:
		m = m.closeDialog("")
	}
	m.cursor = clampCursor(m.cursor, len(m.visible()))
	return m, nil
}

func (m Model) closeDialog(status string) Model {
	m.mode = modeList
	m.editing = nil
	m.pendingDel = nil
	m.dialogErr = ""
	m.progress = nil
	m.progressCh = nil
	m.input.SetValue("")
	m.input.Blur()
	m.bulk.SetValue("")
	m.bulk.Blur()
	m.status = status
	return m
}

// visible is the filtered list the cursor moves over.
func (m Model) visible() []models.Category {
	return services.Filter(m.snapshot.Categories, m.search)
}

func clampCursor(cursor, length int) int {
	if length == 0 || cursor < 0 {
		return 0
	}
	if cursor >= length {
		return length - 1
	}
	return cursor
}
