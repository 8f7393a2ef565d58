package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"categorydesk/internal/models"
	"categorydesk/internal/services"
)

type loadedMsg struct {
	snapshot services.Snapshot
	notice   models.Notice
}

type mutationMsg struct {
	snapshot services.Snapshot
	notice   models.Notice
	err      error
}

type bulkProgressMsg models.BulkResult

type bulkDoneMsg struct {
	snapshot services.Snapshot
	result   models.BulkResult
	notice   models.Notice
	err      error
}

func loadCmd(ctx context.Context, svc services.CategoryService, retry bool) tea.Cmd {
	return func() tea.Msg {
		var notice models.Notice
		if retry {
			notice = svc.Retry(ctx)
		} else {
			notice = svc.Load(ctx)
		}
		return loadedMsg{snapshot: svc.Snapshot(), notice: notice}
	}
}

func createCmd(ctx context.Context, svc services.CategoryService, name string) tea.Cmd {
	return func() tea.Msg {
		_, notice, err := svc.Create(ctx, name)
		return mutationMsg{snapshot: svc.Snapshot(), notice: notice, err: err}
	}
}

func renameCmd(ctx context.Context, svc services.CategoryService, id int64, name string) tea.Cmd {
	return func() tea.Msg {
		_, notice, err := svc.Rename(ctx, id, name)
		return mutationMsg{snapshot: svc.Snapshot(), notice: notice, err: err}
	}
}

// deleteCmd runs after the y/n prompt has been answered with yes.
func deleteCmd(ctx context.Context, svc services.CategoryService, id int64) tea.Cmd {
	return func() tea.Msg {
		notice, err := svc.Delete(ctx, id, services.Confirmed)
		return mutationMsg{snapshot: svc.Snapshot(), notice: notice, err: err}
	}
}

// bulkCmd creates the names one by one and reports progress on ch, which it closes when done.
// ch must be able to buffer one update per name.
func bulkCmd(ctx context.Context, svc services.CategoryService, raw string, ch chan<- models.BulkResult) tea.Cmd {
	return func() tea.Msg {
		result, notice, err := svc.BulkCreate(ctx, raw, func(progress models.BulkResult) {
			ch <- progress
		})
		close(ch)
		return bulkDoneMsg{snapshot: svc.Snapshot(), result: result, notice: notice, err: err}
	}
}

func waitForProgress(ch <-chan models.BulkResult) tea.Cmd {
	return func() tea.Msg {
		progress, ok := <-ch
		if !ok {
			return nil
		}
		return bulkProgressMsg(progress)
	}
}
