package handlers

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"categorydesk/internal/models"
	"categorydesk/internal/services"
	"categorydesk/internal/sessions"
	"categorydesk/internal/utils"
)

const (
	dialogAdd     = "add"
	dialogBulk    = "bulk"
	dialogEdit    = "edit"
	dialogConfirm = "confirm"
)

// PageHandler renders the category management page and handles its forms.
type PageHandler struct {
	registry  *sessions.Registry
	store     *sessions.Store
	monitor   *services.Monitor
	templates *template.Template
}

func NewPageHandler(registry *sessions.Registry, store *sessions.Store, monitor *services.Monitor) (*PageHandler, error) {
	tmpl, err := parseTemplates()
	if err != nil {
		return nil, err
	}
	return &PageHandler{
		registry:  registry,
		store:     store,
		monitor:   monitor,
		templates: tmpl,
	}, nil
}

type categoryRow struct {
	ID        int64
	Segments  []services.Segment
	EditURL   string
	DeleteURL string
}

type pageView struct {
	Demo     bool
	Banner   string
	APIBack  bool
	Query    string
	Summary  string
	Total    int
	Rows     []categoryRow
	Notices  []models.Notice
	Dialog   string
	Input    string
	Error    string
	Target   *models.Category
	Bulk     *models.BulkResult
	HomeURL  string
	AddURL   string
	BulkURL  string
	ClearURL string
}

// dialogState carries a dialog that has to be shown again after a POST.
type dialogState struct {
	Dialog string
	Input  string
	Error  string
	Target *models.Category
	Bulk   *models.BulkResult
}

func (h *PageHandler) Index(w http.ResponseWriter, r *http.Request) {
	sess, svc := h.workspace(r)
	query := r.URL.Query()
	term := query.Get("q")
	snap := svc.Snapshot()

	var state dialogState
	switch query.Get("dialog") {
	case dialogAdd:
		state.Dialog = dialogAdd
	case dialogBulk:
		state.Dialog = dialogBulk
	case dialogEdit:
		if category, ok := findCategory(snap.Categories, query.Get("id")); ok {
			state = dialogState{Dialog: dialogEdit, Input: category.Name, Target: &category}
		}
	}
	if raw := query.Get("confirm"); raw != "" {
		if category, ok := findCategory(snap.Categories, raw); ok {
			state = dialogState{Dialog: dialogConfirm, Target: &category}
		}
	}

	h.render(w, r, sess, snap, term, state, http.StatusOK)
}

func (h *PageHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	sess, svc := h.workspace(r)
	name := r.PostFormValue("name")
	term := r.PostFormValue("q")

	_, notice, err := svc.Create(r.Context(), name)
	switch {
	case errors.Is(err, services.ErrNameRequired):
		h.render(w, r, sess, svc.Snapshot(), term, dialogState{Dialog: dialogAdd, Input: name, Error: notice.Description}, http.StatusUnprocessableEntity)
		return
	case err != nil:
		// The API refused the request: keep the dialog and what was typed.
		sess.AddNotice(notice)
		h.render(w, r, sess, svc.Snapshot(), term, dialogState{Dialog: dialogAdd, Input: name}, http.StatusBadGateway)
		return
	}

	sess.AddNotice(notice)
	h.redirect(w, r, sess, term)
}

func (h *PageHandler) BulkCreateCategories(w http.ResponseWriter, r *http.Request) {
	sess, svc := h.workspace(r)
	raw := r.PostFormValue("names")
	term := r.PostFormValue("q")

	result, notice, err := svc.BulkCreate(r.Context(), raw, nil)
	if errors.Is(err, services.ErrNoNames) {
		h.render(w, r, sess, svc.Snapshot(), term, dialogState{Dialog: dialogBulk, Input: raw, Error: notice.Description}, http.StatusUnprocessableEntity)
		return
	}

	if len(result.Failed) > 0 {
		// The failed names stay in the textarea so they can be submitted again.
		sess.AddNotice(notice)
		state := dialogState{Dialog: dialogBulk, Input: strings.Join(result.Failed, "\n"), Bulk: &result}
		h.render(w, r, sess, svc.Snapshot(), term, state, http.StatusOK)
		return
	}

	sess.AddNotice(notice)
	h.redirect(w, r, sess, term)
}

func (h *PageHandler) RenameCategory(w http.ResponseWriter, r *http.Request) {
	sess, svc := h.workspace(r)
	term := r.PostFormValue("q")
	name := r.PostFormValue("name")

	id, err := utils.ParseID(pathID(r))
	if err != nil {
		http.Error(w, "Invalid ID format", http.StatusBadRequest)
		return
	}

	_, notice, err := svc.Rename(r.Context(), id, name)
	if err != nil && !errors.Is(err, services.ErrNotFound) {
		snap := svc.Snapshot()
		state := dialogState{Dialog: dialogEdit, Input: name}
		if category, ok := findCategory(snap.Categories, strconv.FormatInt(id, 10)); ok {
			state.Target = &category
		}
		status := http.StatusBadGateway
		if errors.Is(err, services.ErrNameRequired) {
			state.Error = notice.Description
			status = http.StatusUnprocessableEntity
		} else {
			sess.AddNotice(notice)
		}
		h.render(w, r, sess, snap, term, state, status)
		return
	}

	sess.AddNotice(notice)
	h.redirect(w, r, sess, term)
}

func (h *PageHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	sess, svc := h.workspace(r)
	term := r.PostFormValue("q")

	id, err := utils.ParseID(pathID(r))
	if err != nil {
		http.Error(w, "Invalid ID format", http.StatusBadRequest)
		return
	}

	confirmed := r.PostFormValue("confirm") == "yes"
	notice, err := svc.Delete(r.Context(), id, func(models.Category) bool { return confirmed })
	if errors.Is(err, services.ErrDeclined) {
		log.Debug().Int64("category_id", id).Msg("Delete declined from the web page")
	}

	sess.AddNotice(notice)
	h.redirect(w, r, sess, term)
}

func (h *PageHandler) Retry(w http.ResponseWriter, r *http.Request) {
	sess, svc := h.workspace(r)
	term := r.PostFormValue("q")

	notice := svc.Retry(r.Context())
	if notice.IsZero() {
		notice = models.Notice{Title: "Connected", Description: "Connected to the categories API.", Variant: models.VariantDefault}
	}

	sess.AddNotice(notice)
	h.redirect(w, r, sess, term)
}

// workspace resolves the caller's CategoryService, loading it on first use.
func (h *PageHandler) workspace(r *http.Request) (*sessions.Session, services.CategoryService) {
	sess := h.store.Open(r)
	svc, created := h.registry.Get(sess.WorkspaceID)
	if created || !svc.Snapshot().Loaded {
		// A dropped browser connection must not push the workspace into demo mode.
		sess.AddNotice(svc.Load(context.WithoutCancel(r.Context())))
	}
	return sess, svc
}

func (h *PageHandler) redirect(w http.ResponseWriter, r *http.Request, sess *sessions.Session, term string) {
	if err := sess.Save(w, r); err != nil {
		log.Error().Err(err).Msg("Failed to save session")
	}
	http.Redirect(w, r, pageURL(term), http.StatusSeeOther)
}

func (h *PageHandler) render(w http.ResponseWriter, r *http.Request, sess *sessions.Session, snap services.Snapshot, term string, state dialogState, status int) {
	view := buildView(snap, term)
	view.Notices = sess.Notices()
	view.Dialog = state.Dialog
	view.Input = state.Input
	view.Error = state.Error
	view.Target = state.Target
	view.Bulk = state.Bulk
	if h.monitor != nil && snap.Demo() {
		reachable, checked := h.monitor.Reachable()
		view.APIBack = reachable && checked
	}

	if err := sess.Save(w, r); err != nil {
		log.Error().Err(err).Msg("Failed to save session")
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.templates.ExecuteTemplate(w, "index.gohtml", view); err != nil {
		log.Error().Err(err).Msg("Failed to render page")
	}
}

func buildView(snap services.Snapshot, term string) pageView {
	shown := services.Filter(snap.Categories, term)

	rows := make([]categoryRow, 0, len(shown))
	for _, c := range shown {
		id := strconv.FormatInt(c.ID, 10)
		rows = append(rows, categoryRow{
			ID:        c.ID,
			Segments:  services.Highlight(c.Name, term),
			EditURL:   pageURL(term, "dialog", dialogEdit, "id", id),
			DeleteURL: pageURL(term, "confirm", id),
		})
	}

	return pageView{
		Demo:     snap.Demo(),
		Banner:   snap.Banner,
		Query:    term,
		Summary:  services.Summarize(len(shown), len(snap.Categories), term),
		Total:    len(snap.Categories),
		Rows:     rows,
		HomeURL:  pageURL(term),
		AddURL:   pageURL(term, "dialog", dialogAdd),
		BulkURL:  pageURL(term, "dialog", dialogBulk),
		ClearURL: "/",
	}
}

// pageURL builds a link to the page that keeps the search term. pairs are key, value.
func pageURL(term string, pairs ...string) string {
	values := url.Values{}
	if term != "" {
		values.Set("q", term)
	}
	for i := 0; i+1 < len(pairs); i += 2 {
		values.Set(pairs[i], pairs[i+1])
	}
	if len(values) == 0 {
		return "/"
	}
	return "/?" + values.Encode()
}

func pathID(r *http.Request) string {
	return mux.Vars(r)["id"]
}

func findCategory(categories []models.Category, raw string) (models.Category, bool) {
	id, err := utils.ParseID(raw)
	if err != nil {
		return models.Category{}, false
	}
	for _, c := range categories {
		if c.ID == id {
			return c, true
		}
	}
	return models.Category{}, false
}
