package sessions

import (
	"encoding/gob"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	gsessions "github.com/gorilla/sessions"
	"github.com/rs/zerolog/log"

	"categorydesk/internal/models"
)

const (
	cookieName   = "categorydesk"
	workspaceKey = "workspace_id"
)

func init() {
	gob.Register(models.Notice{})
}

// Store wraps the cookie store that carries the workspace id and pending notices.
type Store struct {
	cookies *gsessions.CookieStore
}

// NewStore creates a cookie store signed with secret. Without a secret a random key is
// generated, so sessions do not survive a restart.
func NewStore(secret string) *Store {
	key := []byte(secret)
	if secret == "" {
		log.Warn().Msg("SESSION_SECRET is not set, using a random session key")
		key = securecookie.GenerateRandomKey(32)
	}

	cookies := gsessions.NewCookieStore(key)
	cookies.Options = &gsessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return &Store{cookies: cookies}
}

// Session is the caller's cookie session for one request.
type Session struct {
	raw         *gsessions.Session
	WorkspaceID string
}

// Open loads the caller's session. A missing or tampered cookie yields a fresh session
// with a new workspace id.
func (s *Store) Open(r *http.Request) *Session {
	raw, err := s.cookies.Get(r, cookieName)
	if err != nil {
		log.Debug().Err(err).Msg("Discarding unreadable session cookie")
	}

	id, _ := raw.Values[workspaceKey].(string)
	if id == "" {
		id = uuid.NewString()
		raw.Values[workspaceKey] = id
	}
	return &Session{raw: raw, WorkspaceID: id}
}

func (s *Session) AddNotice(notice models.Notice) {
	if notice.IsZero() {
		return
	}
	s.raw.AddFlash(notice)
}

// Notices pops the pending notices.
func (s *Session) Notices() []models.Notice {
	var notices []models.Notice
	for _, flash := range s.raw.Flashes() {
		if notice, ok := flash.(models.Notice); ok {
			notices = append(notices, notice)
		}
	}
	return notices
}

func (s *Session) Save(w http.ResponseWriter, r *http.Request) error {
	return s.raw.Save(r, w)
}
