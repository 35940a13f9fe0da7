package database

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ericoliveiras/vitrine/internal/session"
)

// SessionStore implementa sessions.Store sobre o gorm. O cookie leva só o
// id assinado; os valores ficam em SessionRecord.
type SessionStore struct {
	db      *gorm.DB
	Codecs  []securecookie.Codec
	Options *sessions.Options
	now     func() time.Time
}

// NewSessionStore segue o formato de keyPairs do sessions.NewCookieStore.
// opts nil usa session.CookieOptions(0, false).
func NewSessionStore(db *gorm.DB, opts *sessions.Options, keyPairs ...[]byte) *SessionStore {
	if opts == nil {
		opts = session.CookieOptions(0, false)
	}
	s := &SessionStore{
		db:      db,
		Codecs:  securecookie.CodecsFromPairs(keyPairs...),
		Options: opts,
		now:     time.Now,
	}
	for _, codec := range s.Codecs {
		if sc, ok := codec.(*securecookie.SecureCookie); ok {
			// Os valores vão para o banco, não para o cookie.
			sc.MaxLength(0)
			if opts.MaxAge > 0 {
				sc.MaxAge(opts.MaxAge)
			}
		}
	}
	return s
}

func (s *SessionStore) Get(r *http.Request, name string) (*sessions.Session, error) {
	return sessions.GetRegistry(r).Get(s, name)
}

func (s *SessionStore) New(r *http.Request, name string) (*sessions.Session, error) {
	session := sessions.NewSession(s, name)
	opts := *s.Options
	session.Options = &opts
	session.IsNew = true

	c, err := r.Cookie(name)
	if err != nil {
		return session, nil
	}
	if err := securecookie.DecodeMulti(name, c.Value, &session.ID, s.Codecs...); err != nil {
		return session, err
	}
	found, err := s.load(r.Context(), session)
	if err != nil {
		return session, err
	}
	session.IsNew = !found
	return session, nil
}

func (s *SessionStore) Save(r *http.Request, w http.ResponseWriter, session *sessions.Session) error {
	ctx := r.Context()
	if session.Options.MaxAge < 0 {
		if session.ID != "" {
			if err := s.db.WithContext(ctx).Delete(&SessionRecord{}, "id = ?", session.ID).Error; err != nil {
				return fmt.Errorf("database: apagar sessão: %w", err)
			}
		}
		http.SetCookie(w, sessions.NewCookie(session.Name(), "", session.Options))
		return nil
	}

	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	data, err := securecookie.EncodeMulti(session.Name(), session.Values, s.Codecs...)
	if err != nil {
		return fmt.Errorf("database: codificar sessão: %w", err)
	}
	ttl := time.Duration(session.Options.MaxAge) * time.Second
	if ttl == 0 {
		// Cookie de sessão do navegador: o registro dura um dia.
		ttl = 24 * time.Hour
	}
	record := SessionRecord{
		ID:        session.ID,
		Data:      data,
		ExpiresAt: s.now().Add(ttl),
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "expires_at", "updated_at"}),
	}).Create(&record).Error
	if err != nil {
		return fmt.Errorf("database: salvar sessão: %w", err)
	}

	encodedID, err := securecookie.EncodeMulti(session.Name(), session.ID, s.Codecs...)
	if err != nil {
		return fmt.Errorf("database: codificar id: %w", err)
	}
	http.SetCookie(w, sessions.NewCookie(session.Name(), encodedID, session.Options))
	return nil
}

// load preenche session.Values. Registro ausente ou vencido devolve false.
func (s *SessionStore) load(ctx context.Context, session *sessions.Session) (bool, error) {
	var record SessionRecord
	err := s.db.WithContext(ctx).
		Where("id = ? AND expires_at > ?", session.ID, s.now()).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("database: carregar sessão: %w", err)
	}
	if err := securecookie.DecodeMulti(session.Name(), record.Data, &session.Values, s.Codecs...); err != nil {
		return false, err
	}
	return true, nil
}

// PurgeExpired apaga as sessões vencidas e devolve quantas foram
// removidas.
func (s *SessionStore) PurgeExpired(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Where("expires_at <= ?", s.now()).Delete(&SessionRecord{})
	if res.Error != nil {
		return 0, fmt.Errorf("database: limpar sessões: %w", res.Error)
	}
	return res.RowsAffected, nil
}
