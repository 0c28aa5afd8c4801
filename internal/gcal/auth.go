package gcal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	calendar "google.golang.org/api/calendar/v3"
)

// TokenStore persists the OAuth token between runs so the interactive
// authorization happens once.
type TokenStore interface {
	Load() (*oauth2.Token, error)
	Save(tok *oauth2.Token) error
}

// FileTokenStore keeps the token as JSON on disk.
type FileTokenStore struct {
	Path string
}

func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{Path: path}
}

func (s *FileTokenStore) Load() (*oauth2.Token, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("gcal: read token file: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("gcal: decode token file: %w", err)
	}
	return &tok, nil
}

func (s *FileTokenStore) Save(tok *oauth2.Token) error {
	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("gcal: encode token: %w", err)
	}
	if err := os.WriteFile(s.Path, data, 0o600); err != nil {
		return fmt.Errorf("gcal: write token file: %w", err)
	}
	return nil
}

// LoadCredentials reads an installed-app OAuth client secret file and
// returns the config scoped to calendar access.
func LoadCredentials(path string) (*oauth2.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("gcal: read credentials file: %w", err)
	}
	conf, err := google.ConfigFromJSON(data, calendar.CalendarScope)
	if err != nil {
		return nil, fmt.Errorf("gcal: parse credentials file: %w", err)
	}
	return conf, nil
}

// AuthorizeFunc obtains an authorization code for the given consent URL,
// typically by prompting the operator.
type AuthorizeFunc func(authURL string) (code string, err error)

// TokenSource returns a token source backed by the store. When the store
// holds no usable token the authorize callback runs once and the exchanged
// token is saved; refreshed tokens are saved as they appear.
func TokenSource(ctx context.Context, conf *oauth2.Config, store TokenStore, authorize AuthorizeFunc) (oauth2.TokenSource, error) {
	tok, err := store.Load()
	if err != nil || (!tok.Valid() && tok.RefreshToken == "") {
		if authorize == nil {
			return nil, errors.New("gcal: no stored token and no authorization callback")
		}
		code, err := authorize(conf.AuthCodeURL("state-token", oauth2.AccessTypeOffline))
		if err != nil {
			return nil, fmt.Errorf("gcal: authorize: %w", err)
		}
		tok, err = conf.Exchange(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("gcal: exchange authorization code: %w", err)
		}
		if err := store.Save(tok); err != nil {
			return nil, err
		}
	}
	return &savingTokenSource{
		src:   conf.TokenSource(ctx, tok),
		store: store,
		last:  tok,
	}, nil
}

// savingTokenSource persists tokens whenever the wrapped source refreshes
// them, keeping the refresh transparent to the pipeline.
type savingTokenSource struct {
	mu    sync.Mutex
	src   oauth2.TokenSource
	store TokenStore
	last  *oauth2.Token
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tok, err := s.src.Token()
	if err != nil {
		return nil, err
	}
	if s.last == nil || tok.AccessToken != s.last.AccessToken {
		if err := s.store.Save(tok); err != nil {
			return nil, err
		}
		s.last = tok
	}
	return tok, nil
}
