// Package credentials keeps the OAuth client secret and user token on disk.
package credentials

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"

	"github.com/eriksjaastad/mcp-mail-math/internal/logger"
)

// Scopes requested for the mailbox.
var Scopes = []string{gmail.GmailModifyScope}

// ErrNoToken means the token file is missing or unusable and Authorize must run.
var ErrNoToken = errors.New("no stored token")

// Store provides the client secret and token files.
type Store struct {
	CredsPath string
	TokenPath string
}

func NewStore(credsPath, tokenPath string) *Store {
	return &Store{CredsPath: credsPath, TokenPath: tokenPath}
}

// Config reads the OAuth client secret file downloaded from the Cloud console.
func (s *Store) Config() (*oauth2.Config, error) {
	b, err := os.ReadFile(s.CredsPath)
	if err != nil {
		return nil, errors.Wrapf(err, "read client secret %s", s.CredsPath)
	}
	cfg, err := google.ConfigFromJSON(b, Scopes...)
	if err != nil {
		return nil, errors.Wrapf(err, "parse client secret %s", s.CredsPath)
	}
	return cfg, nil
}

// storedToken accepts both oauth2.Token JSON and the authorized-user layout
// written by Google's Python client ("token" and an RFC 3339 "expiry").
type storedToken struct {
	AccessToken  string    `json:"access_token"`
	Token        string    `json:"token"`
	TokenType    string    `json:"token_type"`
	RefreshToken string    `json:"refresh_token"`
	Expiry       time.Time `json:"expiry"`
}

func (s *Store) LoadToken() (*oauth2.Token, error) {
	b, err := os.ReadFile(s.TokenPath)
	if os.IsNotExist(err) {
		return nil, errors.Wrapf(ErrNoToken, "%s does not exist", s.TokenPath)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read token %s", s.TokenPath)
	}

	var st storedToken
	if err := json.Unmarshal(b, &st); err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "token file %s is invalid", s.TokenPath), ErrNoToken)
	}
	tok := &oauth2.Token{
		AccessToken:  st.AccessToken,
		TokenType:    st.TokenType,
		RefreshToken: st.RefreshToken,
		Expiry:       st.Expiry,
	}
	if tok.AccessToken == "" {
		tok.AccessToken = st.Token
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, errors.Wrapf(ErrNoToken, "token file %s holds no token", s.TokenPath)
	}
	return tok, nil
}

// SaveToken writes the token atomically: temp file in the same directory, then rename.
func (s *Store) SaveToken(tok *oauth2.Token) error {
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode token")
	}

	dir := filepath.Dir(s.TokenPath)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return errors.Wrapf(err, "create %s", dir)
	}
	tmpFile, err := os.CreateTemp(dir, ".tmp-token-*")
	if err != nil {
		return errors.Wrap(err, "create temp token file")
	}
	tmpName := tmpFile.Name()
	defer os.Remove(tmpName)

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return errors.Wrap(err, "write token")
	}
	if err := tmpFile.Close(); err != nil {
		return errors.Wrap(err, "write token")
	}
	if err := os.Rename(tmpName, s.TokenPath); err != nil {
		return errors.Wrapf(err, "replace %s", s.TokenPath)
	}
	logger.Info("Token saved", "path", s.TokenPath)
	return nil
}

// TokenSource returns a refreshing token source that writes every new token
// back to TokenPath.
func (s *Store) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	cfg, err := s.Config()
	if err != nil {
		return nil, err
	}
	tok, err := s.LoadToken()
	if err != nil {
		return nil, err
	}
	return s.persisting(cfg.TokenSource(ctx, tok), tok), nil
}

func (s *Store) persisting(base oauth2.TokenSource, current *oauth2.Token) oauth2.TokenSource {
	return oauth2.ReuseTokenSource(current, &persistingSource{base: base, store: s, last: current})
}

type persistingSource struct {
	mu    sync.Mutex
	base  oauth2.TokenSource
	store *Store
	last  *oauth2.Token
}

func (p *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := p.base.Token()
	if err != nil {
		return nil, errors.Wrap(err, "refresh token")
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.last == nil || tok.AccessToken != p.last.AccessToken || tok.RefreshToken != p.last.RefreshToken {
		if tok.RefreshToken == "" && p.last != nil {
			tok.RefreshToken = p.last.RefreshToken
		}
		if err := p.store.SaveToken(tok); err != nil {
			logger.Error("Failed to persist refreshed token", err)
		}
		p.last = tok
	}
	return tok, nil
}
