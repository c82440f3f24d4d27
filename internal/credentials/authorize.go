package credentials

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/eriksjaastad/mcp-mail-math/internal/logger"
)

// Browser is handed the consent URL; it may open a browser or print the URL.
type Browser func(url string) error

type callback struct {
	code string
	err  error
}

// Authorize runs the installed-app flow against a loopback redirect on a
// random port, exchanges the code and saves the token.
func (s *Store) Authorize(ctx context.Context, open Browser) (*oauth2.Token, error) {
	cfg, err := s.Config()
	if err != nil {
		return nil, err
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, errors.Wrap(err, "listen for oauth redirect")
	}
	cfg.RedirectURL = fmt.Sprintf("http://%s/", ln.Addr().String())
	state := uuid.NewString()

	results := make(chan callback, 1)
	srv := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		var cb callback
		switch {
		case q.Get("state") != state:
			cb.err = errors.New("oauth redirect state mismatch")
		case q.Get("error") != "":
			cb.err = errors.Newf("authorization denied: %s", q.Get("error"))
		case q.Get("code") == "":
			cb.err = errors.New("oauth redirect carried no code")
		default:
			cb.code = q.Get("code")
		}
		if cb.err != nil {
			http.Error(w, cb.err.Error(), http.StatusBadRequest)
		} else {
			fmt.Fprintln(w, "The authentication flow has completed. You may close this window.")
		}
		select {
		case results <- cb:
		default:
		}
	})}
	go func() { _ = srv.Serve(ln) }()
	defer srv.Close()

	authURL := cfg.AuthCodeURL(state, oauth2.AccessTypeOffline)
	logger.Info("Waiting for OAuth consent", "redirect", cfg.RedirectURL)
	if err := open(authURL); err != nil {
		return nil, errors.Wrap(err, "open consent page")
	}

	var cb callback
	select {
	case cb = <-results:
	case <-ctx.Done():
		return nil, errors.Wrap(ctx.Err(), "wait for oauth redirect")
	}
	if cb.err != nil {
		return nil, cb.err
	}

	tok, err := cfg.Exchange(ctx, cb.code)
	if err != nil {
		return nil, errors.Wrap(err, "exchange authorization code")
	}
	if err := s.SaveToken(tok); err != nil {
		return nil, err
	}
	return tok, nil
}
