package provider

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/errgroup"

	"github.com/eriksjaastad/mcp-mail-math/internal/registry"
)

// Dialer opens one session.
type Dialer func(ctx context.Context) (*Session, error)

// Stdio returns a Dialer for a provider process.
func Stdio(spec Spec) Dialer {
	return func(ctx context.Context) (*Session, error) {
		return Dial(ctx, spec)
	}
}

// InProcess returns a Dialer for an in-process server.
func InProcess(id string, srv *server.MCPServer) Dialer {
	return func(ctx context.Context) (*Session, error) {
		return NewInProcess(ctx, id, srv)
	}
}

// Set is the group of sessions held open for one run. Sessions keep the order
// they were dialled in and are closed together.
type Set struct {
	sessions []*Session
	byID     map[string]*Session
}

// Open dials every provider concurrently. If any dial fails, the sessions
// that did open are closed before returning.
func Open(ctx context.Context, dialers ...Dialer) (*Set, error) {
	sessions := make([]*Session, len(dialers))
	g, gctx := errgroup.WithContext(ctx)
	for i, dial := range dialers {
		g.Go(func() error {
			s, err := dial(gctx)
			if err != nil {
				return errors.Mark(err, registry.ErrProviderUnavailable)
			}
			sessions[i] = s
			return nil
		})
	}

	err := g.Wait()
	set := &Set{byID: make(map[string]*Session, len(dialers))}
	for _, s := range sessions {
		if s != nil {
			set.sessions = append(set.sessions, s)
			set.byID[s.ID()] = s
		}
	}
	if err != nil {
		return nil, errors.CombineErrors(err, set.Close())
	}
	if len(set.byID) != len(set.sessions) {
		return nil, errors.CombineErrors(errors.New("duplicate provider id"), set.Close())
	}
	return set, nil
}

func (s *Set) Get(id string) (*Session, bool) {
	sess, ok := s.byID[id]
	return sess, ok
}

// Sessions returns the sessions in dial order.
func (s *Set) Sessions() []*Session {
	return s.sessions
}

// Listers adapts the sessions for registry.Build.
func (s *Set) Listers() []registry.Lister {
	out := make([]registry.Lister, len(s.sessions))
	for i, sess := range s.sessions {
		out[i] = sess
	}
	return out
}

// Close closes every session and reports all failures.
func (s *Set) Close() error {
	var err error
	for _, sess := range s.sessions {
		err = errors.CombineErrors(err, sess.Close())
	}
	return err
}
