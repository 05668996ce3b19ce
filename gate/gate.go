// Package gate guards pages behind login and onboarding preconditions.
//
// A Gate is built once per protected page. Evaluate reads the session store,
// confirms a locally unknown profile with the backend when the page needs one,
// and returns the decision for that pass. A pass whose inputs changed while it
// waited on the backend reports Superseded and leaves the store untouched.
package gate

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jrsteele09/counsellor-web/backend"
	"github.com/jrsteele09/counsellor-web/sessions"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultTimeout   = 10 * time.Second
	DefaultMaxPasses = 3

	DefaultLoginPath      = "/login"
	DefaultOnboardingPath = "/onboarding"
)

// Options are the preconditions of one protected page
type Options struct {
	RequireLogin   bool
	RequireProfile bool
}

type Decision int

const (
	Allow Decision = iota
	RedirectLogin
	RedirectOnboarding
	// Superseded means the session changed while the pass was in flight; its
	// result was discarded and the pass must be re-run.
	Superseded
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RedirectLogin:
		return "redirect_login"
	case RedirectOnboarding:
		return "redirect_onboarding"
	case Superseded:
		return "superseded"
	}
	return fmt.Sprintf("decision(%d)", int(d))
}

// ProfileChecker confirms that the account behind token has a stored profile.
// Any error counts as "no profile".
type ProfileChecker interface {
	FetchProfile(ctx context.Context, token string) (*backend.Profile, error)
}

// RedirectFunc writes a redirect to path
type RedirectFunc func(w http.ResponseWriter, r *http.Request, path string)

type Gate struct {
	opts    Options
	checker ProfileChecker

	timeout        time.Duration
	maxPasses      int
	loginPath      string
	onboardingPath string
	redirect       RedirectFunc

	inflight singleflight.Group
}

type Option func(*Gate)

// WithTimeout bounds the profile confirmation call. A timeout counts as a failure.
func WithTimeout(d time.Duration) Option {
	return func(g *Gate) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithMaxPasses bounds how often Middleware re-runs a superseded pass before
// sending the user to login
func WithMaxPasses(n int) Option {
	return func(g *Gate) {
		if n > 0 {
			g.maxPasses = n
		}
	}
}

// WithPaths overrides the login and onboarding redirect targets
func WithPaths(login, onboarding string) Option {
	return func(g *Gate) {
		g.loginPath = login
		g.onboardingPath = onboarding
	}
}

// WithRedirect replaces the function used to write redirects
func WithRedirect(fn RedirectFunc) Option {
	return func(g *Gate) {
		g.redirect = fn
	}
}

func New(opts Options, checker ProfileChecker, options ...Option) *Gate {
	g := &Gate{
		opts:           opts,
		checker:        checker,
		timeout:        DefaultTimeout,
		maxPasses:      DefaultMaxPasses,
		loginPath:      DefaultLoginPath,
		onboardingPath: DefaultOnboardingPath,
		redirect:       seeOther,
	}
	for _, opt := range options {
		opt(g)
	}
	return g
}

func (g *Gate) Options() Options {
	return g.opts
}

// Evaluate runs one pass of the gate against store.
//
// The store is mutated only by a successful confirmation whose pass is still
// current, and then only through CompleteProfileAt.
func (g *Gate) Evaluate(ctx context.Context, store *sessions.Store) Decision {
	st, rev := store.Snapshot()

	decision := Allow
	switch {
	case g.opts.RequireLogin && !st.IsLoggedIn:
		decision = RedirectLogin
	case g.opts.RequireProfile && st.IsLoggedIn && !st.ProfileComplete:
		decision = g.reconcile(ctx, store, st.Token, rev)
	}

	decisionsTotal.WithLabelValues(decision.String()).Inc()
	return decision
}

// reconcile asks the backend whether the profile exists. Concurrent passes over
// the same store revision share one call.
func (g *Gate) reconcile(ctx context.Context, store *sessions.Store, token string, rev uint64) Decision {
	key := fmt.Sprintf("%s@%d", store.Key(), rev)

	v, _, _ := g.inflight.Do(key, func() (any, error) {
		start := time.Now()
		defer func() {
			reconcileDuration.Observe(time.Since(start).Seconds())
		}()

		// The call is shared, so one caller going away must not fail the others
		checkCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.timeout)
		defer cancel()

		if g.checker == nil {
			return RedirectOnboarding, nil
		}

		_, err := g.checker.FetchProfile(checkCtx, token)
		if err == nil {
			if store.CompleteProfileAt(rev) {
				return Allow, nil
			}
			return Superseded, nil
		}

		if _, now := store.Snapshot(); now != rev {
			return Superseded, nil
		}
		log.Debug().Err(err).Str("session", store.Key()).Msg("Profile confirmation failed; sending to onboarding")
		return RedirectOnboarding, nil
	})
	return v.(Decision)
}

// Middleware serves next only when the gate allows the request. The session
// store is taken from the request context (see sessions.NewContext); a request
// without one is treated as logged out. Superseded passes are re-run so the
// latest session state decides.
func (g *Gate) Middleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := sessions.FromContext(r.Context())
		if !ok {
			store = sessions.NewStore("anonymous", nil)
		}

		for pass := 0; pass < g.maxPasses; pass++ {
			switch g.Evaluate(r.Context(), store) {
			case Allow:
				next(w, r)
				return
			case RedirectLogin:
				g.redirect(w, r, g.loginPath)
				return
			case RedirectOnboarding:
				g.redirect(w, r, g.onboardingPath)
				return
			}
		}

		log.Warn().Str("session", store.Key()).Int("passes", g.maxPasses).Msg("Session kept changing during gate evaluation")
		g.redirect(w, r, g.loginPath)
	}
}

func seeOther(w http.ResponseWriter, r *http.Request, path string) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", path)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}
