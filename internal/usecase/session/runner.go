package session

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"portal-exporter/internal/application/port/output"
	"portal-exporter/internal/domain/entity"
	"portal-exporter/internal/usecase/driver"
)

type Config struct {
	BaseURL     string
	LoginPath   string
	Credentials entity.Credentials

	EmailSelector    string
	PasswordSelector string
	SubmitSelector   string

	// AuthenticatedPattern matches the landing URL after a successful login.
	AuthenticatedPattern *regexp.Regexp

	LoginTimeout      time.Duration
	NavigationTimeout time.Duration
	PollInterval      time.Duration
}

func DefaultConfig(baseURL string, creds entity.Credentials) Config {
	base := strings.TrimRight(baseURL, "/")
	return Config{
		BaseURL:              base,
		LoginPath:            "/login",
		Credentials:          creds,
		EmailSelector:        `input[placeholder="E-mail"]`,
		PasswordSelector:     `input[placeholder="Senha"]`,
		SubmitSelector:       "text=ACESSAR",
		AuthenticatedPattern: regexp.MustCompile("^" + regexp.QuoteMeta(base) + "/inicio"),
		LoginTimeout:         30 * time.Second,
		NavigationTimeout:    60 * time.Second,
		PollInterval:         250 * time.Millisecond,
	}
}

func (c Config) URL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return c.BaseURL + "/" + strings.TrimLeft(path, "/")
}

// Runner authenticates against the portal and navigates between views.
type Runner struct {
	cfg    Config
	logger output.LoggerPort
}

func New(cfg Config, logger output.LoggerPort) *Runner {
	return &Runner{cfg: cfg, logger: logger}
}

// AuthenticatedSession is a page known to have passed the login form.
type AuthenticatedSession struct {
	page    output.PagePort
	pattern *regexp.Regexp

	mu     sync.Mutex
	closed bool
}

func (s *AuthenticatedSession) Page() output.PagePort {
	return s.page
}

// Alive reports whether the page is still inside the authenticated area.
func (s *AuthenticatedSession) Alive(ctx context.Context) bool {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return false
	}
	current, err := s.page.CurrentURL(ctx)
	if err != nil {
		return false
	}
	return s.pattern.MatchString(current)
}

// Release marks the session unusable. The owning browser context is closed
// by whoever opened it.
func (s *AuthenticatedSession) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *AuthenticatedSession) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (r *Runner) Login(ctx context.Context, page output.PagePort) (*AuthenticatedSession, error) {
	loginURL := r.cfg.URL(r.cfg.LoginPath)
	r.logger.Info("Logging in", "url", loginURL)

	if err := r.load(ctx, page, loginURL); err != nil {
		return nil, err
	}

	steps := []struct {
		what string
		fn   func() error
	}{
		{"email", func() error { return page.Fill(ctx, r.cfg.EmailSelector, r.cfg.Credentials.Email) }},
		{"password", func() error { return page.Fill(ctx, r.cfg.PasswordSelector, r.cfg.Credentials.Password) }},
		{"submit", func() error { return page.Click(ctx, r.cfg.SubmitSelector) }},
	}
	for _, step := range steps {
		if err := step.fn(); err != nil {
			return nil, &entity.AuthError{Reason: "credential form: " + step.what, Err: err}
		}
	}

	if err := r.awaitAuthenticated(ctx, page); err != nil {
		return nil, err
	}

	r.logger.Info("Login succeeded")
	return &AuthenticatedSession{page: page, pattern: r.cfg.AuthenticatedPattern}, nil
}

func (r *Runner) awaitAuthenticated(ctx context.Context, page output.PagePort) error {
	waitCtx, cancel := context.WithTimeout(ctx, r.cfg.LoginTimeout)
	defer cancel()

	for {
		current, err := page.CurrentURL(waitCtx)
		if err == nil && r.cfg.AuthenticatedPattern.MatchString(current) {
			return nil
		}
		if err := driver.Pause(waitCtx, r.cfg.PollInterval); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return &entity.AuthError{Reason: "post-login navigation not observed"}
		}
	}
}

// Navigate loads a named view. Failures are fatal and never retried.
func (r *Runner) Navigate(ctx context.Context, s *AuthenticatedSession, target string) error {
	if s == nil || s.isClosed() {
		return &entity.NavigationError{URL: target, Err: entity.ErrSessionClosed}
	}
	viewURL := r.cfg.URL(target)
	r.logger.Info("Navigating", "url", viewURL)
	return r.load(ctx, s.page, viewURL)
}

func (r *Runner) load(ctx context.Context, page output.PagePort, rawURL string) error {
	if err := validateURL(rawURL); err != nil {
		return &entity.NavigationError{URL: rawURL, Err: err}
	}

	navCtx, cancel := context.WithTimeout(ctx, r.cfg.NavigationTimeout)
	defer cancel()

	status, err := page.Navigate(navCtx, rawURL)
	if err != nil {
		return &entity.NavigationError{URL: rawURL, Err: err}
	}
	if status != 0 && (status < 200 || status > 299) {
		return &entity.NavigationError{URL: rawURL, Status: status}
	}
	return nil
}

func validateURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("%w: empty", entity.ErrInvalidURL)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return errors.Join(entity.ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme %q", entity.ErrInvalidURL, u.Scheme)
	}
	return nil
}
