// internal/session/store.go
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	xerrors "eduscribe-web/internal/pkg/errors"
	"eduscribe-web/internal/pkg/token"

	"go.uber.org/zap"
)

// Role-based destinations signalled after a successful login.
const (
	TeacherArea = "/teacher/dashboard"
	StudentArea = "/student/dashboard"
)

const (
	loginPath = "/api/auth/login"
	proxyPath = "/api/proxy"

	registerTeacherEndpoint = "/User/RegisterTeacher"
	registerStudentEndpoint = "/User/RegisterStudent"
)

// Session is the derived, in-memory projection of the credential token.
// Authenticated is true iff a token is present, decodable and unexpired.
type Session struct {
	User          *token.Claims
	Token         string
	Authenticated bool
}

// Result is the outcome of a login or registration call.
type Result struct {
	Success     bool
	Message     string
	Destination string
}

// CallOptions shapes an authorized request made through Do.
type CallOptions struct {
	Method      string // defaults to GET
	Body        io.Reader
	ContentType string // multipart writers supply their boundary type here
	Header      http.Header
}

// CallResult carries the raw response body alongside its parsed JSON form
// so callers can branch on either.
type CallResult struct {
	StatusCode int
	Body       []byte
	Data       interface{} // nil when the body is not JSON
}

// Config wires a Store. BaseURL is the gateway origin and is required;
// everything else has a usable default.
type Config struct {
	BaseURL            string
	Storage            Storage
	HTTPClient         *http.Client
	Logger             *zap.Logger
	RevalidateInterval time.Duration
	Now                func() time.Time
}

// Store is the single source of truth for "is the current visitor
// authenticated, as whom, and with what credential". It is explicitly
// constructed and torn down; there is no ambient instance.
type Store struct {
	baseURL  string
	storage  Storage
	client   *http.Client
	logger   *zap.Logger
	interval time.Duration
	now      func() time.Time

	mu      sync.Mutex
	cur     Session
	subs    map[int]func(Session)
	nextSub int

	started     bool
	stopCh      chan struct{}
	stopOnce    sync.Once
	watchCancel func()
	wg          sync.WaitGroup
}

func New(cfg Config) (*Store, error) {
	if cfg.BaseURL == "" {
		return nil, xerrors.Wrap(xerrors.ErrInvalidInput, "session store requires a gateway base URL")
	}
	if cfg.Storage == nil {
		cfg.Storage = NewMemoryStorage()
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.RevalidateInterval <= 0 {
		cfg.RevalidateInterval = time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Store{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		storage:  cfg.Storage,
		client:   cfg.HTTPClient,
		logger:   cfg.Logger,
		interval: cfg.RevalidateInterval,
		now:      cfg.Now,
		subs:     make(map[int]func(Session)),
		stopCh:   make(chan struct{}),
	}, nil
}

// Start derives the initial state from storage, subscribes to external slot
// changes when the storage supports it, and launches the periodic
// re-validation ticker. Close releases all of it.
func (s *Store) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()

	s.CheckTokenValidity(ctx)

	if w, ok := s.storage.(Watcher); ok {
		cancel := w.Watch(func() {
			s.CheckTokenValidity(context.Background())
		})
		s.mu.Lock()
		s.watchCancel = cancel
		s.mu.Unlock()
	}

	s.wg.Add(1)
	go s.revalidateLoop()
}

// Close stops the background ticker and the storage watch. Safe to call
// more than once.
func (s *Store) Close() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})

	s.mu.Lock()
	cancel := s.watchCancel
	s.watchCancel = nil
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}

	s.wg.Wait()
}

func (s *Store) revalidateLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.CheckTokenValidity(context.Background())
		}
	}
}

// Refresh forces an immediate re-validation, the analog of the host window
// regaining focus.
func (s *Store) Refresh(ctx context.Context) {
	s.CheckTokenValidity(ctx)
}

// Login exchanges credentials at the gateway's login endpoint. A 2xx reply
// must also carry a decodable, unexpired token; a compromised or malformed
// upstream response fails the login even though the HTTP call succeeded.
func (s *Store) Login(ctx context.Context, email, password string) Result {
	payload, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return Result{Message: "Login failed"}
	}

	resp, body, err := s.postJSON(ctx, s.baseURL+loginPath, payload)
	if err != nil {
		s.logger.Warn("login request failed", zap.Error(err))
		return Result{Message: "Network error. Please try again."}
	}

	var lr struct {
		Token   string `json:"token"`
		Message string `json:"message"`
	}
	_ = json.Unmarshal(body, &lr)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || lr.Token == "" {
		return Result{Message: firstNonEmpty(lr.Message, "Login failed")}
	}

	claims, derr := token.Decode(lr.Token)
	if derr != nil || claims.Expired(s.now()) {
		s.logger.Warn("login returned unusable token", zap.Error(derr))
		return Result{Message: "Invalid or expired token received"}
	}

	if err := s.storage.Save(ctx, lr.Token); err != nil {
		s.logger.Warn("failed to persist token", zap.Error(err))
	}
	s.setSession(Session{User: claims, Token: lr.Token, Authenticated: true})

	dest := StudentArea
	if claims.IsTeacher() {
		dest = TeacherArea
	}
	s.logger.Info("user logged in",
		zap.String("email", claims.Email),
		zap.String("role", claims.Role),
	)
	return Result{Success: true, Destination: dest}
}

// Logout clears the stored token and the derived state unconditionally.
// Idempotent: a second call is a no-op.
func (s *Store) Logout(ctx context.Context) {
	if err := s.storage.Clear(ctx); err != nil {
		s.logger.Warn("failed to clear stored token", zap.Error(err))
	}
	s.setSession(Session{})
}

// RegisterTeacher creates a teacher account upstream. Registration never
// mutates session state.
func (s *Store) RegisterTeacher(ctx context.Context, name, email, password string) Result {
	return s.register(ctx, registerTeacherEndpoint, name, email, password)
}

// RegisterStudent creates a student account upstream.
func (s *Store) RegisterStudent(ctx context.Context, name, email, password string) Result {
	return s.register(ctx, registerStudentEndpoint, name, email, password)
}

func (s *Store) register(ctx context.Context, endpoint, name, email, password string) Result {
	payload, err := json.Marshal(map[string]string{"name": name, "email": email, "password": password})
	if err != nil {
		return Result{Message: "Registration failed"}
	}

	resp, body, err := s.postJSON(ctx, s.baseURL+proxyPath+endpoint, payload)
	if err != nil {
		s.logger.Warn("registration request failed", zap.Error(err))
		return Result{Message: "Network error. Please try again."}
	}

	var env struct {
		Status  bool   `json:"status"`
		Message string `json:"message"`
	}
	_ = json.Unmarshal(body, &env)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 && env.Status {
		return Result{Success: true, Message: env.Message}
	}
	return Result{Message: firstNonEmpty(env.Message, "Registration failed")}
}

// CheckTokenValidity re-derives the session from the persisted slot: an
// absent token clears the projection, an expired or undecodable one forces
// a logout, a healthy one refreshes it. Safe to call repeatedly and
// concurrently.
func (s *Store) CheckTokenValidity(ctx context.Context) {
	raw, err := s.storage.Load(ctx)
	if err != nil {
		s.logger.Warn("failed to read token slot", zap.Error(err))
		s.setSession(Session{})
		return
	}
	if raw == "" {
		s.setSession(Session{})
		return
	}

	claims, derr := token.Decode(raw)
	if derr != nil || claims.Expired(s.now()) {
		s.logger.Info("stored token expired or invalid, logging out")
		s.Logout(ctx)
		return
	}

	s.setSession(Session{User: claims, Token: raw, Authenticated: true})
}

// Do issues an authorized request through the gateway proxy. An expired
// held token forces a logout and returns ErrSessionExpired without touching
// the network; a 401 reply forces the same logout and returns
// ErrUnauthorized. Bearer credentials are attached when a token is held;
// JSON content-type is assumed unless the body is a multipart form, whose
// writer-computed type passes through untouched.
func (s *Store) Do(ctx context.Context, endpoint string, opts CallOptions) (*CallResult, error) {
	cur := s.Session()
	if cur.Token != "" {
		claims, err := token.Decode(cur.Token)
		if err != nil || claims.Expired(s.now()) {
			s.Logout(ctx)
			return nil, xerrors.ErrSessionExpired
		}
	}

	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+proxyPath+endpoint, opts.Body)
	if err != nil {
		return nil, xerrors.Wrap(err, "failed to build request")
	}

	if opts.ContentType != "" {
		req.Header.Set("Content-Type", opts.ContentType)
	} else if opts.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cur.Token != "" {
		req.Header.Set("Authorization", "Bearer "+cur.Token)
	}
	for key, vals := range opts.Header {
		req.Header.Del(key)
		for _, v := range vals {
			req.Header.Add(key, v)
		}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, xerrors.Wrap(err, "api call failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		_, _ = io.Copy(io.Discard, resp.Body)
		s.logger.Info("api call returned 401, logging out")
		s.Logout(ctx)
		return nil, xerrors.ErrUnauthorized
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, xerrors.Wrap(err, "failed to read response")
	}

	res := &CallResult{StatusCode: resp.StatusCode, Body: body}
	var data interface{}
	if json.Unmarshal(body, &data) == nil {
		res.Data = data
	}
	return res, nil
}

// Session returns a snapshot of the current projection.
func (s *Store) Session() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur
}

// IsTeacher reports whether the current session belongs to a teacher.
func (s *Store) IsTeacher() bool {
	cur := s.Session()
	return cur.User != nil && cur.User.IsTeacher()
}

// IsStudent reports whether the current session belongs to a student.
func (s *Store) IsStudent() bool {
	cur := s.Session()
	return cur.User != nil && cur.User.IsStudent()
}

// Subscribe registers a listener invoked whenever the projection changes.
// The returned cancel removes the subscription.
func (s *Store) Subscribe(fn func(Session)) (cancel func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Store) setSession(next Session) {
	s.mu.Lock()
	changed := s.cur.Token != next.Token || s.cur.Authenticated != next.Authenticated
	s.cur = next
	var fns []func(Session)
	if changed {
		fns = make([]func(Session), 0, len(s.subs))
		for _, fn := range s.subs {
			fns = append(fns, fn)
		}
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(next)
	}
}

func (s *Store) postJSON(ctx context.Context, url string, payload []byte) (*http.Response, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}
	return resp, body, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
