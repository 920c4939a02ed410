package auth

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-appclient/core"
	"github.com/goliatone/go-appclient/querycodec"
	glog "github.com/goliatone/go-logger/glog"
	"github.com/google/uuid"
)

const (
	defaultRedirectPollInterval = 250 * time.Millisecond
	defaultRedirectKeyPrefix    = "appclient:oauth2:"

	completionFieldState    = "state"
	completionFieldUserAuth = "userAuth"
	completionFieldError    = "error"
)

type RedirectFlowConfig struct {
	// PollInterval is how often storage is checked for a completion payload.
	PollInterval time.Duration
	// Timeout bounds Await; zero waits until the context is done.
	Timeout time.Duration
	// KeyPrefix partitions flow entries in shared storage.
	KeyPrefix string
	// NewState generates the per-flow state token.
	NewState func() string
}

// PendingFlow is a redirect flow that has been issued and awaits completion.
type PendingFlow struct {
	State        string
	URL          string
	ProviderName string
	RedirectURL  string
	CreatedAt    time.Time
}

type pendingRecord struct {
	State       string    `json:"state"`
	Provider    string    `json:"provider"`
	RedirectURL string    `json:"redirect_url"`
	Link        bool      `json:"link,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// RedirectFlow coordinates the OAuth2 browser redirect: it computes the
// provider URL, records the pending state, and waits for the landing page to
// deposit a completion payload under the same state. Each flow uses its own
// state token as the storage partition key.
type RedirectFlow struct {
	storage   core.Storage
	appURL    core.AppURLSupplier
	navigator core.Navigator
	logger    core.Logger
	config    RedirectFlowConfig
}

type RedirectFlowOption func(*RedirectFlow)

func WithRedirectFlowLogger(logger core.Logger) RedirectFlowOption {
	return func(f *RedirectFlow) {
		f.logger = logger
	}
}

func WithNavigator(navigator core.Navigator) RedirectFlowOption {
	return func(f *RedirectFlow) {
		f.navigator = navigator
	}
}

func NewRedirectFlow(storage core.Storage, appURL core.AppURLSupplier, cfg RedirectFlowConfig, opts ...RedirectFlowOption) *RedirectFlow {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultRedirectPollInterval
	}
	if cfg.Timeout < 0 {
		cfg.Timeout = 0
	}
	if strings.TrimSpace(cfg.KeyPrefix) == "" {
		cfg.KeyPrefix = defaultRedirectKeyPrefix
	}
	if cfg.NewState == nil {
		cfg.NewState = uuid.NewString
	}
	f := &RedirectFlow{
		storage: storage,
		appURL:  appURL,
		config:  cfg,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(f)
	}
	f.logger = glog.Ensure(f.logger)
	return f
}

// Run issues the flow, hands the provider URL to the navigator, and waits for
// completion.
func (f *RedirectFlow) Run(ctx context.Context, creds core.Credentials, link *core.UserRef) (core.AuthResponse, error) {
	pending, err := f.Begin(ctx, creds, link)
	if err != nil {
		return core.AuthResponse{}, err
	}
	if f.navigator != nil {
		if err := f.navigator.Navigate(ctx, pending.URL); err != nil {
			f.cleanup(ctx, pending.State)
			return core.AuthResponse{}, core.NewFlowFailedError(pending.State, "auth: navigate to oauth2 provider", err)
		}
	}
	return f.Await(ctx, pending)
}

// Begin computes the provider URL and persists the pending state before
// returning it.
func (f *RedirectFlow) Begin(ctx context.Context, creds core.Credentials, link *core.UserRef) (PendingFlow, error) {
	if f == nil || f.storage == nil {
		return PendingFlow{}, core.NewInternalError("auth: oauth2 redirect flow storage is not configured")
	}
	if f.appURL == nil {
		return PendingFlow{}, core.NewInternalError("auth: app url supplier is not configured")
	}
	redirectURL, ok := creds.OAuth2RedirectURL()
	if !ok {
		return PendingFlow{}, core.NewBadInputError("auth: credentials do not select the oauth2 redirect flow")
	}
	name := creds.Name()

	baseURL, err := f.appURL.AppURL(ctx)
	if err != nil {
		return PendingFlow{}, core.WrapTransportError(err, "", "", map[string]any{"stage": "resolve_app_url"})
	}
	if strings.TrimSpace(baseURL) == "" {
		return PendingFlow{}, core.NewBadInputError("auth: app url is required")
	}

	state := strings.TrimSpace(f.config.NewState())
	if state == "" {
		return PendingFlow{}, core.NewInternalError("auth: oauth2 state generator returned an empty token")
	}
	params := map[string]any{
		"redirect": redirectURL,
		"state":    state,
	}
	if link != nil {
		params["link"] = true
	}

	pending := PendingFlow{
		State:        state,
		URL:          querycodec.EncodeURL(providerLoginURL(baseURL, name), params),
		ProviderName: name,
		RedirectURL:  redirectURL,
		CreatedAt:    time.Now().UTC(),
	}
	record, err := json.Marshal(pendingRecord{
		State:       state,
		Provider:    name,
		RedirectURL: redirectURL,
		Link:        link != nil,
		CreatedAt:   pending.CreatedAt,
	})
	if err != nil {
		return PendingFlow{}, core.WrapInternalError(err, "auth: encode pending oauth2 state", map[string]any{"state": state})
	}
	if err := f.storage.Set(ctx, f.pendingKey(state), string(record)); err != nil {
		return PendingFlow{}, core.WrapInternalError(err, "auth: persist pending oauth2 state", map[string]any{"state": state})
	}
	f.logger.Debug("oauth2 redirect issued", "provider", name, "state", state)
	return pending, nil
}

// Await waits for the completion payload of pending. Pending and completion
// entries are removed on every exit path.
func (f *RedirectFlow) Await(ctx context.Context, pending PendingFlow) (core.AuthResponse, error) {
	if f == nil || f.storage == nil {
		return core.AuthResponse{}, core.NewInternalError("auth: oauth2 redirect flow storage is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	state := strings.TrimSpace(pending.State)
	if state == "" {
		return core.AuthResponse{}, core.NewBadInputError("auth: oauth2 state is required")
	}
	defer f.cleanup(ctx, state)

	waitCtx := ctx
	cancel := func() {}
	if f.config.Timeout > 0 {
		waitCtx, cancel = context.WithTimeout(ctx, f.config.Timeout)
	}
	defer cancel()

	ticker := time.NewTicker(f.config.PollInterval)
	defer ticker.Stop()

	for {
		session, done, err := f.poll(waitCtx, state)
		if err != nil {
			return core.AuthResponse{}, err
		}
		if done {
			f.logger.Debug("oauth2 redirect completed", "state", state, "user_id", session.UserID)
			return session, nil
		}
		select {
		case <-waitCtx.Done():
			f.logger.Warn("oauth2 redirect not completed", "state", state, "error", waitCtx.Err())
			return core.AuthResponse{}, core.NewFlowIncompleteError(state, waitCtx.Err())
		case <-ticker.C:
		}
	}
}

func (f *RedirectFlow) poll(ctx context.Context, state string) (core.AuthResponse, bool, error) {
	value, found, err := f.storage.Get(ctx, f.resultKey(state))
	if err != nil {
		if ctx.Err() != nil {
			return core.AuthResponse{}, false, nil
		}
		return core.AuthResponse{}, false, core.WrapInternalError(err, "auth: read oauth2 completion", map[string]any{"state": state})
	}
	if !found {
		return core.AuthResponse{}, false, nil
	}

	payload := querycodec.Decode(value)
	if payload[completionFieldState] != state {
		f.logger.Warn("discarding oauth2 completion for another state", "state", state)
		if err := f.storage.Remove(ctx, f.resultKey(state)); err != nil {
			return core.AuthResponse{}, false, core.WrapInternalError(err, "auth: discard stale oauth2 completion", map[string]any{"state": state})
		}
		return core.AuthResponse{}, false, nil
	}
	if reason := payload[completionFieldError]; reason != "" {
		return core.AuthResponse{}, false, core.NewFlowRejectedError(state, reason)
	}
	session, err := DecodeSession([]byte(payload[completionFieldUserAuth]))
	if err != nil {
		return core.AuthResponse{}, false, core.NewFlowRejectedError(state, err.Error())
	}
	return session, true, nil
}

// Complete is the landing page side of the flow: it reads state, userAuth
// and error from the callback URL fragment (or query) and stores the
// completion payload for the waiting flow. It returns the state it completed.
func (f *RedirectFlow) Complete(ctx context.Context, callbackURL string) (string, error) {
	if f == nil || f.storage == nil {
		return "", core.NewInternalError("auth: oauth2 redirect flow storage is not configured")
	}
	parsed, err := url.Parse(strings.TrimSpace(callbackURL))
	if err != nil {
		return "", core.NewBadInputError("auth: invalid oauth2 callback url")
	}
	params := querycodec.Decode(parsed.EscapedFragment())
	if params[completionFieldState] == "" {
		params = querycodec.Decode(parsed.RawQuery)
	}

	state := strings.TrimSpace(params[completionFieldState])
	if state == "" {
		return "", core.NewBadInputError("auth: oauth2 callback state is required")
	}
	userAuth := params[completionFieldUserAuth]
	reason := params[completionFieldError]
	if userAuth == "" && reason == "" {
		return "", core.NewBadInputError("auth: oauth2 callback carries neither userAuth nor error")
	}

	raw, found, err := f.storage.Get(ctx, f.pendingKey(state))
	if err != nil {
		return "", core.WrapInternalError(err, "auth: read pending oauth2 state", map[string]any{"state": state})
	}
	if !found {
		return "", core.NewBadInputError("auth: oauth2 state not found")
	}
	var record pendingRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil || record.State != state {
		return "", core.NewBadInputError("auth: pending oauth2 state does not match the callback")
	}
	f.logger.Debug("oauth2 callback received", "provider", record.Provider, "state", state, "link", record.Link)

	completion := map[string]any{completionFieldState: state}
	if userAuth != "" {
		completion[completionFieldUserAuth] = userAuth
	}
	if reason != "" {
		completion[completionFieldError] = reason
	}
	if err := f.storage.Set(ctx, f.resultKey(state), querycodec.Encode(completion)); err != nil {
		return "", core.WrapInternalError(err, "auth: persist oauth2 completion", map[string]any{"state": state})
	}
	return state, nil
}

func (f *RedirectFlow) cleanup(ctx context.Context, state string) {
	cleanupCtx := context.WithoutCancel(ctx)
	for _, key := range []string{f.pendingKey(state), f.resultKey(state)} {
		if err := f.storage.Remove(cleanupCtx, key); err != nil {
			f.logger.Warn("failed to clear oauth2 flow entry", "key", key, "error", err)
		}
	}
}

func (f *RedirectFlow) pendingKey(state string) string {
	return f.config.KeyPrefix + "pending:" + state
}

func (f *RedirectFlow) resultKey(state string) string {
	return f.config.KeyPrefix + "result:" + state
}
