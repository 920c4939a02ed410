package appclient

import (
	"github.com/goliatone/go-appclient/core"
)

type Option func(*clientBuilder)

type clientBuilder struct {
	logger          core.Logger
	loggerProvider  core.LoggerProvider
	httpClient      core.HTTPDoer
	storage         core.Storage
	appURL          core.AppURLSupplier
	tokens          core.TokenProvider
	navigator       core.Navigator
	configProvider  core.ConfigProvider
	optionsResolver core.OptionsResolver
}

func WithLogger(logger core.Logger) Option {
	return func(b *clientBuilder) {
		b.logger = logger
	}
}

func WithLoggerProvider(provider core.LoggerProvider) Option {
	return func(b *clientBuilder) {
		b.loggerProvider = provider
	}
}

// WithHTTPClient replaces the HTTP capability calls are performed with.
func WithHTTPClient(client core.HTTPDoer) Option {
	return func(b *clientBuilder) {
		b.httpClient = client
	}
}

// WithStorage sets the shared storage the OAuth2 redirect flow coordinates
// through. Defaults to in-process memory.
func WithStorage(storage core.Storage) Option {
	return func(b *clientBuilder) {
		b.storage = storage
	}
}

// WithAppURLSupplier resolves the application URL on every login. Defaults to
// the configured base_url.
func WithAppURLSupplier(supplier core.AppURLSupplier) Option {
	return func(b *clientBuilder) {
		b.appURL = supplier
	}
}

// WithTokenProvider replaces the session store as the source of bearer
// tokens.
func WithTokenProvider(provider core.TokenProvider) Option {
	return func(b *clientBuilder) {
		b.tokens = provider
	}
}

func WithNavigator(navigator core.Navigator) Option {
	return func(b *clientBuilder) {
		b.navigator = navigator
	}
}

func WithConfigProvider(provider core.ConfigProvider) Option {
	return func(b *clientBuilder) {
		b.configProvider = provider
	}
}

func WithOptionsResolver(resolver core.OptionsResolver) Option {
	return func(b *clientBuilder) {
		b.optionsResolver = resolver
	}
}
