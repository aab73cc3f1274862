package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"scribe/internal/api"
	"scribe/internal/config"
	"scribe/internal/logging"
	"scribe/internal/paging"
	"scribe/internal/platform"
	"scribe/internal/session"
	"scribe/internal/storage"
)

type commandContext struct {
	configFlag    *string
	ephemeralFlag *bool

	configOnce   sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error

	runtimeOnce sync.Once
	runtime     *runtime
	runtimeErr  error
}

// runtime holds the wired services for one CLI invocation.
type runtime struct {
	cfg      *config.Config
	logger   *slog.Logger
	storage  storage.Storage
	session  *session.Store
	pipeline *api.Pipeline
	client   *platform.Client
}

func newCommandContext(configFlag *string, ephemeralFlag *bool) *commandContext {
	return &commandContext{
		configFlag:    configFlag,
		ephemeralFlag: ephemeralFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.ephemeralFlag != nil && *c.ephemeralFlag {
			cfg.Storage.Backend = config.StorageMemory
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
		c.configExists = exists
	})
	return c.config, c.configErr
}

// ensureRuntime wires storage, the session store, the gateway, the auth
// pipeline and the platform client. Invalidation notices go to errOut.
func (c *commandContext) ensureRuntime(errOut io.Writer) (*runtime, error) {
	c.runtimeOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.runtimeErr = err
			return
		}
		c.runtime, c.runtimeErr = buildRuntime(cfg, errOut)
	})
	return c.runtime, c.runtimeErr
}

func buildRuntime(cfg *config.Config, errOut io.Writer) (*runtime, error) {
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}

	backing, err := storage.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open session storage: %w", err)
	}

	store := session.New(backing, session.WithLogger(logger))
	if err := store.Restore(); err != nil {
		_ = storage.Close(backing)
		return nil, fmt.Errorf("restore session: %w", err)
	}

	gateway, err := api.NewGateway(cfg.API.BaseURL,
		api.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout()}),
		api.WithRateLimit(cfg.API.RateLimit, cfg.API.RateBurst),
		api.WithUserAgent(cfg.API.UserAgent),
		api.WithLogger(logger),
	)
	if err != nil {
		_ = storage.Close(backing)
		return nil, err
	}

	pipeline := api.NewPipeline(gateway, store,
		api.WithBootstrapPaths(cfg.Session.BootstrapPaths),
		api.WithPipelineLogger(logger),
	)
	pipeline.OnInvalidation(func(ev api.InvalidationEvent) {
		fmt.Fprintf(errOut, "Session ended: %s\n", ev.Reason)
		fmt.Fprintln(errOut, "Run `scribe login` to sign in again.")
	})

	return &runtime{
		cfg:      cfg,
		logger:   logger,
		storage:  backing,
		session:  store,
		pipeline: pipeline,
		client:   platform.New(pipeline, store),
	}, nil
}

func (c *commandContext) withClient(cmd *cobra.Command, fn func(*runtime) error) error {
	rt, err := c.ensureRuntime(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	err = fn(rt)
	if closeErr := c.close(); closeErr != nil && err == nil {
		err = fmt.Errorf("close session storage: %w", closeErr)
	}
	return err
}

func (c *commandContext) close() error {
	if c.runtime == nil || c.runtime.storage == nil {
		return nil
	}
	backing := c.runtime.storage
	c.runtime.storage = nil
	return storage.Close(backing)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

// describeError renders err for the terminal, preferring the backend's own
// message where one exists.
func describeError(err error) string {
	switch {
	case errors.Is(err, session.ErrNotAuthenticated):
		return "Not signed in. Run `scribe login` first."
	case errors.Is(err, api.ErrSessionInvalidated):
		return "Session is no longer valid: " + api.Message(err)
	case errors.Is(err, api.ErrAuthBootstrap):
		if msg := api.Message(err); msg != "" {
			return "Sign-in failed: " + msg
		}
		return "Sign-in failed"
	case errors.Is(err, paging.ErrRecordNotFound):
		return err.Error()
	}
	var statusErr *api.StatusError
	if errors.As(err, &statusErr) {
		if msg := api.Message(err); msg != "" && msg != statusErr.Text() {
			return fmt.Sprintf("%s (%s)", msg, statusErr.Text())
		}
	}
	return err.Error()
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
