package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/hansdj/internal/models"
	"github.com/desertthunder/hansdj/internal/queue"
	"github.com/desertthunder/hansdj/internal/repositories"
	"github.com/desertthunder/hansdj/internal/services"
	"github.com/desertthunder/hansdj/internal/shared"
	"github.com/desertthunder/hansdj/internal/tasks"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// HistoryStore is the drain log as the CLI uses it.
type HistoryStore interface {
	Create(entry *models.DrainEntry) error
	List(limit int) ([]*models.DrainEntry, error)
	ListAdded(limit int) ([]*models.DrainEntry, error)
}

var _ HistoryStore = (*repositories.DrainLogRepository)(nil)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Services are created on first use so commands that never talk to Spotify (enqueue, queue,
// setup) work without credentials.
type Runner struct {
	config     *shared.Config
	loadConfig bool
	configPath string
	service    services.MusicService
	spotify    *services.SpotifyService
	history    HistoryStore
	closers    []io.Closer
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
//
// A nil Config is loaded from the --config flag before any command runs.
type RunnerOpts struct {
	Config  *shared.Config
	Service services.MusicService
	History HistoryStore
	Logger  *log.Logger
	Output  io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	r := &Runner{
		config:  opts.Config,
		service: opts.Service,
		history: opts.History,
		logger:  opts.Logger,
		output:  opts.Output,
	}
	if r.config == nil {
		r.config = shared.DefaultConfig()
		r.loadConfig = true
	}
	if r.logger == nil {
		r.logger = shared.NewLogger(nil)
		r.logger.SetLevel(log.WarnLevel)
	}
	if r.output == nil {
		r.output = os.Stdout
	}
	return r
}

// before loads configuration and applies global flags ahead of every command.
func (r *Runner) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("verbose") {
		r.logger.SetLevel(log.DebugLevel)
	}

	if !r.loadConfig {
		return ctx, nil
	}

	r.configPath = cmd.String("config")
	if _, err := os.Stat(r.configPath); err == nil {
		config, err := shared.LoadConfig(r.configPath)
		if err != nil {
			return ctx, fmt.Errorf("%w: %v", shared.ErrInvalidConfig, err)
		}
		r.config = config
	} else {
		r.logger.Debug("config file not found, using defaults", "path", r.configPath)
	}

	if err := r.config.ApplyEnv(cmd.String("env")); err != nil {
		r.logger.Warn("failed to load env file", "error", err)
	}
	return ctx, nil
}

// Close releases resources opened by commands.
func (r *Runner) Close() {
	for _, c := range r.closers {
		if err := c.Close(); err != nil {
			r.logger.Warn("failed to close resource", "error", err)
		}
	}
	r.closers = nil
}

// SetLogger replaces the logger, used by the dashboard to log to a file.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// spotifyService returns the unauthenticated Spotify client, creating it on first use.
func (r *Runner) spotifyService() (*services.SpotifyService, error) {
	if r.spotify != nil {
		return r.spotify, nil
	}
	if err := r.config.Validate(); err != nil {
		return nil, err
	}

	svc, err := services.NewSpotifyService(r.config.Credentials.Spotify.Map(), services.WithRateLimit(r.config.API.RateLimit))
	if err != nil {
		return nil, fmt.Errorf("failed to create Spotify service: %w", err)
	}
	svc.SetTokenRefreshCallback(func(token *oauth2.Token) {
		if err := r.saveToken(token); err != nil {
			r.logger.Warn("failed to cache refreshed token", "error", err)
		}
	})
	r.spotify = svc
	return svc, nil
}

// musicService returns an authenticated service using the cached token.
func (r *Runner) musicService(ctx context.Context) (services.MusicService, error) {
	if r.service != nil {
		return r.service, nil
	}

	svc, err := r.spotifyService()
	if err != nil {
		return nil, err
	}

	token, err := shared.LoadToken(r.config.Credentials.Spotify.TokenPath)
	if err != nil {
		return nil, err
	}
	svc.SetToken(ctx, token)

	r.service = svc
	return svc, nil
}

func (r *Runner) saveToken(token *oauth2.Token) error {
	if err := shared.SaveToken(r.config.Credentials.Spotify.TokenPath, token); err != nil {
		return err
	}
	r.logger.Debug("token cached", "path", r.config.Credentials.Spotify.TokenPath)
	return nil
}

// historyStore opens the drain log database and applies migrations on first use.
func (r *Runner) historyStore() (HistoryStore, error) {
	if r.history != nil {
		return r.history, nil
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, err
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	r.closers = append(r.closers, db)
	r.history = repositories.NewDrainLogRepository(db)
	return r.history, nil
}

func (r *Runner) queueStore() *queue.Store {
	return queue.NewStore(r.config.Queue.Path, queue.WithLockTimeout(r.config.Queue.LockTimeout.Duration))
}

func (r *Runner) targetResolver(svc services.MusicService) *services.TargetResolver {
	return services.NewTargetResolver(svc, r.config.Playlist.TargetPolicy, r.config.Playlist.TargetName)
}

// drainEngine wires the queue, service, target and history into an engine. History is
// optional; when the database cannot be opened the engine still drains.
func (r *Runner) drainEngine(ctx context.Context) (*tasks.DrainEngine, *services.TargetResolver, error) {
	svc, err := r.musicService(ctx)
	if err != nil {
		return nil, nil, err
	}

	target := r.targetResolver(svc)
	opts := []tasks.DrainOption{tasks.WithLogger(r.logger)}
	if history, err := r.historyStore(); err != nil {
		r.logger.Warn("drain history disabled", "error", err)
	} else {
		opts = append(opts, tasks.WithHistory(history))
	}

	return tasks.NewDrainEngine(r.queueStore(), svc, target, opts...), target, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
