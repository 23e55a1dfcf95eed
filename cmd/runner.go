package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/kellenGary/MF/internal/models"
	"github.com/kellenGary/MF/internal/repositories"
	"github.com/kellenGary/MF/internal/services"
	"github.com/kellenGary/MF/internal/shared"
	"github.com/kellenGary/MF/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	spotify    *services.SpotifyService
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	db         *sql.DB
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Spotify    *services.SpotifyService
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.ConfigPath == "" {
		opts.ConfigPath = "config.toml"
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		spotify:    opts.Spotify,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

// SetLogger replaces the runner's logger.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// ensureDatabase opens the configured database on first use and reuses the
// connection for the rest of the command.
func (r *Runner) ensureDatabase() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	r.db = db
	return db, nil
}

// newEngine builds a reconciliation engine over the configured database.
func (r *Runner) newEngine() (*tasks.ReconciliationEngine, error) {
	if r.spotify == nil {
		return nil, fmt.Errorf("%w: Spotify credentials not configured", shared.ErrMissingCredentials)
	}

	db, err := r.ensureDatabase()
	if err != nil {
		return nil, err
	}

	return tasks.NewReconciliationEngine(tasks.EngineOpts{
		Catalog:       r.spotify,
		Entities:      repositories.NewEntityRepository(db),
		Relationships: repositories.NewRelationshipRepository(db),
		States:        repositories.NewSyncStateRepository(db),
		Listens:       repositories.NewListenRepository(db),
		Cooldown:      r.config.Sync.Cooldown(),
		RateLimit:     r.config.Sync.RateLimit,
		Logger:        r.logger,
	}), nil
}

// requireToken returns the stored bearer token or fails with a pointer to
// the login command.
func (r *Runner) requireToken() (string, error) {
	token := r.config.Credentials.Spotify.AccessToken
	if token == "" {
		return "", fmt.Errorf("%w: run 'mf auth login' first", shared.ErrNotAuthenticated)
	}
	return token, nil
}

// resolveUser looks up a user by username.
func (r *Runner) resolveUser(username string) (*models.User, error) {
	if username == "" {
		return nil, fmt.Errorf("%w: username", shared.ErrMissingArgument)
	}

	db, err := r.ensureDatabase()
	if err != nil {
		return nil, err
	}

	user, err := repositories.NewUserRepository(db).GetByUsername(username)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", shared.ErrUserNotFound, username)
	}
	return user, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

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
