package cli

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/canvasflow"
	"github.com/aretw0/canvasflow/pkg/adapters/file"
	"github.com/aretw0/canvasflow/pkg/adapters/memory"
	"github.com/aretw0/canvasflow/pkg/adapters/process"
	redisadapter "github.com/aretw0/canvasflow/pkg/adapters/redis"
	"github.com/aretw0/canvasflow/pkg/domain"
	"github.com/aretw0/canvasflow/pkg/persistence/middleware"
	"github.com/aretw0/canvasflow/pkg/ports"
	"github.com/aretw0/canvasflow/pkg/runner"
	goredis "github.com/redis/go-redis/v9"
)

// Store backends accepted by EngineOptions.Store.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// EngineOptions configures the engine shared by every command.
type EngineOptions struct {
	// HandlersPath is a YAML file of process handlers. A missing file is
	// not an error.
	HandlersPath string
	// DryRun echoes inputs for node types without a handler.
	DryRun bool
	Mode   domain.ExecutionMode
	// Timeout bounds each handler call when positive.
	Timeout time.Duration

	Store     string
	StoreDir  string
	RedisAddr string
	RedisDB   int
	// EncryptKey is a hex AES-256 key sealing persisted snapshots.
	EncryptKey string
	// Redact masks output keys matching these patterns in snapshots.
	Redact []string

	Hooks domain.LifecycleHooks
}

// Closer releases resources held by an engine.
type Closer func() error

// NewEngine builds an engine from opts.
func NewEngine(opts EngineOptions, logger *slog.Logger) (*canvasflow.Engine, Closer, error) {
	store, locker, closeStore, err := createStore(opts)
	if err != nil {
		return nil, nil, err
	}
	store, err = wrapStore(store, opts)
	if err != nil {
		closeStore()
		return nil, nil, err
	}

	engineOpts := []canvasflow.Option{
		canvasflow.WithLogger(logger),
		canvasflow.WithStore(store),
		canvasflow.WithLifecycleHooks(opts.Hooks),
	}
	if locker != nil {
		engineOpts = append(engineOpts, canvasflow.WithLocker(locker))
	}
	if opts.Mode != "" {
		engineOpts = append(engineOpts, canvasflow.WithMode(opts.Mode))
	}
	if opts.DryRun {
		engineOpts = append(engineOpts, canvasflow.WithDryRun())
	}
	eng := canvasflow.New(engineOpts...)

	if opts.HandlersPath != "" {
		handlers, err := process.LoadHandlers(opts.HandlersPath)
		if err != nil {
			closeStore()
			return nil, nil, err
		}
		if len(handlers) > 0 {
			logger.Debug("process handlers loaded", "path", opts.HandlersPath, "count", len(handlers))
			eng.HandleProcesses(process.NewRunner(
				process.WithHandlers(handlers),
				process.WithBaseDir(filepath.Dir(opts.HandlersPath)),
			))
		}
	}
	if opts.Timeout > 0 {
		eng.Use(runner.WithTimeout(opts.Timeout))
	}
	eng.Use(runner.WithLogging(logger))

	return eng, closeStore, nil
}

func createStore(opts EngineOptions) (ports.RunStore, ports.DistributedLocker, Closer, error) {
	noop := func() error { return nil }
	switch opts.Store {
	case "", StoreMemory:
		return memory.NewStore(), nil, noop, nil
	case StoreFile:
		dir := opts.StoreDir
		if dir == "" {
			dir = filepath.Join(".canvasflow", "runs")
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, nil, fmt.Errorf("failed to create store directory: %w", err)
		}
		return file.NewStore(dir), nil, noop, nil
	case StoreRedis:
		addr := opts.RedisAddr
		if addr == "" {
			addr = "localhost:6379"
		}
		client := goredis.NewClient(&goredis.Options{Addr: addr, DB: opts.RedisDB})
		store := redisadapter.NewFromClient(client)
		locker := redisadapter.NewLocker(client, "canvasflow:")
		return store, locker, client.Close, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown store %q (want memory, file or redis)", opts.Store)
	}
}

func wrapStore(store ports.RunStore, opts EngineOptions) (ports.RunStore, error) {
	var mws []middleware.Middleware
	if len(opts.Redact) > 0 {
		redact, err := middleware.NewRedactMiddleware(opts.Redact...)
		if err != nil {
			return nil, err
		}
		mws = append(mws, redact)
	}
	if opts.EncryptKey != "" {
		key, err := hex.DecodeString(opts.EncryptKey)
		if err != nil {
			return nil, fmt.Errorf("invalid encryption key: %w", err)
		}
		enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
		if err != nil {
			return nil, err
		}
		mws = append(mws, enc)
	}
	return middleware.Chain(store, mws...), nil
}
