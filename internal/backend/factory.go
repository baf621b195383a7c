package backend

import (
	"context"
	"errors"
	"fmt"

	"calm/internal/log"
	"calm/internal/tasks/airtable"
	"calm/internal/tasks/memory"
	"calm/internal/tasks/notion"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if missing := config.Missing(); len(missing) > 0 {
		f.logger.WarnContext(ctx, "Backend credentials missing, affected endpoints will report a configuration error",
			log.FieldBackend, config.Type, "missing", missing)
	}

	switch config.Type {
	case NotionBackend:
		return f.createNotionBackend(ctx, config)
	case AirtableBackend:
		return f.createAirtableBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createNotionBackend(ctx context.Context, config Config) (*Result, error) {
	res := &Result{Type: NotionBackend}
	client, err := notion.New(config.Notion)
	if errors.Is(err, notion.ErrMissingAPIKey) {
		return res, nil
	}
	if err != nil {
		return nil, fmt.Errorf("initialize Notion client: %w", err)
	}

	// write-back only needs the key; queries also need the database
	res.Store = client
	if config.Notion.DatabaseID != "" {
		res.Reader = client
	}

	f.logger.InfoContext(ctx, "Initialized Notion backend",
		"charts_enabled", res.Reader != nil,
		"api_url", config.Notion.BaseURL)
	return res, nil
}

func (f *DefaultFactory) createAirtableBackend(ctx context.Context, config Config) (*Result, error) {
	res := &Result{Type: AirtableBackend}
	client, err := airtable.New(config.Airtable)
	if errors.Is(err, airtable.ErrMissingAPIKey) || errors.Is(err, airtable.ErrMissingBaseID) {
		return res, nil
	}
	if err != nil {
		return nil, fmt.Errorf("initialize Airtable client: %w", err)
	}
	res.Reader = client
	res.Store = client

	f.logger.InfoContext(ctx, "Initialized Airtable backend", "table", config.Airtable.TableName)
	return res, nil
}

func (f *DefaultFactory) createMemoryBackend(ctx context.Context, config Config) (*Result, error) {
	store, err := memory.NewFromFile(config.MemorySeedFile)
	if err != nil {
		return nil, fmt.Errorf("initialize memory backend: %w", err)
	}

	f.logger.InfoContext(ctx, "Initialized memory backend", "seed_file", config.MemorySeedFile)
	return &Result{Type: MemoryBackend, Reader: store, Store: store}, nil
}
