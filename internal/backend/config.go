package backend

import (
	"fmt"
	"net/http"
	"time"

	"calm/internal/config"
	"calm/internal/tasks/airtable"
	"calm/internal/tasks/notion"
)

const upstreamTimeout = 20 * time.Second

// Config holds configuration for backend creation
type Config struct {
	Type           BackendType
	Notion         notion.Config
	Airtable       airtable.Config
	MemorySeedFile string
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.TaskBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.TaskBackend)
	}

	return Config{
		Type: backendType,
		Notion: notion.Config{
			APIKey:     appConfig.NotionAPIKey,
			DatabaseID: appConfig.NotionDatabaseID,
			BaseURL:    appConfig.NotionAPIURL,
			Version:    appConfig.NotionVersion,
			HTTPClient: &http.Client{Timeout: upstreamTimeout},
		},
		Airtable: airtable.Config{
			APIKey:    appConfig.AirtableAPIKey,
			BaseID:    appConfig.AirtableBaseID,
			TableName: appConfig.AirtableTableName,
		},
		MemorySeedFile: appConfig.MemorySeedFile,
	}, nil
}

// Validate checks the backend type only: missing credentials are not fatal
// and surface as configuration errors on the affected endpoints.
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	return nil
}

// ChartSecrets names the credentials the selected backend needs to serve charts.
func (c Config) ChartSecrets() []string {
	switch c.Type {
	case NotionBackend:
		return []string{"NOTION_API_KEY", "NOTION_DATABASE_ID"}
	case AirtableBackend:
		return []string{"AIRTABLE_API_KEY", "AIRTABLE_BASE_ID"}
	}
	return nil
}

// Missing lists the credentials the selected backend lacks.
func (c Config) Missing() []string {
	var missing []string
	switch c.Type {
	case NotionBackend:
		if c.Notion.APIKey == "" {
			missing = append(missing, "NOTION_API_KEY")
		}
		if c.Notion.DatabaseID == "" {
			missing = append(missing, "NOTION_DATABASE_ID")
		}
	case AirtableBackend:
		if c.Airtable.APIKey == "" {
			missing = append(missing, "AIRTABLE_API_KEY")
		}
		if c.Airtable.BaseID == "" {
			missing = append(missing, "AIRTABLE_BASE_ID")
		}
	}
	return missing
}
