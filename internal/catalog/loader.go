package catalog

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/mod/semver"
)

// supportedMajor is the catalog document major version this build understands.
const supportedMajor = "v1"

//go:embed seed.json
var seedDocument []byte

// ErrCatalogLoad indicates the content source could not be loaded after
// retries. The application degrades to an empty catalog instead of failing.
type ErrCatalogLoad struct {
	Source string
	Err    error
}

func (e *ErrCatalogLoad) Error() string {
	return fmt.Sprintf("load catalog from %s: %v", e.Source, e.Err)
}

func (e *ErrCatalogLoad) Unwrap() error { return e.Err }

// Config controls where and how the catalog is loaded.
type Config struct {
	// Source is a file path or http(s) URL. Empty means the embedded
	// seed catalog.
	Source string

	// MaxAttempts bounds the fetch retries for URL sources.
	MaxAttempts int

	// Backoff is the fixed wait between fetch attempts.
	Backoff time.Duration

	// HTTPClient overrides the default client (used in tests).
	HTTPClient *http.Client
}

// DefaultConfig builds a Config from the environment.
func DefaultConfig() Config {
	return Config{
		Source:      os.Getenv("DEFENDIQ_CATALOG"),
		MaxAttempts: 3,
		Backoff:     500 * time.Millisecond,
	}
}

// Load reads, validates, and builds the catalog. A fetch failure is
// returned as *ErrCatalogLoad so the caller can enter degraded mode;
// a validation failure on an explicitly configured source is returned
// the same way.
func Load(ctx context.Context, cfg Config) (*Catalog, error) {
	raw, err := readSource(ctx, cfg)
	if err != nil {
		return nil, &ErrCatalogLoad{Source: sourceLabel(cfg.Source), Err: err}
	}

	doc, err := Parse(raw)
	if err != nil {
		return nil, &ErrCatalogLoad{Source: sourceLabel(cfg.Source), Err: err}
	}

	return New(doc.Modules), nil
}

// Parse validates raw catalog JSON and decodes it into a Document.
func Parse(raw []byte) (*Document, error) {
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	schema, err := compiledSchema()
	if err != nil {
		return nil, fmt.Errorf("compile catalog schema: %w", err)
	}
	if err := schema.Validate(parsed); err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}

	if err := validateDocument(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// validateDocument applies the checks the schema cannot express:
// version compatibility, unique keys, and in-range correct indices.
func validateDocument(doc *Document) error {
	v := "v" + doc.Version
	if !semver.IsValid(v) {
		return fmt.Errorf("invalid catalog version %q", doc.Version)
	}
	if semver.Major(v) != supportedMajor {
		return fmt.Errorf("unsupported catalog version %s (want major %s)", doc.Version, supportedMajor)
	}

	seen := make(map[string]bool, len(doc.Modules))
	for _, m := range doc.Modules {
		if seen[m.Key] {
			return fmt.Errorf("duplicate module key %q", m.Key)
		}
		seen[m.Key] = true

		for i, q := range m.Questions {
			if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
				return fmt.Errorf("module %q question %d: correct index %d out of range (%d options)",
					m.Key, i, q.CorrectIndex, len(q.Options))
			}
		}
	}
	return nil
}

func readSource(ctx context.Context, cfg Config) ([]byte, error) {
	switch {
	case cfg.Source == "":
		return seedDocument, nil
	case strings.HasPrefix(cfg.Source, "http://"), strings.HasPrefix(cfg.Source, "https://"):
		return fetchWithRetry(ctx, cfg)
	default:
		return os.ReadFile(cfg.Source)
	}
}

// fetchWithRetry performs a bounded fixed-backoff fetch of a URL source.
func fetchWithRetry(ctx context.Context, cfg Config) ([]byte, error) {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := range attempts {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(cfg.Backoff):
			}
		}

		raw, err := fetchOnce(ctx, client, cfg.Source)
		if err == nil {
			return raw, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("after %d attempts: %w", attempts, lastErr)
}

func fetchOnce(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, url)
	}
	return io.ReadAll(resp.Body)
}

func sourceLabel(source string) string {
	if source == "" {
		return "embedded seed"
	}
	return source
}

var (
	schemaOnce sync.Once
	schemaVal  *jsonschema.Schema
	schemaErr  error
)

// compiledSchema compiles the catalog schema once per process.
func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		defBytes, err := json.Marshal(documentSchema)
		if err != nil {
			schemaErr = fmt.Errorf("marshal schema definition: %w", err)
			return
		}
		var defParsed any
		if err := json.Unmarshal(defBytes, &defParsed); err != nil {
			schemaErr = fmt.Errorf("parse schema definition: %w", err)
			return
		}

		c := jsonschema.NewCompiler()
		if err := c.AddResource("schema://catalog.json", defParsed); err != nil {
			schemaErr = fmt.Errorf("add resource: %w", err)
			return
		}
		schemaVal, schemaErr = c.Compile("schema://catalog.json")
	})
	return schemaVal, schemaErr
}
