package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

var (
	ErrNotFound   = errors.New("config: not found")
	ErrMalformed  = errors.New("config: malformed")
	ErrMissingKey = errors.New("config: missing required key")
)

const (
	testServersKey      = "test-servers"
	syncGatewaysKey     = "sync-gateways"
	couchbaseServersKey = "couchbase-servers"
	sgwCertsKey         = "sync-gateways-tls-certs"
	apiVersionKey       = "api-version"
)

// DefaultAPIVersion applies when the config file does not pin one.
const DefaultAPIVersion = 1

// Parsed is the validated cluster topology handed to the orchestration
// layer. Immutable after Load.
type Parsed struct {
	TestServers      []string
	SyncGateways     []string
	CouchbaseServers []string
	SyncGatewayCerts []string
	APIVersion       int
}

// Load reads and validates the JSON cluster config at path.
func Load(path string) (*Parsed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return cfg, nil
}

// Parse validates a raw JSON config document.
func Parse(data []byte) (*Parsed, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	testServers, err := requireStringList(raw, testServersKey)
	if err != nil {
		return nil, err
	}
	syncGateways, err := requireStringList(raw, syncGatewaysKey)
	if err != nil {
		return nil, err
	}
	couchbaseServers, err := requireStringList(raw, couchbaseServersKey)
	if err != nil {
		return nil, err
	}
	certs, err := optionalStringList(raw, sgwCertsKey)
	if err != nil {
		return nil, err
	}
	apiVersion, err := intOrDefault(raw, apiVersionKey, DefaultAPIVersion)
	if err != nil {
		return nil, err
	}

	return &Parsed{
		TestServers:      testServers,
		SyncGateways:     syncGateways,
		CouchbaseServers: couchbaseServers,
		SyncGatewayCerts: certs,
		APIVersion:       apiVersion,
	}, nil
}

func (c *Parsed) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "API Version: %d\n", c.APIVersion)
	fmt.Fprintf(&sb, "Test Servers: %s\n", strings.Join(c.TestServers, ", "))
	fmt.Fprintf(&sb, "Sync Gateways: %s\n", strings.Join(c.SyncGateways, ", "))
	fmt.Fprintf(&sb, "Couchbase Servers: %s\n", strings.Join(c.CouchbaseServers, ", "))
	if len(c.SyncGatewayCerts) > 0 {
		sb.WriteString("TLS Enabled: Yes")
	} else {
		sb.WriteString("TLS Enabled: No")
	}
	return sb.String()
}

func requireStringList(raw map[string]any, key string) ([]string, error) {
	value, ok := raw[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingKey, key)
	}
	list, err := asStringList(value)
	if err != nil {
		return nil, fmt.Errorf("%w: key %q: %v", ErrMalformed, key, err)
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("%w: key %q must not be empty", ErrMalformed, key)
	}
	return list, nil
}

func optionalStringList(raw map[string]any, key string) ([]string, error) {
	value, ok := raw[key]
	if !ok {
		return nil, nil
	}
	list, err := asStringList(value)
	if err != nil {
		return nil, fmt.Errorf("%w: key %q: %v", ErrMalformed, key, err)
	}
	return list, nil
}

func asStringList(value any) ([]string, error) {
	items, ok := value.([]any)
	if !ok {
		return nil, errors.New("not an array")
	}
	list := make([]string, 0, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("entry %d is not a string", i)
		}
		list = append(list, s)
	}
	return list, nil
}

func intOrDefault(raw map[string]any, key string, fallback int) (int, error) {
	value, ok := raw[key]
	if !ok {
		return fallback, nil
	}
	f, ok := value.(float64)
	if !ok || f != float64(int(f)) {
		return 0, fmt.Errorf("%w: key %q is not an integer", ErrMalformed, key)
	}
	return int(f), nil
}
