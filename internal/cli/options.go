package cli

import (
	"fmt"
	"os"
)

// EnvRedisURL is read when --redis-url is not given.
const EnvRedisURL = "AUTOMATON_REDIS_URL"

// EnvEncryptionKey is read when --encryption-key is not given.
const EnvEncryptionKey = "AUTOMATON_ENCRYPTION_KEY"

// Store backends accepted by --store.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// Options gathers every flag the commands share.
type Options struct {
	DefinitionPath string
	Debug          bool
	LogFormat      string

	// run
	JSON      bool
	SessionID string
	Fresh     bool

	// persistence
	Store      string
	SessionDir string
	RedisURL   string
	// EncryptionKey is a base64 AES-256 key sealing stored snapshots.
	EncryptionKey string

	// serve / mcp
	Port    int
	Metrics bool
	Watch   bool
	SSE     bool
}

// redisURL resolves the flag, then the environment.
func (o Options) redisURL() string {
	if o.RedisURL != "" {
		return o.RedisURL
	}
	return os.Getenv(EnvRedisURL)
}

func (o Options) encryptionKey() string {
	if o.EncryptionKey != "" {
		return o.EncryptionKey
	}
	return os.Getenv(EnvEncryptionKey)
}

// storeKind picks the backend: explicit flag first, then redis when a URL is
// configured, then file for named sessions and memory otherwise.
func (o Options) storeKind() (string, error) {
	switch o.Store {
	case StoreMemory, StoreFile, StoreRedis:
		return o.Store, nil
	case "":
	default:
		return "", fmt.Errorf("unknown store %q (want memory, file or redis)", o.Store)
	}
	if o.redisURL() != "" {
		return StoreRedis, nil
	}
	if o.SessionID != "" {
		return StoreFile, nil
	}
	return StoreMemory, nil
}
