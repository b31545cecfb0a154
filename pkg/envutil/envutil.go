package envutil

import (
	"os"
	"strconv"
	"time"

	"github.com/sjc5/dispatch/pkg/colorlog"
)

var log = colorlog.New("envutil")

func GetStr(key string, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

func GetInt(key string, defaultValue int) int {
	return get(key, defaultValue, strconv.Atoi)
}

// GetBool accepts anything strconv.ParseBool does ("1", "true", "F", ...).
func GetBool(key string, defaultValue bool) bool {
	return get(key, defaultValue, strconv.ParseBool)
}

// GetDuration accepts time.ParseDuration syntax, such as "750ms" or "1m30s".
func GetDuration(key string, defaultValue time.Duration) time.Duration {
	return get(key, defaultValue, time.ParseDuration)
}

func get[T any](key string, defaultValue T, parse func(string) (T, error)) T {
	strValue, ok := os.LookupEnv(key)
	if !ok || strValue == "" {
		return defaultValue
	}
	value, err := parse(strValue)
	if err != nil {
		log.Warn("error parsing env var, using default", "key", key, "default", defaultValue, "error", err)
		return defaultValue
	}
	return value
}
