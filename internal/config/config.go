package config

import (
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Room is one bookable room: its DynamoDB table and the number of
// one-hour slots in its bookable day.
type Room struct {
	Table string
	Slots int
}

// Config holds all process configuration. It is built once by Load at
// startup and passed down explicitly; nothing reads the environment after
// that point.
type Config struct {
	Rooms         map[string]Room
	SenderAddress string
	CancelBaseURL string

	// BaseHour is the offset between a slot number and its wall-clock
	// start. Slot s spans (s+BaseHour):00 to (s+BaseHour+1):00.
	BaseHour int

	HTTPAddr      string
	EnableTracing bool
}

// Load reads configuration from the environment. Rooms come from
// ROOM_NAMES (comma separated), each mapped to its table via <NAME>_TABLE.
func Load() (*Config, error) {
	cfg := &Config{
		Rooms:         make(map[string]Room),
		SenderAddress: getEnvOrDefault("SENDER_ADDRESS", "bookings@example.com"),
		CancelBaseURL: getEnvOrDefault("CANCEL_BASE_URL", "https://example.com/cancelBooking"),
		BaseHour:      getEnvAsIntOrDefault("BASE_HOUR", 7),
		HTTPAddr:      getEnvOrDefault("HTTP_ADDR", ":8080"),
	}

	slots := getEnvAsIntOrDefault("SLOTS_PER_DAY", 16)
	if slots <= 0 {
		return nil, fmt.Errorf("SLOTS_PER_DAY must be positive, got %d", slots)
	}

	names := strings.Split(getEnvOrDefault("ROOM_NAMES", "QMB1,QMB2"), ",")
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		table := os.Getenv(name + "_TABLE")
		if table == "" {
			return nil, fmt.Errorf("missing table name for room %s: set %s_TABLE", name, name)
		}
		cfg.Rooms[name] = Room{Table: table, Slots: slots}
	}
	if len(cfg.Rooms) == 0 {
		return nil, fmt.Errorf("no rooms configured: ROOM_NAMES is empty")
	}

	// Tracing is opt-in via ENABLE_TRACING; AWS_XRAY_SDK_DISABLED=true
	// always wins.
	enableKey := os.Getenv("ENABLE_TRACING")
	if !sdkDisabled() && (strings.ToLower(enableKey) == "true" || enableKey == "1") {
		os.Setenv("AWS_XRAY_SDK_DISABLED", "FALSE")
		cfg.EnableTracing = true
	} else {
		os.Setenv("AWS_XRAY_SDK_DISABLED", "TRUE")
		cfg.EnableTracing = false
	}

	return cfg, nil
}

// RoomNames returns the configured room names in sorted order, so that
// cross-room operations visit tables deterministically.
func (c *Config) RoomNames() []string {
	names := make([]string, 0, len(c.Rooms))
	for name := range c.Rooms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidRoom reports whether name is a configured room.
func (c *Config) ValidRoom(name string) bool {
	_, ok := c.Rooms[name]
	return ok
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	log.Printf("Environment variable %s is not set, using default value", key)
	return defaultValue
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func sdkDisabled() bool {
	return strings.ToLower(os.Getenv("AWS_XRAY_SDK_DISABLED")) == "true"
}
