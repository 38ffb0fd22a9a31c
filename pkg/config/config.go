package config

import (
	"os"
	"strconv"
	"strings"
)

type AdminEntry struct {
	Email string
	Label string
}

type Config struct {
	ServiceName string

	ServerPort int

	DatabaseURL string

	JWTAccessSecret  []byte
	JWTRefreshSecret []byte

	KafkaBrokers []string

	ESURL      string
	ESUser     string
	ESPassword string

	StorageURL    string
	StorageKey    string
	StorageBucket string

	AdminEmails []AdminEntry

	ShippingFee int64
}

func Load() Config {
	return Config{
		ServiceName: EnvDefault("SERVICE_NAME", "storefront"),

		ServerPort: EnvIntDefault("SERVER_PORT", 8080),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTAccessSecret:  []byte(os.Getenv("JWT_SECRET")),
		JWTRefreshSecret: []byte(os.Getenv("JWT_REFRESH_SECRET")),

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),

		StorageURL:    os.Getenv("STORAGE_URL"),
		StorageKey:    os.Getenv("STORAGE_KEY"),
		StorageBucket: EnvDefault("STORAGE_BUCKET", "putridev"),

		AdminEmails: ParseAdminList(os.Getenv("ADMIN_EMAILS")),

		ShippingFee: int64(EnvIntDefault("SHIPPING_FEE", 15000)),
	}
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ParseAdminList parses the admin allow-list from "email=Label,email2=Label2"
// form. An entry without "=" gets an empty label.
func ParseAdminList(v string) []AdminEntry {
	var out []AdminEntry
	for _, p := range CSV(v) {
		email, label, _ := strings.Cut(p, "=")
		email = strings.ToLower(strings.TrimSpace(email))
		if email == "" {
			continue
		}
		out = append(out, AdminEntry{Email: email, Label: strings.TrimSpace(label)})
	}
	return out
}

func EnvDefault(key, def string) string {
	if os.Getenv(key) != "" {
		return os.Getenv(key)
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
