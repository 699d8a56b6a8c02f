package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPHost string
	HTTPPort string

	JWTSecret    string
	JWTAlgorithm string

	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	ResetTokenTTL   time.Duration

	PasswordPolicy PasswordPolicy

	DataDir           string
	SheetSources      []SheetSource
	SheetFetchTimeout time.Duration
	ChatCacheTTL      time.Duration

	DevAdmin DevAdmin
}

// DevAdmin is the development administrator seeded into the directory at
// startup when its email is not already registered.
type DevAdmin struct {
	Email    string
	Password string
	Name     string
}

// SheetSource describes one published Google Sheet mirrored into memory.
type SheetSource struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	Keywords []string `json:"keywords"`
	Type     string   `json:"type"`
	URL      string   `json:"url"`
}

type PasswordPolicy struct {
	MinLength        int
	RequireUppercase bool
	RequireLowercase bool
	RequireNumber    bool
	RequireSpecial   bool
}

func (p PasswordPolicy) Validate(password string) error {
	if len(password) < p.MinLength {
		return fmt.Errorf("password must be at least %d characters long", p.MinLength)
	}

	var hasUpper, hasLower, hasNumber, hasSpecial bool
	for _, ch := range password {
		switch {
		case unicode.IsUpper(ch):
			hasUpper = true
		case unicode.IsLower(ch):
			hasLower = true
		case unicode.IsDigit(ch):
			hasNumber = true
		case unicode.IsPunct(ch) || unicode.IsSymbol(ch):
			hasSpecial = true
		}
	}

	var missing []string
	if p.RequireUppercase && !hasUpper {
		missing = append(missing, "uppercase letter")
	}
	if p.RequireLowercase && !hasLower {
		missing = append(missing, "lowercase letter")
	}
	if p.RequireNumber && !hasNumber {
		missing = append(missing, "number")
	}
	if p.RequireSpecial && !hasSpecial {
		missing = append(missing, "special character")
	}

	if len(missing) > 0 {
		return fmt.Errorf("password must contain at least one: %s", strings.Join(missing, ", "))
	}

	return nil
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignores error if not found)
	_ = godotenv.Load()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET environment variable is required")
	}

	algorithm := getEnv("JWT_ALGORITHM", "HS256")
	switch algorithm {
	case "HS256", "HS384", "HS512":
	default:
		return nil, fmt.Errorf("unsupported JWT_ALGORITHM: %s", algorithm)
	}

	sheetSources, err := loadSheetSources()
	if err != nil {
		return nil, err
	}

	return &Config{
		HTTPHost:          getEnv("HTTP_HOST", ""),
		HTTPPort:          getEnv("HTTP_PORT", "8080"),
		JWTSecret:         jwtSecret,
		JWTAlgorithm:      algorithm,
		AccessTokenTTL:    getMinutesEnv("ACCESS_TOKEN_EXPIRE_MINUTES", 30*time.Minute),
		RefreshTokenTTL:   getDaysEnv("REFRESH_TOKEN_EXPIRE_DAYS", 7*24*time.Hour),
		ResetTokenTTL:     getMinutesEnv("PASSWORD_RESET_EXPIRE_MINUTES", time.Hour),
		PasswordPolicy:    loadPasswordPolicy(),
		DataDir:           getEnv("DATA_DIR", "data"),
		SheetSources:      sheetSources,
		SheetFetchTimeout: getSecondsEnv("SHEET_FETCH_TIMEOUT_SECONDS", 10*time.Second),
		ChatCacheTTL:      getMinutesEnv("CACHE_EXPIRY_MINUTES", 30*time.Minute),
		DevAdmin: DevAdmin{
			Email:    getEnv("DEV_ADMIN_EMAIL", "admin@example.com"),
			Password: getEnv("DEV_ADMIN_PASSWORD", "Admin123!"),
			Name:     getEnv("DEV_ADMIN_NAME", "Admin"),
		},
	}, nil
}

func (c *Config) UploadsDir() string {
	return filepath.Join(c.DataDir, "uploads")
}

func (c *Config) ExportsDir() string {
	return filepath.Join(c.DataDir, "exports")
}

func (c *Config) ChartsDir() string {
	return filepath.Join(c.DataDir, "charts")
}

func (c *Config) LogsFile() string {
	return filepath.Join(c.DataDir, "logs.csv")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getMinutesEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if minutes, err := strconv.Atoi(value); err == nil {
			return time.Duration(minutes) * time.Minute
		}
	}
	return defaultValue
}

func getDaysEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if days, err := strconv.Atoi(value); err == nil {
			return time.Duration(days) * 24 * time.Hour
		}
	}
	return defaultValue
}

func getSecondsEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func loadPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:        getIntEnv("PASSWORD_MIN_LENGTH", 8),
		RequireUppercase: getBoolEnv("PASSWORD_REQUIRE_UPPERCASE", true),
		RequireLowercase: getBoolEnv("PASSWORD_REQUIRE_LOWERCASE", true),
		RequireNumber:    getBoolEnv("PASSWORD_REQUIRE_NUMBER", true),
		RequireSpecial:   getBoolEnv("PASSWORD_REQUIRE_SPECIAL", true),
	}
}

// loadSheetSources reads SHEET_SOURCES_JSON when set, otherwise falls back to
// the built-in published-sheet list.
func loadSheetSources() ([]SheetSource, error) {
	raw := os.Getenv("SHEET_SOURCES_JSON")
	if raw == "" {
		return defaultSheetSources(), nil
	}

	var sources []SheetSource
	if err := json.Unmarshal([]byte(raw), &sources); err != nil {
		return nil, fmt.Errorf("invalid SHEET_SOURCES_JSON: %w", err)
	}
	for _, s := range sources {
		if s.ID == "" || s.URL == "" {
			return nil, errors.New("sheet sources require id and url")
		}
	}
	return sources, nil
}

func defaultSheetSources() []SheetSource {
	const sheetBase = "https://docs.google.com/spreadsheets/d/e/2PACX-1vR9lG9sbtgRqV0PLkyjT8R9znpC9ECGurgfelIhn_q5BwgThg6SpdfE2R30obAAaawk0FIGLlBowjt_/pub"

	return []SheetSource{
		{
			ID:       "leads",
			Label:    "Novos Clientes",
			Keywords: []string{"novos", "cidade", "leads"},
			Type:     "city_leads",
			URL:      sheetBase + "?gid=0&single=true&output=csv",
		},
		{
			ID:       "queijo",
			Label:    "Queijo do Reino",
			Keywords: []string{"queijo", "reino"},
			Type:     "client_code_details",
			URL:      sheetBase + "?gid=1824827366&single=true&output=csv",
		},
		{
			ID:       "nao_cobertos_fornecedor",
			Label:    "Não Cobertos (Fornecedor)",
			Keywords: []string{"não", "cobertos", "fornecedor"},
			Type:     "supplier_coverage",
			URL:      sheetBase + "?gid=1981950621&single=true&output=csv",
		},
	}
}
