package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "club.db")
	path := writeFile(t, "config.yaml", "server:\n  api_key: secret\ndatabase:\n  path: "+dbPath+"\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.ListenAddr)
	assert.Equal(t, dbPath, cfg.Database.Path)
	assert.Equal(t, "secret", cfg.Server.APIKey)
	assert.Equal(t, 30*24.0, cfg.BookingMaxAdvance().Hours())

	rps, burst := cfg.RateLimit()
	assert.Equal(t, 20.0, rps)
	assert.Equal(t, 40, burst)
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("CLUBSPACE_API_KEY", "from-env")
	dbPath := filepath.Join(t.TempDir(), "club.db")
	path := writeFile(t, "config.yaml", "server:\n  api_key: ${CLUBSPACE_API_KEY}\ndatabase:\n  path: "+dbPath+"\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Server.APIKey)
}

func TestLoadSpacesConfig(t *testing.T) {
	path := writeFile(t, "spaces.yaml", `
spaces:
  - id: 1
    name: Court A
    capacity: 4
    is_active: true
    priced_blocks:
      - weekday: Tuesday
        start: "08:00"
        end: "10:00"
        price: "50.00"
      - weekday: Tuesday
        start: "10:00"
        end: "12:00"
        price: "65.00"
holidays:
  - date: "2025-01-01"
    name: New Year
`)

	cfg, err := LoadSpacesConfig(path)
	require.NoError(t, err)
	require.Len(t, cfg.Spaces, 1)
	assert.Len(t, cfg.Spaces[0].PricedBlocks, 2)

	ok, name := cfg.IsHoliday("2025-01-01")
	assert.True(t, ok)
	assert.Equal(t, "New Year", name)

	ok, _ = cfg.IsHoliday("2025-01-02")
	assert.False(t, ok)
}

func TestSpacesConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "no spaces",
			yaml:    "spaces: []\n",
			wantErr: "no spaces defined",
		},
		{
			name: "duplicate id",
			yaml: `
spaces:
  - {id: 1, name: A, is_active: true}
  - {id: 1, name: B, is_active: true}
`,
			wantErr: "duplicate id",
		},
		{
			name: "inverted priced block",
			yaml: `
spaces:
  - id: 1
    name: A
    is_active: true
    priced_blocks:
      - {weekday: Monday, start: "10:00", end: "09:00", price: "50.00"}
`,
			wantErr: "invalid interval",
		},
		{
			name: "ambiguous priced blocks",
			yaml: `
spaces:
  - id: 1
    name: A
    is_active: true
    priced_blocks:
      - {weekday: Monday, start: "09:00", end: "10:00", price: "50.00"}
      - {weekday: Monday, start: "09:00", end: "10:00", price: "60.00"}
`,
			wantErr: "duplicate priced block",
		},
		{
			name: "bad holiday date",
			yaml: `
spaces:
  - {id: 1, name: A, is_active: true}
holidays:
  - {date: "01.01.2025", name: New Year}
`,
			wantErr: "expected YYYY-MM-DD",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "spaces.yaml", tt.yaml)
			_, err := LoadSpacesConfig(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
