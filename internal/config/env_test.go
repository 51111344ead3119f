package config

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	clearEnvVars(t)

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, 7860, cfg.Port)
	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Equal(t, "pretty", cfg.LogFormat)
	assert.Equal(t, "UI_test_images", cfg.ExamplesDir)
	assert.Equal(t, int64(10485760), cfg.MaxUploadBytes)
	assert.Equal(t, 0, cfg.MaxImageDimension)
	assert.Equal(t, int64(DefaultMaxImagePixels), cfg.MaxImagePixels)
	assert.False(t, cfg.ParallelEnrichment)

	assert.Equal(t, "", cfg.CustomVision.Endpoint)
	assert.Equal(t, "", cfg.CustomVision.Key)
	assert.Equal(t, 60.0, cfg.CustomVision.Timeout)
	assert.Equal(t, 2, cfg.CustomVision.MaxRetries)
	assert.Equal(t, "gpt-4o", cfg.OpenAI.Model)
	assert.Equal(t, 60.0, cfg.OpenAI.Timeout)
}

func TestEnvDefaults_MatchConfigDefaults(t *testing.T) {
	// Struct tag defaults must be literals, so keep them in sync with the constants.
	clearEnvVars(t)

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, DefaultHost, cfg.Host, "Host struct tag default should match DefaultHost")
	assert.Equal(t, DefaultPort, cfg.Port, "Port struct tag default should match DefaultPort")
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel, "LogLevel struct tag default should match DefaultLogLevel")
	assert.Equal(t, DefaultExamplesDir, cfg.ExamplesDir, "ExamplesDir struct tag default should match DefaultExamplesDir")
	assert.Equal(t, int64(DefaultMaxUploadBytes), cfg.MaxUploadBytes, "MaxUploadBytes struct tag default should match DefaultMaxUploadBytes")
	assert.Equal(t, int64(DefaultMaxImagePixels), cfg.MaxImagePixels, "MaxImagePixels struct tag default should match DefaultMaxImagePixels")
	assert.Equal(t, DefaultChatModel, cfg.OpenAI.Model, "Model struct tag default should match DefaultChatModel")

	for name, ep := range map[string]struct {
		timeout, initialDelay, backoff float64
		retries                        int
	}{
		"custom vision": {cfg.CustomVision.Timeout, cfg.CustomVision.InitialDelay, cfg.CustomVision.BackoffFactor, cfg.CustomVision.MaxRetries},
		"openai":        {cfg.OpenAI.Timeout, cfg.OpenAI.InitialDelay, cfg.OpenAI.BackoffFactor, cfg.OpenAI.MaxRetries},
	} {
		assert.Equal(t, DefaultEndpointTimeout.Seconds(), ep.timeout, name)
		assert.Equal(t, DefaultEndpointInitialDelay.Seconds(), ep.initialDelay, name)
		assert.Equal(t, DefaultEndpointBackoffFactor, ep.backoff, name)
		assert.Equal(t, DefaultEndpointMaxRetries, ep.retries, name)
	}
}

func TestLoadFromEnv_OverrideValues(t *testing.T) {
	clearEnvVars(t)

	t.Setenv("HOST", "127.0.0.1")
	t.Setenv("PORT", "9000")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("EXAMPLES_DIR", "/srv/examples")
	t.Setenv("MAX_UPLOAD_BYTES", "2048")
	t.Setenv("MAX_IMAGE_DIMENSION", "1024")
	t.Setenv("MAX_IMAGE_PIXELS", "4000000")
	t.Setenv("PARALLEL_ENRICHMENT", "true")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "DEBUG", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "/srv/examples", cfg.ExamplesDir)
	assert.Equal(t, int64(2048), cfg.MaxUploadBytes)
	assert.Equal(t, 1024, cfg.MaxImageDimension)
	assert.Equal(t, int64(4000000), cfg.MaxImagePixels)
	assert.True(t, cfg.ParallelEnrichment)
}

func TestLoadFromEnv_CustomVision(t *testing.T) {
	clearEnvVars(t)

	t.Setenv("CUSTOM_VISION_ENDPOINT", "https://batvision.cognitiveservices.azure.com")
	t.Setenv("CUSTOM_VISION_KEY", "cv-key")
	t.Setenv("CUSTOM_VISION_PROJECT_ID", "project-1")
	t.Setenv("CUSTOM_VISION_PUBLISHED_NAME", "Iteration3")
	t.Setenv("CUSTOM_VISION_TIMEOUT", "15")
	t.Setenv("CUSTOM_VISION_MAX_RETRIES", "0")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "https://batvision.cognitiveservices.azure.com", cfg.CustomVision.Endpoint)
	assert.Equal(t, "cv-key", cfg.CustomVision.Key)
	assert.Equal(t, "project-1", cfg.CustomVision.ProjectID)
	assert.Equal(t, "Iteration3", cfg.CustomVision.PublishedName)
	assert.Equal(t, 15.0, cfg.CustomVision.Timeout)
	assert.Equal(t, 0, cfg.CustomVision.MaxRetries)
}

func TestLoadFromEnv_OpenAI(t *testing.T) {
	clearEnvVars(t)

	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_BASE_URL", "http://localhost:4000/v1")
	t.Setenv("OPENAI_MODEL", "gpt-4o-mini")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.OpenAI.APIKey)
	assert.Equal(t, "http://localhost:4000/v1", cfg.OpenAI.BaseURL)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
}

func TestEnvConfig_ToAppConfig(t *testing.T) {
	env := EnvConfig{
		Host:               "localhost",
		Port:               9090,
		LogLevel:           "WARN",
		LogFormat:          "json",
		ExamplesDir:        "samples",
		MaxUploadBytes:     4096,
		MaxImageDimension:  800,
		MaxImagePixels:     1000000,
		ParallelEnrichment: true,
		CustomVision: CustomVisionEnv{
			Endpoint:      " https://cv.example.com/ ",
			Key:           "cv-key",
			ProjectID:     "p",
			PublishedName: "it",
			Timeout:       30,
			MaxRetries:    1,
			InitialDelay:  0.5,
			BackoffFactor: 3,
		},
		OpenAI: OpenAIEnv{
			APIKey:        "sk",
			Model:         "gpt-4o",
			Timeout:       45,
			MaxRetries:    4,
			InitialDelay:  1,
			BackoffFactor: 2,
		},
	}

	cfg := env.ToAppConfig()

	assert.Equal(t, "localhost:9090", cfg.Addr())
	assert.Equal(t, "WARN", cfg.LogLevel())
	assert.Equal(t, LogFormatJSON, cfg.LogFormat())
	assert.Equal(t, "samples", cfg.ExamplesDir())
	assert.Equal(t, int64(4096), cfg.MaxUploadBytes())
	assert.Equal(t, 800, cfg.MaxImageDimension())
	assert.Equal(t, int64(1000000), cfg.MaxImagePixels())
	assert.True(t, cfg.ParallelEnrichment())

	cv := cfg.CustomVision()
	assert.Equal(t, "https://cv.example.com/", cv.Endpoint())
	assert.Equal(t, "cv-key", cv.Key())
	assert.Equal(t, 30*time.Second, cv.Timeout())
	assert.Equal(t, 1, cv.MaxRetries())
	assert.Equal(t, 500*time.Millisecond, cv.InitialDelay())
	assert.Equal(t, 3.0, cv.BackoffFactor())
	assert.Equal(t, "https://cv.example.com/customvision/v3.0/Prediction/p/classify/iterations/it/image", cv.PredictionURL())

	oa := cfg.OpenAI()
	assert.Equal(t, "sk", oa.APIKey())
	assert.Equal(t, "", oa.BaseURL())
	assert.Equal(t, 45*time.Second, oa.Timeout())
	assert.Equal(t, 4, oa.MaxRetries())
}

func TestParseLogFormat(t *testing.T) {
	tests := []struct {
		input    string
		expected LogFormat
	}{
		{"json", LogFormatJSON},
		{"JSON", LogFormatJSON},
		{"pretty", LogFormatPretty},
		{"", LogFormatPretty},
		{"other", LogFormatPretty},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLogFormat(tt.input))
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	tmpDir := t.TempDir()
	envFile := filepath.Join(tmpDir, ".env")
	content := `CUSTOM_VISION_ENDPOINT=https://from.dotenv
LOG_LEVEL=DEBUG
`
	err := os.WriteFile(envFile, []byte(content), 0o644)
	require.NoError(t, err)

	clearEnvVars(t)

	err = LoadDotEnv(envFile)
	require.NoError(t, err)

	assert.Equal(t, "https://from.dotenv", os.Getenv("CUSTOM_VISION_ENDPOINT"))
	assert.Equal(t, "DEBUG", os.Getenv("LOG_LEVEL"))
}

func TestLoadDotEnv_DoesNotOverrideEnvironment(t *testing.T) {
	tmpDir := t.TempDir()
	envFile := filepath.Join(tmpDir, ".env")
	err := os.WriteFile(envFile, []byte("LOG_LEVEL=DEBUG\n"), 0o644)
	require.NoError(t, err)

	clearEnvVars(t)
	t.Setenv("LOG_LEVEL", "ERROR")

	require.NoError(t, LoadDotEnv(envFile))
	assert.Equal(t, "ERROR", os.Getenv("LOG_LEVEL"))
}

func TestLoadDotEnv_NamedFileMustExist(t *testing.T) {
	clearEnvVars(t)

	err := LoadDotEnv("/nonexistent/.env")
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Contains(t, err.Error(), "load env file /nonexistent/.env")
}

func TestLoadDotEnv_DefaultFile(t *testing.T) {
	clearEnvVars(t)
	dir := t.TempDir()
	t.Chdir(dir)

	require.NoError(t, LoadDotEnv(""), "a missing default file is not an error")

	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultEnvFile), []byte("EXAMPLES_DIR=/srv/examples\n"), 0o600))
	require.NoError(t, LoadDotEnv(""))
	assert.Equal(t, "/srv/examples", os.Getenv("EXAMPLES_DIR"))
}

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	envFile := filepath.Join(tmpDir, ".env")
	content := `CUSTOM_VISION_ENDPOINT=https://cv.example.com
CUSTOM_VISION_KEY=0123456789abcdef
OPENAI_API_KEY=sk-dotenv
LOG_LEVEL=WARN
`
	err := os.WriteFile(envFile, []byte(content), 0o644)
	require.NoError(t, err)

	clearEnvVars(t)

	cfg, err := LoadConfig(envFile)
	require.NoError(t, err)

	assert.Equal(t, "WARN", cfg.LogLevel())
	assert.Equal(t, "https://cv.example.com", cfg.CustomVision().Endpoint())
	assert.Equal(t, "sk-dotenv", cfg.OpenAI().APIKey())
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_MissingSecretsFailValidation(t *testing.T) {
	clearEnvVars(t)

	empty := filepath.Join(t.TempDir(), "empty.env")
	require.NoError(t, os.WriteFile(empty, nil, 0o600))

	cfg, err := LoadConfig(empty)
	require.NoError(t, err)

	var missing *MissingValueError
	require.ErrorAs(t, cfg.Validate(), &missing)
	assert.Equal(t, EnvCustomVisionEndpoint, missing.Variable())
}

// clearEnvVars unsets every variable the loader reads and restores them after the test.
func clearEnvVars(t *testing.T) {
	t.Helper()

	vars := []string{
		"HOST",
		"PORT",
		"LOG_LEVEL",
		"LOG_FORMAT",
		"EXAMPLES_DIR",
		"MAX_UPLOAD_BYTES",
		"MAX_IMAGE_DIMENSION",
		"MAX_IMAGE_PIXELS",
		"PARALLEL_ENRICHMENT",
		"CUSTOM_VISION_ENDPOINT",
		"CUSTOM_VISION_KEY",
		"CUSTOM_VISION_PROJECT_ID",
		"CUSTOM_VISION_PUBLISHED_NAME",
		"CUSTOM_VISION_TIMEOUT",
		"CUSTOM_VISION_MAX_RETRIES",
		"CUSTOM_VISION_INITIAL_DELAY",
		"CUSTOM_VISION_BACKOFF_FACTOR",
		"OPENAI_API_KEY",
		"OPENAI_BASE_URL",
		"OPENAI_MODEL",
		"OPENAI_TIMEOUT",
		"OPENAI_MAX_RETRIES",
		"OPENAI_INITIAL_DELAY",
		"OPENAI_BACKOFF_FACTOR",
	}

	for _, v := range vars {
		t.Setenv(v, "")
		_ = os.Unsetenv(v)
	}
}
