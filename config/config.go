package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment  string
	Domains      []string
	CertCacheDir string
	HTTPPort     string
	HTTPSPort    string
	BasePaths    []string

	HFAPIToken           string
	HFAPIURL             string
	InferenceTimeout     time.Duration
	InferenceMaxAttempts int
	InferenceRetryDelay  time.Duration

	ParaphraseModels []string
	RewriteModel     string
	DetectorModels   []string

	LogDir   string
	LogLevel string
}

var isTest bool

func init() {
	isTest = os.Getenv("GO_ENVIRONMENT") == "test"
	if !isTest {
		err := godotenv.Load()
		if err != nil {
			log.Println("Warning: Error loading .env file:", err)
		}
	}
}

func Load() Config {
	return Config{
		Environment:  getEnv("ENVIRONMENT", "development"),
		Domains:      getEnvAsList("DOMAIN", []string{"example.com"}),
		CertCacheDir: getEnv("CERT_CACHE_DIR", "/etc/letsencrypt/live/example.com"),
		HTTPPort:     getEnv("HTTP_PORT", "8086"),
		HTTPSPort:    getEnv("HTTPS_PORT", "443"),
		BasePaths:    getEnvAsList("BASE_PATHS", []string{"/.netlify/functions/api", "/api"}),

		HFAPIToken:           getEnv("HF_API_TOKEN", ""),
		HFAPIURL:             getEnv("HF_API_URL", "https://api-inference.huggingface.co/models"),
		InferenceTimeout:     time.Duration(getEnvAsInt("INFERENCE_TIMEOUT", 120)) * time.Second,
		InferenceMaxAttempts: getEnvAsInt("INFERENCE_MAX_ATTEMPTS", 1),
		InferenceRetryDelay:  time.Duration(getEnvAsInt("INFERENCE_RETRY_DELAY", 5)) * time.Second,

		ParaphraseModels: getEnvAsList("PARAPHRASE_MODELS", []string{
			"humarin/chatgpt_paraphraser_on_T5_base",
			"Vamsi/T5_Paraphrase_Paws",
			"tuner007/pegasus_paraphrase",
		}),
		RewriteModel:   getEnv("REWRITE_MODEL", "google/flan-t5-base"),
		DetectorModels: getEnvAsList("DETECTOR_MODELS", []string{"roberta-base-openai-detector"}),

		LogDir:   getEnv("LOG_DIR", "logs/humanizer"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// DefaultParaphraseModel is the first configured paraphrase model.
func (c Config) DefaultParaphraseModel() string {
	if len(c.ParaphraseModels) == 0 {
		return ""
	}
	return c.ParaphraseModels[0]
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsList splits a comma separated variable, dropping empty entries.
func getEnvAsList(key string, fallback []string) []string {
	strValue := getEnv(key, "")
	var values []string
	for _, v := range strings.Split(strValue, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return fallback
	}
	return values
}
