package config

import (
	"os"
	"strconv"
)

// Config holds the runtime settings for the QC engine and its server.
type Config struct {
	MongoURI  string
	MongoDB   string
	RedisAddr string
	HTTPPort  string

	// BootstrapIterations is the resample count for bootstrap score
	// distributions.
	BootstrapIterations int

	// SimulationRuns is the number of simulated respondents used for
	// average-path-length estimation.
	SimulationRuns int
}

// Load reads the configuration from the environment, falling back to
// defaults.
func Load() *Config {
	return &Config{
		MongoURI:            getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:             getEnv("MONGO_DB", "surveyqc"),
		RedisAddr:           getEnv("REDIS_ADDR", "localhost:6379"),
		HTTPPort:            getEnv("HTTP_PORT", "8080"),
		BootstrapIterations: getEnvInt("BOOTSTRAP_ITERATIONS", 2000),
		SimulationRuns:      getEnvInt("SIMULATION_RUNS", 5000),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}
