package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DBDSN       string
	LogFile     string
	CRMBaseURL  string
	CRMToken    string
	SyncWorkers int
}

func Load() Config {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		dsn = "screenfix.db" // sqlite file in project root
	}
	logFile := os.Getenv("LOG_FILE")
	if logFile == "" {
		logFile = "./screenfix.log"
	}
	crmURL := os.Getenv("CRM_URL")
	crmToken := os.Getenv("CRM_TOKEN")
	if crmToken == "" {
		log.Printf("[config] warning: CRM_TOKEN is empty, remote sync will be rejected by the CRM")
	}
	workers := 4
	if v := os.Getenv("SYNC_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			workers = n
		}
	}

	cfg := Config{Port: port, DBDSN: dsn, LogFile: logFile, CRMBaseURL: crmURL, CRMToken: crmToken, SyncWorkers: workers}
	log.Printf("[config] PORT=%s DB_DSN=%s LOG_FILE=%s CRM_URL=%s SYNC_WORKERS=%d", cfg.Port, cfg.DBDSN, cfg.LogFile, cfg.CRMBaseURL, cfg.SyncWorkers)
	return cfg
}
