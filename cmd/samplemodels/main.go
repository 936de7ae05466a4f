package main

import (
	"flag"
	"os"

	"github.com/Aetos973/AI-Powered-Intrusion-Detection-System-AI-IDS/internal/logging"
	"github.com/Aetos973/AI-Powered-Intrusion-Detection-System-AI-IDS/internal/ml"
	"github.com/Aetos973/AI-Powered-Intrusion-Detection-System-AI-IDS/internal/registry"
	"github.com/Aetos973/AI-Powered-Intrusion-Detection-System-AI-IDS/pkg/config"
)

// Writes a demonstration model for every supported device so the service can be
// exercised before trained artifacts are exported.
func main() {
	cfg := config.Load()

	dir := flag.String("dir", cfg.ModelDir, "Directory to write model artifacts into")
	force := flag.Bool("force", false, "Overwrite existing artifacts")
	flag.Parse()

	logging.Init(logging.Config{Level: "info", Format: "console"})
	log := logging.Component("samplemodels")

	if err := os.MkdirAll(*dir, 0o755); err != nil {
		log.Fatal().Err(err).Str("dir", *dir).Msg("failed to create model directory")
	}

	for _, p := range registry.New(*dir).Devices() {
		if _, err := os.Stat(p.ModelRef); err == nil && !*force {
			log.Info().Str("path", p.ModelRef).Msg("model exists, skipping")
			continue
		}
		if err := ml.WriteSampleModel(p.ModelRef, p.Name, p.RequiredFeatures); err != nil {
			log.Fatal().Err(err).Str("device", p.Name).Msg("failed to write model")
		}
	}
}
