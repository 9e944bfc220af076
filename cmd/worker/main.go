package main

import (
	"context"
	"os"
	"strings"

	"github.com/Meesho/BharatMLStack/gradflow/internal/config"
	"github.com/Meesho/BharatMLStack/gradflow/internal/coordinator"
	"github.com/Meesho/BharatMLStack/gradflow/internal/round"
	httpserver "github.com/Meesho/BharatMLStack/gradflow/internal/server/http"
	"github.com/Meesho/BharatMLStack/gradflow/internal/worker"
	"github.com/Meesho/BharatMLStack/gradflow/pkg/logger"
	"github.com/Meesho/BharatMLStack/gradflow/pkg/metrics"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

func main() {
	viper.AutomaticEnv()
	logger.Init()
	metrics.Init()

	cfg, err := config.Load(viper.GetString("MODEL_CONFIG_PATH"), viper.GetString("COLUMN_CONFIG_PATH"))
	if err != nil {
		log.Panic().Err(err).Msg("Failed to load job config")
	}
	trainerID := viper.GetInt("TRAINER_ID")

	w, err := worker.New(cfg, trainerID)
	if err != nil {
		log.Panic().Err(err).Msg("Failed to build worker")
	}

	httpserver.Init(w.Stats)
	if viper.IsSet("APP_PORT") {
		httpserver.Serve(viper.GetInt("APP_PORT"))
	}

	training, err := os.Open(viper.GetString("TRAINING_DATA_PATH"))
	if err != nil {
		log.Panic().Err(err).Msg("Failed to open training split")
	}
	defer training.Close()

	var validation *os.File
	if cfg.Model.ManualValidation() {
		validation, err = os.Open(cfg.Model.ValidationDataPath)
		if err != nil {
			log.Panic().Err(err).Msg("Failed to open validation split")
		}
		defer validation.Close()
	}

	if validation != nil {
		err = w.Load(training, validation)
	} else {
		err = w.Load(training, nil)
	}
	if err != nil {
		log.Panic().Err(err).Msg("Load phase failed")
	}

	graph, err := round.NewWideAndDeep(cfg)
	if err != nil {
		log.Panic().Err(err).Msg("Failed to build model graph")
	}

	servers := strings.Split(viper.GetString("ZK_SERVERS"), ",")
	coord, err := coordinator.ConnectZK(servers, viper.GetString("ZK_BASE_PATH"))
	if err != nil {
		log.Panic().Err(err).Msg("Failed to connect coordinator")
	}
	defer coord.Close()

	if err := w.Run(context.Background(), coord, graph); err != nil {
		log.Panic().Err(err).Msg("Round loop failed")
	}
	log.Info().Msg("Worker finished all rounds")
}
