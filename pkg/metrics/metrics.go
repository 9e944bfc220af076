package metrics

import (
	"fmt"
	"time"

	"github.com/DataDog/datadog-go/v5/statsd"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

var (
	// It is safe to use one Client from multiple goroutines simultaneously
	statsDClient *statsd.Client = getDefaultClient()

	// by default full sampling
	samplingRate float64 = 0.0
)

// Init builds the statsd client from env configuration. In local/dev
// environments Telegraf may not be running; metrics then degrade to the
// default client instead of crashing the worker.
func Init() {
	samplingRate = viper.GetFloat64("METRICS_SAMPLING_RATE")
	telegrafAddress := getTelegrafAddress()
	globalTags := getGlobalTags()

	var err error
	statsDClient, err = statsd.New(
		telegrafAddress,
		statsd.WithTags(globalTags),
	)
	if err != nil {
		log.Error().Err(err).Msg("StatsD client initialization failed, metrics will be unavailable")
		statsDClient = getDefaultClient()
		return
	}
	log.Info().Msg(fmt.Sprintf("Metrics client initialized with telegraf address - %s, global tags - %v, and sampling rate - %f",
		telegrafAddress, globalTags, samplingRate))
}

func getDefaultClient() *statsd.Client {
	client, err := statsd.New("localhost:8125")
	if err != nil {
		// Return a no-op client so callers never hit nil-pointer panics.
		client, _ = statsd.New("localhost:8125", statsd.WithoutTelemetry())
	}
	return client
}

func getGlobalTags() []string {
	return []string{
		"env:" + viper.GetString("APP_ENV"),
		"service:" + viper.GetString("APP_NAME"),
	}
}

func getTelegrafAddress() string {
	host := viper.GetString("TELEGRAF_UDP_HOST")
	port := viper.GetString("TELEGRAF_UDP_PORT")
	if host == "" {
		host = "localhost"
	}
	if port == "" {
		port = "8125"
	}
	return host + ":" + port
}

func Timing(name string, value time.Duration, tags []string) {
	err := statsDClient.Timing(name, value, tags, samplingRate)
	if err != nil {
		log.Warn().AnErr("Error occurred while doing statsd timing", err)
	}
}

func Count(name string, value int64, tags []string) {
	err := statsDClient.Count(name, value, tags, samplingRate)
	if err != nil {
		log.Warn().AnErr("Error occurred while doing statsd count", err)
	}
}

func Gauge(name string, value float64, tags []string) {
	err := statsDClient.Gauge(name, value, tags, samplingRate)
	if err != nil {
		log.Warn().AnErr("Error occurred while doing statsd gauge", err)
	}
}
