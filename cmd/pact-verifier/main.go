package main

import (
	"context"
	"net/url"
	"os"
	"strconv"

	"github.com/form3tech-oss/pact-verifier/internal/app/pact"
	"github.com/form3tech-oss/pact-verifier/internal/app/verifier"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/sethvargo/go-envconfig"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type config struct {
	ProviderName    string   `env:"PROVIDER_NAME,default=provider"`
	ProviderBaseURL url.URL  `env:"PROVIDER_BASE_URL"`
	PactSources     []string `env:"PACT_SOURCES,delimiter=;"` // pact file paths or broker URLs, e.g. ./pacts/consumer.json;https://broker/pacts/latest

	BrokerUsername string `env:"PACT_BROKER_USERNAME"`
	BrokerPassword string `env:"PACT_BROKER_PASSWORD"`
	BrokerToken    string `env:"PACT_BROKER_TOKEN"`

	StateChangeURL      string `env:"STATE_CHANGE_URL"`
	StateChangeUsesBody bool   `env:"STATE_CHANGE_USES_BODY,default=true"`
	StateChangeTeardown bool   `env:"STATE_CHANGE_TEARDOWN"`
}

var rootCmd = &cobra.Command{
	Use:   "pact-verifier",
	Short: "Verify a provider against recorded pacts",
}

var verifyCmd = &cobra.Command{
	Use:          "verify",
	Short:        "Replay every pact interaction against the provider and report mismatches",
	RunE:         runVerify,
	SilenceUsage: true,
}

func init() {
	// .env keeps local runs out of shell profiles
	_ = godotenv.Load()

	level, err := log.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	var cfg config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		return errors.Wrap(err, "process env config")
	}
	if len(cfg.PactSources) == 0 {
		return errors.New("no pact sources configured, set PACT_SOURCES")
	}

	provider, err := providerInfo(&cfg)
	if err != nil {
		return err
	}

	auth := pact.Auth{
		Username: cfg.BrokerUsername,
		Password: cfg.BrokerPassword,
		Token:    cfg.BrokerToken,
	}
	consumers := make([]*verifier.ConsumerInfo, 0, len(cfg.PactSources))
	for _, source := range cfg.PactSources {
		consumers = append(consumers, &verifier.ConsumerInfo{
			Name:   pact.FileName(source),
			Source: source,
			Auth:   auth,
		})
	}

	props := verifier.EnvProperties()
	v := &verifier.Verifier{
		Properties: props,
		Reporters: verifier.Reporters{
			&verifier.LogReporter{ShowStacktrace: props.HasProperty(verifier.PropShowStacktrace)},
		},
	}

	failures, err := v.VerifyProvider(provider, consumers)
	if err != nil {
		return err
	}
	if len(failures) > 0 {
		return errors.Errorf("%d verification failures", len(failures))
	}
	return nil
}

func providerInfo(cfg *config) (*verifier.ProviderInfo, error) {
	base := cfg.ProviderBaseURL
	if base.Host == "" {
		return nil, errors.New("no provider address configured, set PROVIDER_BASE_URL")
	}

	port := 0
	if base.Port() != "" {
		p, err := strconv.Atoi(base.Port())
		if err != nil {
			return nil, errors.Wrap(err, "invalid provider port")
		}
		port = p
	}

	return &verifier.ProviderInfo{
		Name:                cfg.ProviderName,
		Protocol:            base.Scheme,
		Host:                base.Hostname(),
		Port:                port,
		Path:                base.Path,
		StateChange:         verifier.StateChangeHandler{URL: cfg.StateChangeURL},
		StateChangeUsesBody: cfg.StateChangeUsesBody,
		StateChangeTeardown: cfg.StateChangeTeardown,
	}, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}
