package market

import (
	"fmt"
	"time"

	"stockcrawler/pkg/config"
	"stockcrawler/pkg/logger"
	"stockcrawler/pkg/ratelimit"
	"stockcrawler/pkg/retry"
)

// ErrMissingAPIKey is returned when a keyed provider is selected without a key
var ErrMissingAPIKey = fmt.Errorf("alphavantage provider requires an API key (run `stockcrawler auth set-key` or set %sALPHAVANTAGE_API_KEY)", config.EnvPrefix)

// alphaVantageRateLimitWait is how long to wait after Alpha Vantage reports a
// rate limit; its free tier counts requests per minute
const alphaVantageRateLimitWait = time.Minute

// New builds the configured provider, wrapping it in a MultiProvider when
// fallbacks are configured.
func New(cfg *config.Config, log logger.Logger) (Provider, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}
	retryCfg := retry.FromSettings(cfg.Retry, log)

	primary, err := newSingle(cfg.Provider.Name, cfg, retryCfg, log)
	if err != nil {
		return nil, err
	}
	if len(cfg.Provider.Fallbacks) == 0 {
		return primary, nil
	}

	chain := []Provider{primary}
	for _, name := range cfg.Provider.Fallbacks {
		p, err := newSingle(name, cfg, retryCfg, log)
		if err != nil {
			return nil, fmt.Errorf("fallback %s: %w", name, err)
		}
		chain = append(chain, p)
	}
	return NewMultiProvider(log, chain...), nil
}

func newSingle(name string, cfg *config.Config, retryCfg *retry.Config, log logger.Logger) (Provider, error) {
	switch name {
	case "yahoo":
		return NewYahooProvider(retryCfg, log), nil
	case "alphavantage":
		av := cfg.Provider.AlphaVantage
		if av.APIKey == "" {
			return nil, ErrMissingAPIKey
		}
		return NewAlphaVantageProvider(
			NewClient(cfg.Provider.Timeout, log),
			av.BaseURL,
			av.APIKey,
			ratelimit.PerMinute(cfg.RateLimit.RequestsPerMinute),
			retryCfg.WithRateLimitBackoff(&retry.ConstantBackoff{Delay: alphaVantageRateLimitWait}),
			log,
		), nil
	case "fixture":
		return NewFixtureProvider(cfg.Provider.FixtureDir), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", name)
	}
}
