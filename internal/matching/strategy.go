package matching

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/pfe-match/internal/llm"
)

// Strategy names accepted by NewEstimator.
const (
	StrategyLocal    = "local"
	StrategySemantic = "semantic"
)

// NewEstimator returns the estimator for the configured strategy. The semantic strategy
// without an LLM client degrades to the local estimator.
func NewEstimator(strategy string, client llm.Client, timeout time.Duration, log *zap.Logger) (Estimator, error) {
	if log == nil {
		log = zap.NewNop()
	}

	switch strings.ToLower(strings.TrimSpace(strategy)) {
	case "", StrategyLocal:
		return LocalEstimator{}, nil
	case StrategySemantic:
		if client == nil {
			log.Warn("semantic matching requested without an LLM client, using deterministic scorer")
			return LocalEstimator{}, nil
		}
		return NewFallbackEstimator(NewSemanticEstimator(client, log), timeout, log), nil
	default:
		return nil, fmt.Errorf("unknown match strategy %q", strategy)
	}
}
