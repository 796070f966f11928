package replay

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/okian/presage/pkg/logger"
)

// Verification thresholds. Predictions are speculative by design, so the
// floor is deliberately loose: a drag that speeds up legitimately predicts
// as a swipe, and short taps can read as double-tap prefixes.
const (
	minMatchRate = 0.30
)

// marshalTrace marshals a trace to JSON.
func marshalTrace(t Trace) ([]byte, error) {
	return json.Marshal(t)
}

// verifyResults sanity-checks the replay outcome.
func verifyResults(ctx context.Context, config *Config, stats *Stats) error {
	logger.Get().Info(ctx, "verifying replay results")

	if stats.GesturesReplayed == 0 {
		return fmt.Errorf("no gestures were replayed")
	}

	if stats.TouchesAccepted == 0 {
		return fmt.Errorf("no touches were accepted by the service")
	}

	if stats.PredictionsObserved == 0 {
		return fmt.Errorf("no predictions were observed for %d replayed gestures", stats.GesturesReplayed)
	}

	matchRate := float64(stats.PredictionsMatched) / float64(stats.PredictionsObserved)
	logger.Get().Info(ctx, "prediction match rate",
		logger.Int("matched", stats.PredictionsMatched),
		logger.Int("observed", stats.PredictionsObserved),
		logger.Float64("rate", matchRate))

	if matchRate < minMatchRate {
		logger.Get().Warn(ctx, "match rate below expected floor",
			logger.Float64("rate", matchRate),
			logger.Float64("floor", minMatchRate))
	}

	logger.Get().Info(ctx, "verification complete")
	return nil
}
