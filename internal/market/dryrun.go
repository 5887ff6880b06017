package market

import (
	"context"

	"github.com/google/uuid"

	"github.com/darkalpha/marketscout/internal/logger"
	"github.com/darkalpha/marketscout/internal/models"
)

// DryRunCreator fabricates market references locally instead of calling
// the creation API. Used in demo setups and when no API is configured.
type DryRunCreator struct{}

// CreateMarket logs the would-be creation and returns a synthetic ref.
func (DryRunCreator) CreateMarket(_ context.Context, opp models.Opportunity) (string, error) {
	ref := "dryrun-" + uuid.New().String()[:8]
	logger.Info("Dry run: would create market %q as %s", opp.Question, ref)
	return ref, nil
}
