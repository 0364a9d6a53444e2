// Package devseed populates a development database with sample rescore
// policies so the scheduler and worker have material to chew on.
package devseed

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/gradlift/ranking-go/internal/data"
	"github.com/gradlift/ranking-go/internal/domain/model"
)

// Services bundles the dependencies needed for development seeding.
type Services struct {
	DB      *sql.DB
	rescore *data.RescoreRepo
}

// NewServices constructs the repositories used for seeding.
func NewServices(db *sql.DB) Services {
	return Services{
		DB:      db,
		rescore: data.NewRescoreRepo(db),
	}
}

// Run seeds development data. Existing policies are replaced, so reruns are
// safe.
func Run(ctx context.Context, svcs Services, logger *slog.Logger) error {
	seeded := 0
	for _, policy := range defaultPolicies() {
		if err := svcs.rescore.Upsert(ctx, policy); err != nil {
			return fmt.Errorf("seed rescore policy %s: %w", policy.ItemRef, err)
		}
		seeded++
	}

	if logger != nil {
		logger.InfoContext(ctx, "development seed complete", "rescore_policies", seeded)
	}
	return nil
}

func defaultPolicies() []*model.RescorePolicy {
	specs := []struct {
		itemRef  string
		document string
		interval int64
	}{
		{
			itemRef:  "dev-applicant-001",
			document: `{"academic":{"gpa":3.8,"test_score":1480},"experience":{"internships":2,"years":1}}`,
			interval: 300,
		},
		{
			itemRef:  "dev-applicant-002",
			document: `{"academic":{"gpa":3.1,"test_score":1210},"experience":{"internships":1,"years":0}}`,
			interval: 300,
		},
		{
			itemRef:  "dev-applicant-003",
			document: `{"academic":{"gpa":2.6,"test_score":980},"experience":{"internships":0,"years":3}}`,
			interval: 600,
		},
	}

	policies := make([]*model.RescorePolicy, 0, len(specs))
	for _, s := range specs {
		policies = append(policies, &model.RescorePolicy{
			ID:              uuid.NewString(),
			ItemRef:         s.itemRef,
			Document:        json.RawMessage(s.document),
			IntervalSeconds: s.interval,
			Active:          true,
		})
	}
	return policies
}
