package catalog_repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hasapchy/back-sub001/internal/domain/rounding"
	"github.com/hasapchy/back-sub001/internal/infrastructure/storage/postgres"
)

// rounding_policies holds at most one row (id = 1) with the policy as JSONB.
const policyTable = "rounding_policies"

// PolicyRepo implements rounding.Repository.
type PolicyRepo struct{}

func NewPolicyRepo() PolicyRepo { return PolicyRepo{} }

func (PolicyRepo) Get(ctx context.Context) (*rounding.Policy, error) {
	row, err := getOne[struct {
		Policy []byte `db:"policy"`
	}](ctx, postgres.Builder().Select("policy").From(policyTable).Where("id = 1"), "rounding_policy", 1, true)
	if err != nil || row == nil {
		return nil, err
	}

	var p rounding.Policy
	if err := json.Unmarshal(row.Policy, &p); err != nil {
		return nil, fmt.Errorf("decode rounding policy: %w", err)
	}
	return &p, nil
}

func (PolicyRepo) Save(ctx context.Context, p rounding.Policy) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode rounding policy: %w", err)
	}
	q := postgres.Builder().Insert(policyTable).
		Columns("id", "policy", "updated_at").
		Values(1, raw, time.Now().UTC()).
		Suffix("ON CONFLICT (id) DO UPDATE SET policy = EXCLUDED.policy, updated_at = EXCLUDED.updated_at")
	_, err = exec(ctx, q, "rounding_policy", "save")
	return err
}

var _ rounding.Repository = PolicyRepo{}
