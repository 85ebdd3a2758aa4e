package services

import (
	"context"
	"time"

	"greekledger/internal/core"
)

// ScenarioService runs and stores what-if budget calculations.
type ScenarioService struct {
	store ScenarioStore
	now   func() time.Time
}

func NewScenarioService(store ScenarioStore) *ScenarioService {
	return &ScenarioService{store: store, now: time.Now}
}

// Preview compares the input with the chapter's active membership and
// configured dues.
func (s *ScenarioService) Preview(ctx context.Context, in core.ScenarioInput) (core.ScenarioPreview, error) {
	if err := in.Validate(); err != nil {
		return core.ScenarioPreview{}, err
	}
	active, err := s.store.CountActiveMembers(ctx)
	if err != nil {
		return core.ScenarioPreview{}, err
	}
	settings, err := s.store.GetSettings(ctx)
	if err != nil {
		return core.ScenarioPreview{}, err
	}
	return core.Preview(in, active, settings), nil
}

func (s *ScenarioService) Save(ctx context.Context, in core.ScenarioInput) (core.Scenario, error) {
	if err := in.Validate(); err != nil {
		return core.Scenario{}, err
	}
	sc := core.NewScenario(in, s.now().UTC().Truncate(time.Second))
	if err := s.store.CreateScenario(ctx, &sc); err != nil {
		return core.Scenario{}, err
	}
	return sc, nil
}

func (s *ScenarioService) List(ctx context.Context) ([]core.Scenario, error) {
	return s.store.ListScenarios(ctx)
}

func (s *ScenarioService) Delete(ctx context.Context, id string) error {
	return s.store.DeleteScenario(ctx, id)
}
