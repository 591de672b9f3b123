package seed

import (
	"context"
	"testing"

	"github.com/smallbiznis/rendezvous/internal/apperror"
	"github.com/smallbiznis/rendezvous/internal/auditcontext"
	"github.com/smallbiznis/rendezvous/internal/config"
	"github.com/smallbiznis/rendezvous/internal/governance/domain"
	pricingdomain "github.com/smallbiznis/rendezvous/internal/pricing/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockService struct {
	mock.Mock
	domain.Service
}

func (m *mockService) ProvisionPriceConfig(ctx context.Context, req domain.ProvisionPriceConfigRequest) (*pricingdomain.PriceConfig, error) {
	args := m.Called(ctx, req)
	cfg, _ := args.Get(0).(*pricingdomain.PriceConfig)
	return cfg, args.Error(1)
}

func systemCtx(ctx context.Context) bool {
	actorType, actorID := auditcontext.ActorFromContext(ctx)
	return actorType == auditcontext.ActorTypeSystem && actorID == systemActor
}

func TestEnsurePriceConfigsSkipsProvisionedModules(t *testing.T) {
	svc := &mockService{}
	byModule := func(module string) any {
		return mock.MatchedBy(func(req domain.ProvisionPriceConfigRequest) bool { return req.ServiceModule == module })
	}
	svc.On("ProvisionPriceConfig", mock.MatchedBy(systemCtx), byModule("blind-date")).
		Return(&pricingdomain.PriceConfig{}, nil).Once()
	svc.On("ProvisionPriceConfig", mock.MatchedBy(systemCtx), byModule("investor-match")).
		Return(nil, pricingdomain.ErrAlreadyProvisioned).Once()

	created, err := EnsurePriceConfigs(context.Background(), svc, []config.DefaultPrice{
		{Module: "blind-date", FixedPrice: 1500, Currency: "INR", CommissionPercent: 15},
		{Module: "investor-match", FixedPrice: 10000, Currency: "INR", CommissionPercent: 10},
	}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 1, created)
	svc.AssertExpectations(t)
}

func TestEnsurePriceConfigsStopsOnError(t *testing.T) {
	svc := &mockService{}
	svc.On("ProvisionPriceConfig", mock.Anything, mock.Anything).
		Return(nil, pricingdomain.ErrPriceEmpty).Once()

	created, err := EnsurePriceConfigs(context.Background(), svc, []config.DefaultPrice{
		{Module: "blind-date", Currency: "INR"},
		{Module: "business-meetup", FixedPrice: 3000, Currency: "INR"},
	}, nil)
	assert.ErrorIs(t, err, apperror.ErrValidation)
	assert.Zero(t, created)
	svc.AssertNumberOfCalls(t, "ProvisionPriceConfig", 1)
}

func TestEnsurePriceConfigsRequiresService(t *testing.T) {
	_, err := EnsurePriceConfigs(context.Background(), nil, nil, nil)
	assert.Error(t, err)
}
