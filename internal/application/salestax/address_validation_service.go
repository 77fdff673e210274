package salestax

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/salestax/internal/domain/salestax"
	"github.com/erp/salestax/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AddressValidationService corrects partner addresses using the external service
type AddressValidationService struct {
	partners salestax.PartnerRepository
	configs  *ConfigurationService
	gateway  salestax.Gateway
	logger   *zap.Logger
}

// NewAddressValidationService creates a new AddressValidationService
func NewAddressValidationService(
	partners salestax.PartnerRepository,
	configs *ConfigurationService,
	gateway salestax.Gateway,
	logger *zap.Logger,
) *AddressValidationService {
	return &AddressValidationService{
		partners: partners,
		configs:  configs,
		gateway:  gateway,
		logger:   logger,
	}
}

// ValidatePartner validates and corrects a partner's address. An address the
// service cannot find only flags the partner; it is not an error.
func (s *AddressValidationService) ValidatePartner(ctx context.Context, partnerID uuid.UUID) (*AddressValidationResult, error) {
	partner, err := s.partners.FindByID(ctx, partnerID)
	if err != nil {
		return nil, err
	}
	result, changed, err := s.validate(ctx, partner)
	if err != nil {
		return nil, err
	}
	if changed {
		if err := s.partners.Save(ctx, partner); err != nil {
			return nil, fmt.Errorf("save partner: %w", err)
		}
	}
	return describePartner(result, partner), nil
}

// UpdateAddress changes a partner's address and validates the new one. An
// unchanged address is not sent to the service. When validation fails with an
// error the new address is not stored either.
func (s *AddressValidationService) UpdateAddress(ctx context.Context, partnerID uuid.UUID, address valueobject.Address) (*AddressValidationResult, error) {
	partner, err := s.partners.FindByID(ctx, partnerID)
	if err != nil {
		return nil, err
	}
	if !partner.ChangeAddress(address) {
		result := &AddressValidationResult{PartnerID: partner.ID, SkippedReason: "address unchanged"}
		return describePartner(result, partner), nil
	}
	result, _, err := s.validate(ctx, partner)
	if err != nil {
		return nil, err
	}
	if err := s.partners.Save(ctx, partner); err != nil {
		return nil, fmt.Errorf("save partner: %w", err)
	}
	return describePartner(result, partner), nil
}

// validate runs the service check on a loaded partner and reports whether the
// partner was modified. It never stores anything.
func (s *AddressValidationService) validate(ctx context.Context, partner *salestax.Partner) (*AddressValidationResult, bool, error) {
	result := &AddressValidationResult{PartnerID: partner.ID}

	cfg, err := s.configs.Resolve(ctx, partner.OrganizationID)
	if err != nil {
		return nil, false, err
	}
	switch {
	case cfg == nil:
		result.SkippedReason = "no tax configuration applies"
	case !cfg.AddressValidation:
		result.SkippedReason = "address validation is disabled"
	case !cfg.CoversCountry(partner.CountryCode()):
		result.SkippedReason = "country is not covered"
	}
	if result.SkippedReason != "" {
		return result, false, nil
	}

	candidates, err := s.gateway.ValidateAddress(ctx, cfg, salestax.NewAddressValidationRequest(partner))
	switch {
	case errors.Is(err, salestax.ErrAddressNotFound):
		partner.MarkValidationFailed()
		s.logger.Info("partner address could not be validated", zap.String("partner_id", partner.ID.String()))
		return result, true, nil
	case err != nil:
		return nil, false, err
	case len(candidates) == 0:
		s.logger.Debug("address validation returned no candidates", zap.String("partner_id", partner.ID.String()))
		return result, false, nil
	}
	partner.ApplyValidatedAddress(candidates[0])
	result.Validated = true
	return result, true, nil
}

func describePartner(result *AddressValidationResult, partner *salestax.Partner) *AddressValidationResult {
	addr := partner.Address
	result.ValidationError = partner.ValidationError
	result.Street = addr.Street()
	result.City = addr.City()
	result.State = addr.StateCode()
	result.Zip = addr.Zip()
	result.Country = addr.CountryCode()
	return result
}
