package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/iliyamo/smartstay/internal/model"
	"github.com/iliyamo/smartstay/internal/repository"
)

// FacilityInput is the payload for creating or updating a facility.
type FacilityInput struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// HostelInfoInput is the payload of PUT /hostel-info.
type HostelInfoInput struct {
	Name           string `json:"name" validate:"required"`
	Address        string `json:"address"`
	WardenName     string `json:"warden_name"`
	WardenPhone    string `json:"warden_phone" validate:"omitempty,phone10"`
	EmergencyPhone string `json:"emergency_phone" validate:"omitempty,phone10"`
	Rules          string `json:"rules"`
}

// Normalize trims the single-line fields.
func (in *HostelInfoInput) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Address = strings.TrimSpace(in.Address)
	in.WardenName = strings.TrimSpace(in.WardenName)
	in.WardenPhone = strings.TrimSpace(in.WardenPhone)
	in.EmergencyPhone = strings.TrimSpace(in.EmergencyPhone)
}

// FacilityService manages the facility list and the hostel information
// shown to students.
type FacilityService struct {
	facilities *repository.FacilityRepo
	info       *repository.HostelInfoRepo
	log        *zap.Logger
}

func NewFacilityService(facilities *repository.FacilityRepo, info *repository.HostelInfoRepo, log *zap.Logger) *FacilityService {
	if log == nil {
		log = zap.NewNop()
	}
	return &FacilityService{facilities: facilities, info: info, log: log}
}

func (s *FacilityService) ListFacilities(ctx context.Context) ([]*model.Facility, error) {
	return s.facilities.List(ctx)
}

func (s *FacilityService) CreateFacility(ctx context.Context, in FacilityInput) (*model.Facility, error) {
	f := &model.Facility{Name: strings.TrimSpace(in.Name), Description: strings.TrimSpace(in.Description), Icon: strings.TrimSpace(in.Icon)}
	if f.Name == "" {
		return nil, &model.ValidationError{Field: "name", Message: "name is required"}
	}
	if err := s.facilities.Create(ctx, f); err != nil {
		return nil, err
	}
	s.log.Info("facility created", zap.Uint64("facility_id", f.ID), zap.String("name", f.Name))
	return f, nil
}

func (s *FacilityService) UpdateFacility(ctx context.Context, id uint64, in FacilityInput) (*model.Facility, error) {
	f := &model.Facility{ID: id, Name: strings.TrimSpace(in.Name), Description: strings.TrimSpace(in.Description), Icon: strings.TrimSpace(in.Icon)}
	if f.Name == "" {
		return nil, &model.ValidationError{Field: "name", Message: "name is required"}
	}
	if err := s.facilities.Update(ctx, f); err != nil {
		return nil, err
	}
	return s.facilities.Get(ctx, id)
}

func (s *FacilityService) DeleteFacility(ctx context.Context, id uint64) error {
	if err := s.facilities.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("facility deleted", zap.Uint64("facility_id", id))
	return nil
}

// ReorderFacilities rewrites the display order.  ids must name each
// facility at most once.
func (s *FacilityService) ReorderFacilities(ctx context.Context, ids []uint64) ([]*model.Facility, error) {
	if len(ids) == 0 {
		return nil, &model.ValidationError{Field: "orderedIds", Message: "orderedIds is required"}
	}
	seen := make(map[uint64]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return nil, &model.ValidationError{Field: "orderedIds", Message: "orderedIds contains duplicates"}
		}
		seen[id] = true
	}
	if err := s.facilities.Reorder(ctx, ids); err != nil {
		return nil, err
	}
	return s.facilities.List(ctx)
}

func (s *FacilityService) GetHostelInfo(ctx context.Context) (*model.HostelInfo, error) {
	return s.info.Get(ctx)
}

func (s *FacilityService) UpdateHostelInfo(ctx context.Context, in HostelInfoInput) (*model.HostelInfo, error) {
	h := &model.HostelInfo{
		Name:           strings.TrimSpace(in.Name),
		Address:        strings.TrimSpace(in.Address),
		WardenName:     strings.TrimSpace(in.WardenName),
		WardenPhone:    strings.TrimSpace(in.WardenPhone),
		EmergencyPhone: strings.TrimSpace(in.EmergencyPhone),
		Rules:          in.Rules,
	}
	if h.Name == "" {
		return nil, &model.ValidationError{Field: "name", Message: "name is required"}
	}
	if h.WardenPhone != "" && !model.ValidPhone(h.WardenPhone) {
		return nil, &model.ValidationError{Field: "warden_phone", Message: "phone must be exactly 10 digits"}
	}
	if h.EmergencyPhone != "" && !model.ValidPhone(h.EmergencyPhone) {
		return nil, &model.ValidationError{Field: "emergency_phone", Message: "phone must be exactly 10 digits"}
	}
	if err := s.info.Upsert(ctx, h); err != nil {
		return nil, err
	}
	s.log.Info("hostel info updated")
	return s.info.Get(ctx)
}
