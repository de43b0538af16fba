package vehicles

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/samiralkaabi/garagehub-backend/pkg/db/models"
	pkgerrors "github.com/samiralkaabi/garagehub-backend/pkg/errors"
)

// Service manages the customer vehicle registry.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*models.Vehicle, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Vehicle, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Vehicle, error)
}

// RegisterRequest captures a vehicle being added to an account.
type RegisterRequest struct {
	OwnerID     uuid.UUID
	PlateNumber string
	Make        string
	Model       string
	Year        *int
	Color       *string
	VIN         *string
	Mileage     *int
}

type service struct {
	repo Repository
}

// NewService builds the vehicles service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("vehicles repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*models.Vehicle, error) {
	if req.OwnerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner id required")
	}
	if strings.TrimSpace(req.PlateNumber) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "plate number required")
	}
	if strings.TrimSpace(req.Make) == "" || strings.TrimSpace(req.Model) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "make and model required")
	}

	vehicle := models.Vehicle{
		OwnerID:     req.OwnerID,
		PlateNumber: strings.ToUpper(strings.TrimSpace(req.PlateNumber)),
		Make:        strings.TrimSpace(req.Make),
		Model:       strings.TrimSpace(req.Model),
		Year:        req.Year,
		Color:       req.Color,
		VIN:         req.VIN,
		Mileage:     req.Mileage,
		IsActive:    true,
	}
	if err := s.repo.Create(ctx, &vehicle); err != nil {
		return nil, fmt.Errorf("create vehicle: %w", err)
	}
	return &vehicle, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Vehicle, error) {
	vehicle, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vehicle not found")
		}
		return nil, err
	}
	return vehicle, nil
}

func (s *service) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Vehicle, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}
