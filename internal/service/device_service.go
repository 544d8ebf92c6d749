package service

import (
	"errors"
	"time"

	"seedvault-server/internal/domain"
	"seedvault-server/internal/repository"

	"github.com/google/uuid"
)

// ErrDeviceNotOwned is returned when a revoke targets another user's device.
var ErrDeviceNotOwned = errors.New("unauthorized: device does not belong to user")

type DeviceService struct {
	repo repository.DeviceRepository
}

func NewDeviceService(repo repository.DeviceRepository) *DeviceService {
	return &DeviceService{
		repo: repo,
	}
}

// Register records a client installation together with the origin fingerprint
// it first appeared from.
func (s *DeviceService) Register(userID, fingerprint string, req *domain.RegisterDeviceRequest) (*domain.DeviceResponse, error) {
	now := time.Now()

	device := &domain.Device{
		ID:          uuid.New().String(),
		UserID:      userID,
		Name:        req.Name,
		Platform:    req.Platform,
		Fingerprint: fingerprint,
		LastActive:  now,
		CreatedAt:   now,
		IsRevoked:   false,
	}

	if err := s.repo.Create(device); err != nil {
		return nil, err
	}

	return &domain.DeviceResponse{
		ID:         device.ID,
		Name:       device.Name,
		Platform:   device.Platform,
		LastActive: device.LastActive,
		IsRevoked:  device.IsRevoked,
	}, nil
}

func (s *DeviceService) List(userID string) ([]*domain.DeviceResponse, error) {
	devices, err := s.repo.List(userID)
	if err != nil {
		return nil, err
	}

	var responses []*domain.DeviceResponse
	for _, d := range devices {
		responses = append(responses, &domain.DeviceResponse{
			ID:         d.ID,
			Name:       d.Name,
			Platform:   d.Platform,
			LastActive: d.LastActive,
			IsRevoked:  d.IsRevoked,
		})
	}

	return responses, nil
}

func (s *DeviceService) Revoke(userID, deviceID string) error {
	device, err := s.repo.FindByID(deviceID)
	if err != nil {
		return err
	}

	if device.UserID != userID {
		return ErrDeviceNotOwned
	}

	return s.repo.Revoke(deviceID)
}

func (s *DeviceService) UpdateLastActive(deviceID string) error {
	return s.repo.UpdateLastActive(deviceID)
}
