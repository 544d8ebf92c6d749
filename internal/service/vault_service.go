package service

import (
	"errors"
	"fmt"
	"log"
	"time"

	"seedvault-server/internal/crypto"
	"seedvault-server/internal/domain"
	"seedvault-server/internal/repository"
)

// ErrVaultUnavailable is returned when no vault exists for the user or the
// stored record fails to unwrap. The two cases are deliberately merged: both
// degrade to "no vault available" instead of failing the request pipeline.
// Storage transport failures are reported separately so a caller can retry
// or fall back to a local copy.
var ErrVaultUnavailable = errors.New("no vault available")

// Notifier pushes a vault-changed event to the user's other connections.
type Notifier interface {
	NotifyVaultUpdate(userID, excludeDeviceID string, updatedAt time.Time)
}

type VaultService struct {
	repo         repository.VaultRepository
	serverSecret string
	notifier     Notifier
}

func NewVaultService(repo repository.VaultRepository, serverSecret string, notifier Notifier) *VaultService {
	return &VaultService{
		repo:         repo,
		serverSecret: serverSecret,
		notifier:     notifier,
	}
}

// Save re-wraps the client-sealed blob with the server layer and persists it.
// The inner blob is already opaque to us; the wrap only adds defense in depth.
func (s *VaultService) Save(userID string, req *domain.SaveVaultRequest) (*domain.SaveVaultResponse, error) {
	outerBlob, outerSalt, err := crypto.WrapVault(s.serverSecret, userID, req.EncryptedData)
	if err != nil {
		return nil, fmt.Errorf("failed to wrap vault: %w", err)
	}

	now := time.Now()
	vault := &domain.Vault{
		UserID:        userID,
		EncryptedData: outerBlob,
		ServerSalt:    outerSalt,
		ClientSalt:    req.ClientSalt,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.Save(vault); err != nil {
		return nil, fmt.Errorf("failed to persist vault: %w", err)
	}

	if s.notifier != nil {
		s.notifier.NotifyVaultUpdate(userID, req.DeviceID, now)
	}

	return &domain.SaveVaultResponse{UpdatedAt: now}, nil
}

// Get unwraps the server layer and returns the inner client blob. The caller
// performs the final open with the master password; the plaintext never
// exists on this side.
func (s *VaultService) Get(userID string) (*domain.VaultResponse, error) {
	vault, err := s.repo.Get(userID)
	if err != nil {
		if errors.Is(err, repository.ErrVaultNotFound) {
			return nil, ErrVaultUnavailable
		}
		return nil, fmt.Errorf("failed to load vault: %w", err)
	}

	inner, err := crypto.UnwrapVault(s.serverSecret, userID, vault.ServerSalt, vault.EncryptedData)
	if err != nil {
		log.Printf("vault unwrap failed for user %s: %v", userID, err)
		return nil, ErrVaultUnavailable
	}

	return &domain.VaultResponse{
		EncryptedData: inner,
		ClientSalt:    vault.ClientSalt,
		UpdatedAt:     vault.UpdatedAt,
	}, nil
}

// Export returns the same payload as Get, flagged for backup download. The
// outer layer is fully removed here, in process, before the response leaves.
func (s *VaultService) Export(userID string) (*domain.VaultResponse, error) {
	resp, err := s.Get(userID)
	if err != nil {
		return nil, err
	}
	resp.Export = true
	return resp, nil
}
