package service

import (
	"errors"
	"testing"
	"time"

	"seedvault-server/internal/domain"
	"seedvault-server/internal/repository"
)

type mockVaultRepository struct {
	vaults map[string]*domain.Vault
	getErr error
}

func newMockVaultRepository() *mockVaultRepository {
	return &mockVaultRepository{
		vaults: make(map[string]*domain.Vault),
	}
}

func (m *mockVaultRepository) Save(vault *domain.Vault) error {
	m.vaults[vault.UserID] = vault
	return nil
}

func (m *mockVaultRepository) Get(userID string) (*domain.Vault, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if vault, ok := m.vaults[userID]; ok {
		return vault, nil
	}
	return nil, repository.ErrVaultNotFound
}

type recordingNotifier struct {
	userID   string
	deviceID string
	calls    int
}

func (n *recordingNotifier) NotifyVaultUpdate(userID, excludeDeviceID string, updatedAt time.Time) {
	n.userID = userID
	n.deviceID = excludeDeviceID
	n.calls++
}

const testServerSecret = "test-server-secret"

func TestVaultService_SaveAndGet(t *testing.T) {
	repo := newMockVaultRepository()
	svc := NewVaultService(repo, testServerSecret, nil)

	clientBlob := "Y2xpZW50LXNlYWxlZC1ibG9i"
	clientSalt := "Y2xpZW50LXNhbHQ="

	saveResp, err := svc.Save("user-1", &domain.SaveVaultRequest{
		EncryptedData: clientBlob,
		ClientSalt:    clientSalt,
	})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if saveResp.UpdatedAt.IsZero() {
		t.Error("Save() did not set updated_at")
	}

	// The persisted blob carries the server wrapping, never the raw client blob.
	stored := repo.vaults["user-1"]
	if stored.EncryptedData == clientBlob {
		t.Error("Save() persisted the client blob without the server wrapping")
	}
	if stored.ServerSalt == "" {
		t.Error("Save() did not persist the outer salt")
	}

	got, err := svc.Get("user-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.EncryptedData != clientBlob {
		t.Errorf("Get() inner blob = %q, want %q", got.EncryptedData, clientBlob)
	}
	if got.ClientSalt != clientSalt {
		t.Errorf("Get() client salt = %q, want %q", got.ClientSalt, clientSalt)
	}
}

func TestVaultService_SaveFreshOuterSalt(t *testing.T) {
	repo := newMockVaultRepository()
	svc := NewVaultService(repo, testServerSecret, nil)

	req := &domain.SaveVaultRequest{
		EncryptedData: "Y2xpZW50LWJsb2I=",
		ClientSalt:    "c2FsdA==",
	}

	if _, err := svc.Save("user-1", req); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	first := repo.vaults["user-1"].ServerSalt

	if _, err := svc.Save("user-1", req); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	second := repo.vaults["user-1"].ServerSalt

	if first == second {
		t.Error("Save() reused the outer salt across saves")
	}
}

func TestVaultService_GetMissing(t *testing.T) {
	svc := NewVaultService(newMockVaultRepository(), testServerSecret, nil)

	if _, err := svc.Get("nobody"); !errors.Is(err, ErrVaultUnavailable) {
		t.Errorf("Get() error = %v, want ErrVaultUnavailable", err)
	}
}

func TestVaultService_GetStoreOutage(t *testing.T) {
	repo := newMockVaultRepository()
	svc := NewVaultService(repo, testServerSecret, nil)

	if _, err := svc.Save("user-1", &domain.SaveVaultRequest{
		EncryptedData: "Y2xpZW50LWJsb2I=",
		ClientSalt:    "c2FsdA==",
	}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	// A storage failure must not masquerade as a missing vault: the user has
	// one, and the caller may fall back to a local copy on a transport error.
	repo.getErr = errors.New("dial tcp 127.0.0.1:5984: connection refused")

	_, err := svc.Get("user-1")
	if err == nil {
		t.Fatal("Get() succeeded with the store down")
	}
	if errors.Is(err, ErrVaultUnavailable) {
		t.Errorf("Get() during store outage error = %v, want a distinct transport error", err)
	}
}

func TestVaultService_GetCorrupted(t *testing.T) {
	repo := newMockVaultRepository()
	svc := NewVaultService(repo, testServerSecret, nil)

	if _, err := svc.Save("user-1", &domain.SaveVaultRequest{
		EncryptedData: "Y2xpZW50LWJsb2I=",
		ClientSalt:    "c2FsdA==",
	}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	// Corrupt the stored record; the read degrades, it does not explode.
	repo.vaults["user-1"].EncryptedData = "AAAA" + repo.vaults["user-1"].EncryptedData[4:]

	if _, err := svc.Get("user-1"); !errors.Is(err, ErrVaultUnavailable) {
		t.Errorf("Get() on corrupted record error = %v, want ErrVaultUnavailable", err)
	}
}

func TestVaultService_GetWrongServerSecret(t *testing.T) {
	repo := newMockVaultRepository()
	svc := NewVaultService(repo, testServerSecret, nil)

	if _, err := svc.Save("user-1", &domain.SaveVaultRequest{
		EncryptedData: "Y2xpZW50LWJsb2I=",
		ClientSalt:    "c2FsdA==",
	}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	rotated := NewVaultService(repo, "different-secret", nil)
	if _, err := rotated.Get("user-1"); !errors.Is(err, ErrVaultUnavailable) {
		t.Errorf("Get() under rotated secret error = %v, want ErrVaultUnavailable", err)
	}
}

func TestVaultService_Export(t *testing.T) {
	repo := newMockVaultRepository()
	svc := NewVaultService(repo, testServerSecret, nil)

	clientBlob := "Y2xpZW50LWJsb2I="
	if _, err := svc.Save("user-1", &domain.SaveVaultRequest{
		EncryptedData: clientBlob,
		ClientSalt:    "c2FsdA==",
	}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	resp, err := svc.Export("user-1")
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if !resp.Export {
		t.Error("Export() response not flagged as export")
	}
	if resp.EncryptedData != clientBlob {
		t.Error("Export() returned data still carrying the server wrapping")
	}
}

func TestVaultService_SaveNotifies(t *testing.T) {
	repo := newMockVaultRepository()
	notifier := &recordingNotifier{}
	svc := NewVaultService(repo, testServerSecret, notifier)

	if _, err := svc.Save("user-1", &domain.SaveVaultRequest{
		EncryptedData: "Y2xpZW50LWJsb2I=",
		ClientSalt:    "c2FsdA==",
		DeviceID:      "device-7",
	}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if notifier.calls != 1 {
		t.Fatalf("notifier calls = %d, want 1", notifier.calls)
	}
	if notifier.userID != "user-1" || notifier.deviceID != "device-7" {
		t.Errorf("notified (%q, %q), want (user-1, device-7)", notifier.userID, notifier.deviceID)
	}
}
