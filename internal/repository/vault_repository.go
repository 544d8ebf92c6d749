package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"seedvault-server/internal/domain"

	"github.com/go-kivik/kivik/v4"
)

// ErrVaultNotFound signals that no vault document exists for the user, as
// opposed to a storage failure.
var ErrVaultNotFound = errors.New("vault not found")

type VaultRepository interface {
	Save(vault *domain.Vault) error
	Get(userID string) (*domain.Vault, error)
}

type vaultRepository struct {
	client *kivik.Client
	dbName string
}

func NewVaultRepository(client *kivik.Client, dbName string) VaultRepository {
	return &vaultRepository{
		client: client,
		dbName: dbName,
	}
}

func (r *vaultRepository) Save(vault *domain.Vault) error {
	db := r.client.DB(r.dbName)
	docID := fmt.Sprintf("vault:%s", vault.UserID)

	var rawDoc map[string]interface{}
	row := db.Get(context.Background(), docID)

	if err := row.ScanDoc(&rawDoc); err == nil {
		rawDoc["encrypted_data"] = vault.EncryptedData
		rawDoc["server_salt"] = vault.ServerSalt
		rawDoc["client_salt"] = vault.ClientSalt
		rawDoc["updated_at"] = time.Now()

		_, err := db.Put(context.Background(), docID, rawDoc)
		if err != nil {
			return fmt.Errorf("failed to update vault: %w", err)
		}
	} else {
		_, err := db.Put(context.Background(), docID, vault)
		if err != nil {
			return fmt.Errorf("failed to create vault: %w", err)
		}
	}

	return nil
}

func (r *vaultRepository) Get(userID string) (*domain.Vault, error) {
	db := r.client.DB(r.dbName)
	docID := fmt.Sprintf("vault:%s", userID)

	row := db.Get(context.Background(), docID)

	var vault domain.Vault
	if err := row.ScanDoc(&vault); err != nil {
		if kivik.HTTPStatus(err) == 404 {
			return nil, ErrVaultNotFound
		}
		return nil, fmt.Errorf("failed to get vault: %w", err)
	}

	return &vault, nil
}
