package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"seedvault-server/internal/crypto"
	"seedvault-server/internal/domain"
	"seedvault-server/internal/middleware"
	"seedvault-server/internal/service"
	"seedvault-server/pkg/response"

	"github.com/go-playground/validator/v10"
)

type VaultHandler struct {
	service  *service.VaultService
	validate *validator.Validate
}

func NewVaultHandler(service *service.VaultService) *VaultHandler {
	return &VaultHandler{
		service:  service,
		validate: validator.New(),
	}
}

// Save accepts a client-sealed blob and its salt. The server wraps it with
// the outer layer before persisting; the plaintext vault never appears here.
func (h *VaultHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req domain.SaveVaultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	userID := middleware.GetUserID(r)

	resp, err := h.service.Save(userID, &req)
	if err != nil {
		response.InternalError(w, "Failed to save vault")
		return
	}

	response.Success(w, resp)
}

func (h *VaultHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)

	vault, err := h.service.Get(userID)
	if err != nil {
		if errors.Is(err, service.ErrVaultUnavailable) {
			response.NotFound(w, "No vault available")
			return
		}
		response.InternalError(w, "Failed to load vault")
		return
	}

	response.Success(w, vault)
}

// Export serves the inner blob for backup. With ?format=file the response is
// a ready-to-save backup document instead of the JSON API shape.
func (h *VaultHandler) Export(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)

	vault, err := h.service.Export(userID)
	if err != nil {
		if errors.Is(err, service.ErrVaultUnavailable) {
			response.NotFound(w, "No vault available")
			return
		}
		response.InternalError(w, "Failed to export vault")
		return
	}

	if r.URL.Query().Get("format") == "file" {
		backup, err := crypto.ExportFile(vault.ClientSalt, vault.EncryptedData)
		if err != nil {
			response.InternalError(w, "Failed to build backup file")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", `attachment; filename="vault-backup.json"`)
		w.Write(backup)
		return
	}

	response.Success(w, vault)
}
