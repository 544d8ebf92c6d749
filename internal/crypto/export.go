package crypto

import (
	"encoding/json"
	"fmt"
	"time"
)

// ExportVersion is the backup file format version.
const ExportVersion = "1.0"

// BackupFile is the user-controlled local backup of a sealed vault. It holds
// only the client-layer blob; the server wrapping never leaves the server.
type BackupFile struct {
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
	Salt      string    `json:"salt"`
	Data      string    `json:"data"`
}

// ExportFile renders a sealed client blob and its salt as a backup file.
func ExportFile(salt, blob string) ([]byte, error) {
	if salt == "" || blob == "" {
		return nil, fmt.Errorf("missing salt or data: %w", ErrInvalidInput)
	}

	out, err := json.MarshalIndent(&BackupFile{
		Version:   ExportVersion,
		Timestamp: time.Now().UTC(),
		Salt:      salt,
		Data:      blob,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode backup: %w", err)
	}
	return out, nil
}

// ParseExportFile reads a backup file back, rejecting unknown versions.
func ParseExportFile(data []byte) (*BackupFile, error) {
	var f BackupFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse backup: %w", err)
	}
	if f.Version != ExportVersion {
		return nil, fmt.Errorf("unsupported backup version %q", f.Version)
	}
	if f.Salt == "" || f.Data == "" {
		return nil, fmt.Errorf("backup missing salt or data: %w", ErrInvalidInput)
	}
	return &f, nil
}
