// Package backup seals habit snapshots in age-encrypted, ASCII-armored files.
//
// The plaintext is the JSON form of habit.Snapshot. Encryption is
// passphrase-based (age scrypt). WriteFile is atomic: data goes to a temp
// file, is fsync'd, then renamed into place.
package backup

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"filippo.io/age"
	"filippo.io/age/armor"

	"github.com/rnwolfe/habit/internal/habit"
)

// ErrWrongPassphrase is returned when decryption fails due to a bad passphrase.
var ErrWrongPassphrase = errors.New("wrong passphrase")

// ErrCorrupted is returned when the input is not a readable backup.
var ErrCorrupted = errors.New("backup is corrupted or unreadable")

// ErrEmptyPassphrase is returned before any crypto work when no passphrase is given.
var ErrEmptyPassphrase = errors.New("passphrase must not be empty")

// Export encrypts snap with passphrase and writes it to w.
func Export(w io.Writer, snap *habit.Snapshot, passphrase string) error {
	raw, err := seal(snap, passphrase)
	if err != nil {
		return err
	}
	if _, err := w.Write(raw); err != nil {
		return fmt.Errorf("writing backup: %w", err)
	}
	return nil
}

// Import reads and decrypts a backup produced by Export.
func Import(r io.Reader, passphrase string) (*habit.Snapshot, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading backup: %w", err)
	}
	return open(raw, passphrase)
}

// WriteFile exports snap to path atomically with 0600 permissions.
func WriteFile(path string, snap *habit.Snapshot, passphrase string) error {
	raw, err := seal(snap, passphrase)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating backup directory: %w", err)
	}
	return atomicWrite(path, raw)
}

// ReadFile imports the backup stored at path.
func ReadFile(path, passphrase string) (*habit.Snapshot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return open(raw, passphrase)
}

func seal(snap *habit.Snapshot, passphrase string) ([]byte, error) {
	if passphrase == "" {
		return nil, ErrEmptyPassphrase
	}
	if snap == nil {
		return nil, errors.New("nothing to export")
	}
	jsonBytes, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("serializing snapshot: %w", err)
	}

	recipient, err := age.NewScryptRecipient(passphrase)
	if err != nil {
		return nil, fmt.Errorf("creating age recipient: %w", err)
	}

	var buf bytes.Buffer
	armorWriter := armor.NewWriter(&buf)

	w, err := age.Encrypt(armorWriter, recipient)
	if err != nil {
		return nil, fmt.Errorf("initializing age encryption: %w", err)
	}
	if _, err := w.Write(jsonBytes); err != nil {
		return nil, fmt.Errorf("encrypting snapshot: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalizing encryption: %w", err)
	}
	if err := armorWriter.Close(); err != nil {
		return nil, fmt.Errorf("finalizing armor: %w", err)
	}
	return buf.Bytes(), nil
}

func open(raw []byte, passphrase string) (*habit.Snapshot, error) {
	if passphrase == "" {
		return nil, ErrEmptyPassphrase
	}
	identity, err := age.NewScryptIdentity(passphrase)
	if err != nil {
		return nil, fmt.Errorf("creating age identity: %w", err)
	}

	r, err := age.Decrypt(armor.NewReader(bytes.NewReader(raw)), identity)
	if err != nil {
		// age has no typed error for a wrong scrypt passphrase; match its wording.
		msg := err.Error()
		if strings.Contains(msg, "no identity matched") || strings.Contains(msg, "incorrect") {
			return nil, fmt.Errorf("%w: %v", ErrWrongPassphrase, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrCorrupted, err)
	}

	plaintext, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: reading decrypted data: %v", ErrCorrupted, err)
	}

	var snap habit.Snapshot
	if err := json.Unmarshal(plaintext, &snap); err != nil {
		return nil, fmt.Errorf("%w: parsing snapshot JSON: %v", ErrCorrupted, err)
	}
	if snap.Version == 0 {
		return nil, fmt.Errorf("%w: missing snapshot version", ErrCorrupted)
	}
	return &snap, nil
}

// atomicWrite writes data to path atomically: write temp file → fsync → rename.
func atomicWrite(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".habit-backup-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpName)
		}
	}()

	if err := os.Chmod(tmpName, 0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("setting temp file permissions: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing backup data: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("fsyncing backup data: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("committing backup file: %w", err)
	}

	success = true
	return nil
}
