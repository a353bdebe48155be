// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
	"gopkg.in/yaml.v3"
)

// WriteFile atomically writes cfg as YAML to path (temp file, fsync, rename).
func WriteFile(path string, cfg AppConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	pending, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o600))
	if err != nil {
		return fmt.Errorf("create pending config file: %w", err)
	}
	defer func() { _ = pending.Cleanup() }()

	if _, err := pending.Write(data); err != nil {
		return fmt.Errorf("write config data: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace config file: %w", err)
	}
	return nil
}

// InitFile writes a default configuration with a freshly generated JWT secret.
// It refuses to overwrite an existing file unless force is set.
func InitFile(path string, force bool) (AppConfig, error) {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return AppConfig{}, fmt.Errorf("config file %s already exists", path)
		}
	}

	secret, err := newSecret()
	if err != nil {
		return AppConfig{}, err
	}

	cfg := Default()
	cfg.Auth.JWTSecret = secret
	if err := WriteFile(path, cfg); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

func newSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate jwt secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
