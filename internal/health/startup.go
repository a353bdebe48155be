// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package health

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/ManuGH/vidfetch/internal/config"
	"github.com/ManuGH/vidfetch/internal/extractor"
	"github.com/ManuGH/vidfetch/internal/log"
	"github.com/rs/zerolog"
)

// PerformStartupChecks validates the environment before the server starts.
func PerformStartupChecks(_ context.Context, cfg config.AppConfig) error {
	logger := log.WithComponent("startup-check")
	logger.Info().Msg("running pre-flight startup checks")

	if err := checkDataDir(logger, cfg.DataDir); err != nil {
		return fmt.Errorf("data directory check failed: %w", err)
	}
	if err := checkExtractor(logger, cfg.Extractor); err != nil {
		return err
	}

	if tmp := filepath.Clean(os.TempDir()); isUnder(cfg.Auth.DBPath, tmp) {
		logger.Warn().
			Str("db_path", cfg.Auth.DBPath).
			Msg("user database is under the temp directory; accounts may be lost on reboot")
	}

	logger.Info().Msg("all startup checks passed")
	return nil
}

// checkDataDir creates dataDir if needed and verifies it is writable.
func checkDataDir(logger zerolog.Logger, path string) error {
	if err := os.MkdirAll(path, 0o750); err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}

	testFile := filepath.Join(path, ".write_test")
	if err := os.WriteFile(testFile, []byte("ok"), 0o600); err != nil {
		return fmt.Errorf("directory is not writable: %s: %w", path, err)
	}
	_ = os.Remove(testFile)

	logger.Info().Str("path", path).Msg("data directory is writable")
	return nil
}

func checkExtractor(logger zerolog.Logger, cfg config.ExtractorConfig) error {
	bin, err := exec.LookPath(cfg.Bin)
	if err != nil {
		return fmt.Errorf("extractor binary not found (%s): %w", cfg.Bin, err)
	}
	logger.Info().Str("bin", bin).Msg("extractor binary available")

	if cookies := extractor.CookieFile(cfg.CookiesFile); cookies != "" {
		f, err := os.Open(cookies) // #nosec G304 -- path comes from operator config
		if err != nil {
			return fmt.Errorf("cookie file not readable: %w", err)
		}
		_ = f.Close()
		logger.Info().Str("path", cookies).Msg("cookie file will be passed to the extractor")
	}
	return nil
}

func isUnder(path, dir string) bool {
	path = filepath.Clean(path)
	return dir != "." && (path == dir || strings.HasPrefix(path, dir+string(filepath.Separator)))
}
