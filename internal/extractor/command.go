// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package extractor runs yt-dlp as a child process, either buffered for
// metadata (-J) or streaming media to stdout for downloads.
package extractor

import (
	"os"
)

// Invocation modes, used as metric and span labels.
const (
	ModeMetadata = "metadata"
	ModeDownload = "download"
)

// Command is a fully typed extractor invocation. Arguments are passed to the
// binary as-is; nothing is ever interpreted by a shell.
type Command struct {
	Bin  string
	Args []string
	Dir  string
	Env  []string
}

// MetadataArgs builds the arguments for a single-document JSON dump of url.
func MetadataArgs(url, cookies string) []string {
	args := make([]string, 0, 5)
	if cookies != "" {
		args = append(args, "--cookies", cookies)
	}
	// "--" keeps a URL starting with "-" from being parsed as an option.
	return append(args, "-J", "--", url)
}

// DownloadArgs builds the arguments for streaming formatID of url to stdout,
// merged into the ext container.
func DownloadArgs(url, formatID, ext, cookies string) []string {
	args := make([]string, 0, 11)
	if cookies != "" {
		args = append(args, "--cookies", cookies)
	}
	return append(args,
		"-f", formatID,
		"-o", "-",
		"--merge-output-format", ext,
		"--", url,
	)
}

// CookieFile returns path when it names an existing regular file, else "".
func CookieFile(path string) string {
	if path == "" {
		return ""
	}
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return ""
	}
	return path
}
