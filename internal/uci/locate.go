package uci

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// EnvPath names the environment variable consulted by Locate.
const EnvPath = "STOCKFISH_PATH"

// DefaultCandidates are the places Locate looks for an engine when neither an
// explicit path nor $STOCKFISH_PATH is set.
var DefaultCandidates = []string{
	"stockfish",
	"/usr/local/bin/stockfish",
	"/usr/bin/stockfish",
	"/usr/games/stockfish",
	"/opt/homebrew/bin/stockfish",
}

// ErrEngineNotFound is returned by Locate when no candidate is executable.
var ErrEngineNotFound = errors.New("uci: engine binary not found")

// Locate resolves the engine binary. An explicit path wins, then
// $STOCKFISH_PATH, then the first of candidates found by exec.LookPath.
func Locate(path string, candidates ...string) (string, error) {
	if path != "" {
		resolved, err := exec.LookPath(path)
		if err != nil {
			return "", fmt.Errorf("%w: %s: %v", ErrEngineNotFound, path, err)
		}
		return resolved, nil
	}
	if env := os.Getenv(EnvPath); env != "" {
		return Locate(env)
	}
	if len(candidates) == 0 {
		candidates = DefaultCandidates
	}
	for _, c := range candidates {
		if resolved, err := exec.LookPath(c); err == nil {
			return resolved, nil
		}
	}
	return "", fmt.Errorf("%w: tried %v", ErrEngineNotFound, candidates)
}
