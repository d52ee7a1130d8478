// Package gitsource keeps local checkouts of git-hosted decks.
package gitsource

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
)

// Sync clones a git repository if it doesn't exist at localPath, or pulls
// the latest changes if it does.
func Sync(ctx context.Context, log *slog.Logger, repoURL, localPath string) error {
	log = log.With("url", repoURL, "path", localPath)

	_, err := os.Stat(localPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		log.Info("cloning repository")
		if _, err := git.PlainCloneContext(ctx, localPath, false, &git.CloneOptions{URL: repoURL}); err != nil {
			return fmt.Errorf("failed to clone repo %s: %w", repoURL, err)
		}
		log.Info("clone successful")
	case err == nil:
		log.Info("pulling latest changes")
		repo, err := git.PlainOpen(localPath)
		if err != nil {
			return fmt.Errorf("failed to open existing repo at %s: %w", localPath, err)
		}

		worktree, err := repo.Worktree()
		if err != nil {
			return fmt.Errorf("failed to get worktree for repo at %s: %w", localPath, err)
		}

		err = worktree.PullContext(ctx, &git.PullOptions{RemoteName: "origin"})
		if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
			return fmt.Errorf("failed to pull changes for repo at %s: %w", localPath, err)
		}
		log.Info("pull successful", "up_to_date", errors.Is(err, git.NoErrAlreadyUpToDate))
	default:
		return fmt.Errorf("error checking path %s: %w", localPath, err)
	}

	return nil
}

// IsRemote reports whether path names a git remote rather than a local
// directory.
func IsRemote(path string) bool {
	if u, err := url.Parse(path); err == nil && u.Scheme != "" && u.Host != "" {
		return true
	}
	return isSCPLike(path)
}

// isSCPLike matches "user@host:path" remotes.
func isSCPLike(path string) bool {
	at := strings.Index(path, "@")
	colon := strings.Index(path, ":")
	return at > 0 && colon > at+1 && !strings.Contains(path[:colon], "/")
}

// LocalPath maps a remote URL to its checkout directory under baseDir.
func LocalPath(baseDir, repoURL string) (string, error) {
	if isSCPLike(repoURL) {
		parts := strings.SplitN(repoURL, ":", 2)
		host := parts[0][strings.Index(parts[0], "@")+1:]
		repoPath := strings.TrimSuffix(parts[1], ".git")
		return underBase(baseDir, repoURL, filepath.Join(baseDir, host, repoPath))
	}

	parsedURL, err := url.Parse(repoURL)
	if err != nil || parsedURL.Host == "" {
		return "", fmt.Errorf("could not parse git URL: %s", repoURL)
	}
	switch parsedURL.Scheme {
	case "https", "http", "ssh", "git", "file":
	default:
		return "", fmt.Errorf("unsupported git URL scheme %q: %s", parsedURL.Scheme, repoURL)
	}

	sanitizedPath := strings.TrimSuffix(parsedURL.Path, ".git")
	return underBase(baseDir, repoURL, filepath.Join(baseDir, parsedURL.Host, sanitizedPath))
}

// underBase rejects checkout paths that escape baseDir or collapse onto it.
func underBase(baseDir, repoURL, p string) (string, error) {
	rel, err := filepath.Rel(baseDir, p)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("git URL %s maps outside %s", repoURL, baseDir)
	}
	return p, nil
}
