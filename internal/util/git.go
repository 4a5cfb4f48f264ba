package util

import (
	"os/exec"
	"strings"
)

// GitInfo describes the checked out revision of a repository
type GitInfo struct {
	HeadCommitSHA string
	HeadCommitMsg string
	IsGitRepo     bool
}

// GetGitInfo reads the HEAD commit of repoPath. A directory outside git
// yields IsGitRepo false and no error.
func GetGitInfo(repoPath string) (*GitInfo, error) {
	info := &GitInfo{}

	cmd := exec.Command("git", "rev-parse", "--git-dir")
	cmd.Dir = repoPath
	if err := cmd.Run(); err != nil {
		return info, nil
	}
	info.IsGitRepo = true

	cmd = exec.Command("git", "rev-parse", "HEAD")
	cmd.Dir = repoPath
	output, err := cmd.Output()
	if err != nil {
		// a fresh repository has no HEAD yet
		return info, nil
	}
	info.HeadCommitSHA = strings.TrimSpace(string(output))

	cmd = exec.Command("git", "log", "-1", "--pretty=%s")
	cmd.Dir = repoPath
	if output, err = cmd.Output(); err == nil {
		info.HeadCommitMsg = strings.TrimSpace(string(output))
	}

	return info, nil
}
