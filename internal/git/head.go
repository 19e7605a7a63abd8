package git

import (
	"fmt"

	"github.com/go-git/go-git/v5"
)

// ReadRepoHead returns the commit hash HEAD points at in the working tree at repoPath.
func ReadRepoHead(repoPath string) (string, error) {
	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		return "", fmt.Errorf("open repo: %w", err)
	}
	ref, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("resolve HEAD: %w", err)
	}
	return ref.Hash().String(), nil
}
