package git

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/go-git/go-git/v5"
	ggitcfg "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/storage/memory"

	"git.home.luguber.info/inful/pluginbuild/internal/logfields"
)

// NativeFetcher uses go-git and needs no git installation.
type NativeFetcher struct {
	depth    int
	progress io.Writer
}

// NewNativeFetcher returns a go-git based fetcher. depth <= 0 fetches full history.
func NewNativeFetcher(depth int, progress io.Writer) *NativeFetcher {
	return &NativeFetcher{depth: depth, progress: progress}
}

// Fetch clones dep or converges an existing checkout onto its wanted revision.
func (n *NativeFetcher) Fetch(ctx context.Context, buildDir string, dep Dependency) (Result, error) {
	dir := dep.Dir(buildDir)
	res := Result{Name: dep.Name, Path: dir}

	target, err := resolveRemoteRef(ctx, dep)
	if err != nil {
		return res, ClassifyGitError(err, "ls-remote", dep.URL)
	}

	var hash plumbing.Hash
	if HasCheckout(dir) {
		hash, err = n.update(ctx, dir, dep, target)
	} else {
		res.Cloned = true
		hash, err = n.clone(ctx, dir, dep, target)
	}
	if err != nil {
		return res, err
	}

	res.Commit = hash.String()
	slog.Info("Dependency ready",
		logfields.Dependency(dep.Name),
		logfields.Revision(revisionLabel(dep)),
		logfields.Commit(res.ShortCommit()),
		logfields.Backend(BackendNative))
	return res, nil
}

func (n *NativeFetcher) clone(ctx context.Context, dir string, dep Dependency, target plumbing.ReferenceName) (plumbing.Hash, error) {
	_, _ = fmt.Fprintf(n.out(), "Cloning: %s -> %s\n", dep.URL, dir)
	opts := &git.CloneOptions{
		URL:           dep.URL,
		ReferenceName: target,
		SingleBranch:  true,
		Tags:          git.NoTags,
		Depth:         n.depth,
		Progress:      n.progress,
	}
	repo, err := git.PlainCloneContext(ctx, dir, false, opts)
	if err != nil {
		return plumbing.ZeroHash, ClassifyGitError(err, "clone", dep.URL)
	}
	head, err := repo.Head()
	if err != nil {
		return plumbing.ZeroHash, ClassifyGitError(err, "clone", dep.URL)
	}
	return head.Hash(), nil
}

func (n *NativeFetcher) update(ctx context.Context, dir string, dep Dependency, target plumbing.ReferenceName) (plumbing.Hash, error) {
	_, _ = fmt.Fprintf(n.out(), "Updating: %s (%s)\n", dir, target)
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return plumbing.ZeroHash, ClassifyGitError(err, "open", dep.URL)
	}

	local := plumbing.NewRemoteReferenceName("origin", target.Short())
	fetchOpts := &git.FetchOptions{
		RemoteName: "origin",
		RemoteURL:  dep.URL,
		RefSpecs:   []ggitcfg.RefSpec{ggitcfg.RefSpec("+" + target.String() + ":" + local.String())},
		Tags:       git.NoTags,
		Depth:      n.depth,
		Progress:   n.progress,
		Force:      true,
	}
	if err := repo.FetchContext(ctx, fetchOpts); err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return plumbing.ZeroHash, ClassifyGitError(err, "fetch", dep.URL)
	}

	ref, err := repo.Reference(local, true)
	if err != nil {
		return plumbing.ZeroHash, ClassifyGitError(err, "fetch", dep.URL)
	}
	commit, err := peelToCommit(repo, ref.Hash())
	if err != nil {
		return plumbing.ZeroHash, ClassifyGitError(err, "fetch", dep.URL)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return plumbing.ZeroHash, ClassifyGitError(err, "worktree", dep.URL)
	}
	if dep.Pinned() {
		err = wt.Checkout(&git.CheckoutOptions{Hash: commit, Force: true})
	} else {
		err = wt.Reset(&git.ResetOptions{Commit: commit, Mode: git.HardReset})
	}
	if err != nil {
		return plumbing.ZeroHash, ClassifyGitError(err, "checkout", dep.URL)
	}
	return commit, nil
}

func (n *NativeFetcher) out() io.Writer {
	if n.progress == nil {
		return io.Discard
	}
	return n.progress
}

// resolveRemoteRef maps the dependency's revision onto a full remote reference name.
// Pinned revisions may name a branch or a tag; tracking dependencies follow the
// remote's HEAD.
func resolveRemoteRef(ctx context.Context, dep Dependency) (plumbing.ReferenceName, error) {
	remote := git.NewRemote(memory.NewStorage(), &ggitcfg.RemoteConfig{Name: "origin", URLs: []string{dep.URL}})
	refs, err := remote.ListContext(ctx, &git.ListOptions{})
	if err != nil {
		return "", err
	}

	byName := make(map[plumbing.ReferenceName]*plumbing.Reference, len(refs))
	for _, r := range refs {
		byName[r.Name()] = r
	}

	if dep.Pinned() {
		for _, name := range []plumbing.ReferenceName{
			plumbing.NewBranchReferenceName(dep.Revision),
			plumbing.NewTagReferenceName(dep.Revision),
		} {
			if _, ok := byName[name]; ok {
				return name, nil
			}
		}
		return "", fmt.Errorf("couldn't find remote ref %q", dep.Revision)
	}

	head, ok := byName[plumbing.HEAD]
	if !ok {
		return "", fmt.Errorf("remote HEAD: %w", plumbing.ErrReferenceNotFound)
	}
	if head.Type() == plumbing.SymbolicReference {
		return head.Target(), nil
	}
	for _, r := range refs {
		if r.Name().IsBranch() && r.Hash() == head.Hash() {
			return r.Name(), nil
		}
	}
	return "", fmt.Errorf("remote HEAD %s matches no branch", head.Hash())
}

// peelToCommit resolves annotated tag objects down to the commit they point at.
func peelToCommit(repo *git.Repository, h plumbing.Hash) (plumbing.Hash, error) {
	if _, err := repo.CommitObject(h); err == nil {
		return h, nil
	}
	tag, err := repo.TagObject(h)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("resolve %s: %w", h, err)
	}
	c, err := tag.Commit()
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("peel tag %s: %w", tag.Name, err)
	}
	return c.Hash, nil
}
