package vcs

import (
	"context"
	"errors"
	"sort"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
)

// GoGit reads repository state in-process. Dir may be any path inside the work tree.
type GoGit struct {
	Dir string
}

func (g GoGit) open() (*git.Repository, error) {
	dir := g.Dir
	if dir == "" {
		dir = "."
	}
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, ErrNoRepository
		}
		return nil, err
	}
	return repo, nil
}

func (g GoGit) head() (*git.Repository, *plumbing.Reference, error) {
	repo, err := g.open()
	if err != nil {
		return nil, nil, err
	}
	ref, err := repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return nil, nil, ErrNoHead
		}
		return nil, nil, err
	}
	return repo, ref, nil
}

// NearestTag walks history from HEAD, newest first, and returns the first tagged commit's tag.
func (g GoGit) NearestTag(ctx context.Context) (string, error) {
	repo, ref, err := g.head()
	if err != nil {
		return "", err
	}
	byCommit, err := tagsByCommit(repo)
	if err != nil {
		return "", err
	}
	if len(byCommit) == 0 {
		return "", ErrNoTag
	}
	iter, err := repo.Log(&git.LogOptions{From: ref.Hash(), Order: git.LogOrderCommitterTime})
	if err != nil {
		return "", err
	}
	defer iter.Close()
	found := ""
	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if names, ok := byCommit[c.Hash]; ok {
			found = names[len(names)-1]
			return storer.ErrStop
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if found == "" {
		return "", ErrNoTag
	}
	return found, nil
}

// tagsByCommit maps peeled commit hashes to their sorted tag names.
func tagsByCommit(repo *git.Repository) (map[plumbing.Hash][]string, error) {
	tags, err := repo.Tags()
	if err != nil {
		return nil, err
	}
	defer tags.Close()
	out := map[plumbing.Hash][]string{}
	err = tags.ForEach(func(ref *plumbing.Reference) error {
		target := ref.Hash()
		tagObj, err := repo.TagObject(target)
		switch {
		case err == nil:
			c, err := tagObj.Commit()
			if err != nil {
				// annotated tag on a non-commit object
				return nil
			}
			target = c.Hash
		case errors.Is(err, plumbing.ErrObjectNotFound):
		default:
			return err
		}
		out[target] = append(out[target], ref.Name().Short())
		return nil
	})
	if err != nil {
		return nil, err
	}
	for h := range out {
		sort.Strings(out[h])
	}
	return out, nil
}

func (g GoGit) ShortCommit(ctx context.Context) (string, error) {
	full, err := g.FullCommit(ctx)
	if err != nil {
		return "", err
	}
	return shorten(full), nil
}

func (g GoGit) FullCommit(_ context.Context) (string, error) {
	_, ref, err := g.head()
	if err != nil {
		return "", err
	}
	return ref.Hash().String(), nil
}

// Branch returns the checked-out branch, or "HEAD" when detached.
func (g GoGit) Branch(_ context.Context) (string, error) {
	_, ref, err := g.head()
	if err != nil {
		return "", err
	}
	if ref.Name().IsBranch() {
		return ref.Name().Short(), nil
	}
	return "HEAD", nil
}
