package api

import (
	"context"
	"sort"
	"sync/atomic"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/tit-vcs/tit/repo"
)

// Report says what a sync moved.
type Report struct {
	Created    bool
	Downloaded int
	Uploaded   int

	// Branches lists the local branches that now point at the server's head.
	Branches []string

	// Skipped lists server branches left alone because their head commit could not be fetched.
	Skipped []string
}

type syncer struct {
	ctx      context.Context
	repo     *repo.Repository
	client   *Client
	name     string
	parallel int
	state    *repo.State
	report   Report
}

func newSyncer(ctx context.Context, r *repo.Repository, client *Client, parallel int) (*syncer, error) {
	if parallel < 1 {
		parallel = 1
	}
	state, err := r.State()
	if err != nil {
		return nil, err
	}
	s := &syncer{ctx: ctx, repo: r, client: client, parallel: parallel, state: state, name: state.Project.Name}
	if s.report.Created, err = client.Ensure(s.name); err != nil {
		return nil, errors.Wrapf(err, "repository '%s'", s.name)
	}
	return s, nil
}

// Sync exchanges commits and branches with the server in both directions. Remote branch pointers
// replace local ones unless the local branch is ahead of them.
func Sync(ctx context.Context, r *repo.Repository, client *Client, parallel int) (*Report, error) {
	s, err := newSyncer(ctx, r, client, parallel)
	if err != nil {
		return nil, err
	}
	if err = s.pull(); err != nil {
		return nil, err
	}
	if err = s.push(); err != nil {
		return nil, err
	}
	return &s.report, s.save()
}

// Pull downloads commits and branches from the server without sending anything back.
func Pull(ctx context.Context, r *repo.Repository, client *Client, parallel int) (*Report, error) {
	s, err := newSyncer(ctx, r, client, parallel)
	if err != nil {
		return nil, err
	}
	if err = s.pull(); err != nil {
		return nil, err
	}
	return &s.report, s.save()
}

// Push sends local commits and branches to the server.
func Push(ctx context.Context, r *repo.Repository, client *Client, parallel int) (*Report, error) {
	s, err := newSyncer(ctx, r, client, parallel)
	if err != nil {
		return nil, err
	}
	if err = s.push(); err != nil {
		return nil, err
	}
	return &s.report, nil
}

func (s *syncer) localIDs() (map[string]bool, []string, error) {
	ids, err := s.repo.Commits().IDs()
	if err != nil {
		return nil, nil, err
	}
	have := make(map[string]bool, len(ids))
	for _, id := range ids {
		have[id] = true
	}
	return have, ids, nil
}

func (s *syncer) pull() error {
	idx, err := s.client.Index(s.name)
	if err != nil {
		return err
	}
	have, _, err := s.localIDs()
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(s.ctx)
	g.SetLimit(s.parallel)
	var downloaded atomic.Int64
	for _, id := range idx.Commits {
		if have[id] {
			continue
		}
		id := id
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			c, err := s.client.Download(s.name, id)
			if err != nil {
				return errors.Wrapf(err, "download %s", repo.ShortID(id))
			}
			if _, err = s.repo.Commits().Put(c); err != nil {
				return err
			}
			downloaded.Add(1)
			return nil
		})
	}
	err = g.Wait()
	s.report.Downloaded = int(downloaded.Load())
	if err != nil {
		return err
	}

	names := make([]string, 0, len(idx.Branches))
	for name := range idx.Branches {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		remote := idx.Branches[name]
		local, ok := s.state.Branches[name]
		if ok && local == remote {
			continue
		}
		complete, err := s.complete(remote)
		if err != nil {
			return err
		}
		if !complete {
			s.report.Skipped = append(s.report.Skipped, name)
			continue
		}
		if ok && local != repo.NoCommit {
			ahead, err := s.contains(local, remote)
			if err != nil {
				return err
			}
			if ahead {
				continue
			}
		}
		s.state.SetBranch(name, remote)
		s.report.Branches = append(s.report.Branches, name)
	}
	return nil
}

// complete reports whether the whole history ending at head is stored locally.
func (s *syncer) complete(head string) (bool, error) {
	_, err := s.repo.History(head)
	if errors.Is(err, repo.ErrCommitNotFound) {
		return false, nil
	}
	return err == nil, err
}

// contains reports whether commit id is part of the history ending at head.
func (s *syncer) contains(head, id string) (bool, error) {
	if id == repo.NoCommit {
		return true, nil
	}
	chain, err := s.repo.History(head)
	if err != nil {
		return false, err
	}
	for _, c := range chain {
		if c.ID() == id {
			return true, nil
		}
	}
	return false, nil
}

// push offers the local commits, uploads what the server lacks, and only then moves the server's
// branch pointers, so a server never names a head it does not hold.
func (s *syncer) push() error {
	_, ids, err := s.localIDs()
	if err != nil {
		return err
	}
	missing, err := s.client.Offer(s.name, Offer{Commits: ids})
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(s.ctx)
	g.SetLimit(s.parallel)
	for _, id := range missing {
		id := id
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			c, err := s.repo.Commits().Get(id)
			if err != nil {
				return err
			}
			if _, err = s.client.Upload(s.name, c); err != nil {
				return errors.Wrapf(err, "upload %s", repo.ShortID(id))
			}
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return err
	}
	s.report.Uploaded = len(missing)

	if _, err = s.client.Offer(s.name, Offer{Branches: s.state.Branches}); err != nil {
		return errors.Wrap(err, "update branches")
	}
	return nil
}

// save writes the merged state, and rebuilds the snapshot when the current branch moved.
func (s *syncer) save() error {
	for _, name := range s.report.Branches {
		if name != s.state.Current.Branch {
			continue
		}
		t, err := s.repo.TreeAt(s.state.Head())
		if err != nil {
			return err
		}
		if err = s.repo.SaveSnapshot(t); err != nil {
			return err
		}
	}
	return s.repo.SaveState(s.state)
}
