package repo

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// CommitStore is an append only, content addressed commit store.
type CommitStore interface {
	// Put stores c under its id and returns the id. Storing a commit twice is not an error.
	Put(c *Commit) (string, error)
	Get(id string) (*Commit, error)
	Has(id string) (bool, error)
	IDs() ([]string, error)
}

// DirStore keeps one compressed file per commit, named by the commit id.
type DirStore struct {
	dir string
}

func NewDirStore(dir string) *DirStore {
	return &DirStore{dir: dir}
}

func (s *DirStore) file(id string) (string, error) {
	if !ValidID(id) {
		return "", errors.Wrapf(ErrInvalidCommitID, "'%s'", id)
	}
	return filepath.Join(s.dir, id), nil
}

func (s *DirStore) Put(c *Commit) (string, error) {
	id := c.ID()
	path, err := s.file(id)
	if err != nil {
		return "", err
	}
	if _, err = os.Stat(path); err == nil {
		return id, nil
	}
	data, err := c.Encode()
	if err != nil {
		return "", err
	}
	if err = writeFileAtomic(path, data); err != nil {
		return "", errors.Wrapf(err, "write commit %s", ShortID(id))
	}
	return id, nil
}

func (s *DirStore) Get(id string) (*Commit, error) {
	path, err := s.file(id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrapf(ErrCommitNotFound, "'%s'", ShortID(id))
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read commit %s", ShortID(id))
	}
	c, err := DecodeCommit(data)
	if err != nil {
		return nil, errors.Wrapf(err, "read commit %s", ShortID(id))
	}
	if c.ID() != id {
		return nil, errors.Wrapf(ErrCorruptCommit, "'%s'", ShortID(id))
	}
	return c, nil
}

func (s *DirStore) Has(id string) (bool, error) {
	path, err := s.file(id)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	return err == nil, err
}

// IDs lists the stored commit ids in lexical order.
func (s *DirStore) IDs() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, errors.Wrap(err, "list commits")
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !ValidID(e.Name()) {
			continue
		}
		ids = append(ids, e.Name())
	}
	sort.Strings(ids)
	return ids, nil
}

// writeFileAtomic writes data next to path and renames it into place, so readers never see a
// partial file.
func writeFileAtomic(path string, data []byte) error {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if _, err = f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err = f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err = os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// resolvePrefix finds the single id in ids starting with prefix.
func resolvePrefix(ids []string, prefix string) (string, error) {
	var match string
	for _, id := range ids {
		if !strings.HasPrefix(id, prefix) {
			continue
		}
		if match != "" {
			return "", errors.Wrapf(ErrAmbiguousCommit, "'%s'", prefix)
		}
		match = id
	}
	if match == "" {
		return "", errors.Wrapf(ErrCommitNotFound, "'%s'", prefix)
	}
	return match, nil
}
