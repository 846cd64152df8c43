package api

import (
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"

	"github.com/tit-vcs/tit/internal/blob"
	"github.com/tit-vcs/tit/repo"
)

// Key layout:
//
//	repo/<name>              repoRecord
//	commit/<name>/<id>       compressed commit
//	branch/<name>/<branch>   commit id
const (
	repoPrefix   = "repo/"
	commitPrefix = "commit/"
	branchPrefix = "branch/"
)

var validName = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// ValidName reports whether name can be used for a repository.
func ValidName(name string) bool {
	return validName.MatchString(name)
}

// StorageConfig holds configuration for the server storage.
type StorageConfig struct {
	// Path is the badger directory. Ignored when InMemory is true.
	Path string

	// InMemory keeps everything in memory, for tests.
	InMemory bool

	// SyncWrites makes every write durable before it is acknowledged.
	SyncWrites bool

	// Logger receives badger's internal log. Nil disables it.
	Logger *slog.Logger

	// GCInterval is how often value log garbage collection runs. Zero disables it.
	GCInterval time.Duration

	// MaxCommitSize bounds the decompressed size of an uploaded commit. Zero means
	// DefaultMaxCommitSize.
	MaxCommitSize int64
}

// DefaultMaxCommitSize is the largest decompressed commit the storage accepts by default.
const DefaultMaxCommitSize int64 = 64 << 20

// DefaultStorageConfig returns the production settings for a store at path.
func DefaultStorageConfig(path string) StorageConfig {
	return StorageConfig{
		Path:       path,
		SyncWrites: true,
		GCInterval: 5 * time.Minute,
	}
}

// InMemoryStorageConfig returns settings for a throwaway store.
func InMemoryStorageConfig() StorageConfig {
	return StorageConfig{InMemory: true}
}

// badgerLogger adapts slog.Logger to badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

type repoRecord struct {
	_struct bool  `codec:",toarray"`
	Created int64 // unix milliseconds
}

// Storage keeps the repositories of a sync server in badger.
type Storage struct {
	db        *badger.DB
	logger    *slog.Logger
	maxCommit int64

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	stop chan struct{}
	done chan struct{}
}

// OpenStorage opens the badger database described by cfg. Close it when done.
func OpenStorage(cfg StorageConfig) (*Storage, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, errors.New("storage path is required")
		}
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, errors.Wrapf(err, "create storage directory %s", cfg.Path)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "open storage")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Storage{db: db, logger: logger, maxCommit: cfg.MaxCommitSize, locks: make(map[string]*sync.Mutex)}
	if s.maxCommit <= 0 {
		s.maxCommit = DefaultMaxCommitSize
	}
	if cfg.GCInterval > 0 && !cfg.InMemory {
		s.stop = make(chan struct{})
		s.done = make(chan struct{})
		go s.gc(cfg.GCInterval)
	}
	return s, nil
}

func (s *Storage) gc(interval time.Duration) {
	defer close(s.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			// ErrNoRewrite only means there was nothing worth collecting
			if err := s.db.RunValueLogGC(0.5); err != nil && !errors.Is(err, badger.ErrNoRewrite) {
				s.logger.Warn("storage value log gc failed", slog.String("error", err.Error()))
			}
		}
	}
}

// Close stops garbage collection and closes the database.
func (s *Storage) Close() error {
	if s.stop != nil {
		close(s.stop)
		<-s.done
	}
	return s.db.Close()
}

// lock serialises writers of one repository.
func (s *Storage) lock(name string) func() {
	s.mu.Lock()
	l, ok := s.locks[name]
	if !ok {
		l = new(sync.Mutex)
		s.locks[name] = l
	}
	s.mu.Unlock()
	l.Lock()
	return l.Unlock
}

func repoKey(name string) []byte { return []byte(repoPrefix + name) }
func commitKey(name, id string) []byte { return []byte(commitPrefix + name + "/" + id) }
func branchKey(name, branch string) []byte { return []byte(branchPrefix + name + "/" + branch) }
func commitsOf(name string) []byte { return []byte(commitPrefix + name + "/") }
func branchesOf(name string) []byte { return []byte(branchPrefix + name + "/") }

func checkName(name string) error {
	if !ValidName(name) {
		return errors.Wrapf(ErrInvalidName, "'%s'", name)
	}
	return nil
}

func requireRepo(txn *badger.Txn, name string) error {
	_, err := txn.Get(repoKey(name))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return errors.Wrapf(ErrRepositoryNotFound, "'%s'", name)
	}
	return err
}

// Create adds an empty repository.
func (s *Storage) Create(name string) error {
	created, err := s.Ensure(name)
	if err != nil {
		return err
	}
	if !created {
		return errors.Wrapf(ErrRepositoryExists, "'%s'", name)
	}
	return nil
}

// Ensure creates the repository unless it already exists, and reports whether it did.
func (s *Storage) Ensure(name string) (bool, error) {
	if err := checkName(name); err != nil {
		return false, err
	}
	defer s.lock(name)()

	created := false
	err := s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(repoKey(name))
		if err == nil {
			return nil
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		rec, err := blob.Marshal(&repoRecord{Created: time.Now().UnixMilli()})
		if err != nil {
			return err
		}
		created = true
		return txn.Set(repoKey(name), rec)
	})
	return created, errors.Wrap(err, "create repository")
}

// Exists reports whether the repository is present.
func (s *Storage) Exists(name string) (bool, error) {
	err := s.db.View(func(txn *badger.Txn) error {
		return requireRepo(txn, name)
	})
	if errors.Is(err, ErrRepositoryNotFound) {
		return false, nil
	}
	return err == nil, err
}

// keys returns the key suffixes below prefix, along with the values when withValues is set.
func keys(txn *badger.Txn, prefix []byte, withValues bool) ([]string, [][]byte, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = withValues
	it := txn.NewIterator(opts)
	defer it.Close()

	var names []string
	var values [][]byte
	for it.Rewind(); it.Valid(); it.Next() {
		item := it.Item()
		names = append(names, string(item.Key()[len(prefix):]))
		if withValues {
			v, err := item.ValueCopy(nil)
			if err != nil {
				return nil, nil, err
			}
			values = append(values, v)
		}
	}
	return names, values, nil
}

// List describes every repository, in name order.
func (s *Storage) List() ([]RepoInfo, error) {
	var infos []RepoInfo
	err := s.db.View(func(txn *badger.Txn) error {
		names, values, err := keys(txn, []byte(repoPrefix), true)
		if err != nil {
			return err
		}
		for i, name := range names {
			var rec repoRecord
			if err = blob.Unmarshal(values[i], &rec); err != nil {
				return errors.Wrapf(err, "repository '%s'", name)
			}
			commits, _, err := keys(txn, commitsOf(name), false)
			if err != nil {
				return err
			}
			branches, _, err := keys(txn, branchesOf(name), false)
			if err != nil {
				return err
			}
			infos = append(infos, RepoInfo{
				Name:     name,
				Created:  time.UnixMilli(rec.Created).UTC(),
				Commits:  len(commits),
				Branches: len(branches),
			})
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "list repositories")
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// Index returns the commit ids and branch pointers of a repository.
func (s *Storage) Index(name string) (*Index, error) {
	idx := &Index{Commits: []string{}, Branches: map[string]string{}}
	err := s.db.View(func(txn *badger.Txn) error {
		if err := requireRepo(txn, name); err != nil {
			return err
		}
		ids, _, err := keys(txn, commitsOf(name), false)
		if err != nil {
			return err
		}
		idx.Commits = append(idx.Commits, ids...)
		branches, heads, err := keys(txn, branchesOf(name), true)
		if err != nil {
			return err
		}
		for i, b := range branches {
			idx.Branches[b] = string(heads[i])
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(idx.Commits)
	return idx, nil
}

// PutCommit decodes data, and stores it under the id recomputed from its content.
func (s *Storage) PutCommit(name string, data []byte) (string, error) {
	c, err := repo.DecodeCommitLimit(data, s.maxCommit)
	if errors.Is(err, blob.ErrTooLarge) {
		return "", errors.Wrap(ErrTooLarge, err.Error())
	}
	if err != nil {
		return "", errors.Wrap(ErrInvalidCommit, err.Error())
	}
	id := c.ID()
	canonical, err := c.Encode()
	if err != nil {
		return "", err
	}

	defer s.lock(name)()
	err = s.db.Update(func(txn *badger.Txn) error {
		if err := requireRepo(txn, name); err != nil {
			return err
		}
		return txn.Set(commitKey(name, id), canonical)
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// GetCommit returns the encoded commit id.
func (s *Storage) GetCommit(name, id string) ([]byte, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		if err := requireRepo(txn, name); err != nil {
			return err
		}
		item, err := txn.Get(commitKey(name, id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return errors.Wrapf(ErrCommitNotFound, "'%s'", repo.ShortID(id))
		}
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	return data, err
}

func storedHead(txn *badger.Txn, name, branch, head string) error {
	if !repo.ValidID(head) {
		return errors.Wrapf(ErrInvalidCommit, "branch '%s' head '%s'", branch, head)
	}
	_, err := txn.Get(commitKey(name, head))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return errors.Wrapf(ErrCommitNotFound, "branch '%s' head '%s'", branch, repo.ShortID(head))
	}
	return err
}

// Offer takes over the offered branch pointers, last write wins, and returns the offered
// commits the repository does not have yet. A branch head must be NoCommit or a stored commit,
// otherwise the whole offer fails with ErrCommitNotFound and nothing changes.
func (s *Storage) Offer(name string, offer Offer) ([]string, error) {
	defer s.lock(name)()

	missing := []string{}
	err := s.db.Update(func(txn *badger.Txn) error {
		if err := requireRepo(txn, name); err != nil {
			return err
		}
		for _, id := range offer.Commits {
			if !repo.ValidID(id) {
				return errors.Wrapf(ErrInvalidCommit, "'%s'", id)
			}
			_, err := txn.Get(commitKey(name, id))
			if errors.Is(err, badger.ErrKeyNotFound) {
				missing = append(missing, id)
				continue
			}
			if err != nil {
				return err
			}
		}
		for branch, head := range offer.Branches {
			if branch == "" {
				return errors.Wrapf(ErrInvalidName, "branch '%s'", branch)
			}
			if head != repo.NoCommit {
				if err := storedHead(txn, name, branch, head); err != nil {
					return err
				}
			}
			if err := txn.Set(branchKey(name, branch), []byte(head)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(missing)
	return missing, nil
}
