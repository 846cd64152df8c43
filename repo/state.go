package repo

import (
	"sort"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

const (
	// NoCommit is the head of a branch that has no commits yet.
	NoCommit = "none"

	// DefaultServer is the name init gives the server address it is handed.
	DefaultServer = "default"
)

type Project struct {
	Name string `toml:"name"`
}

type Current struct {
	Branch string `toml:"branch"`
	Server string `toml:"server"`
}

// State is the mutable part of a repository: branch pointers, known servers and what is
// currently selected. It lives in .tit/state.toml.
type State struct {
	Project  Project           `toml:"project"`
	Current  Current           `toml:"current"`
	Branches map[string]string `toml:"branches"`
	Servers  map[string]string `toml:"servers"`
}

// NewState returns the state of a fresh repository: one branch without commits, and one server
// registered as "default".
func NewState(project, branch, server string) *State {
	return &State{
		Project:  Project{Name: project},
		Current:  Current{Branch: branch, Server: DefaultServer},
		Branches: map[string]string{branch: NoCommit},
		Servers:  map[string]string{DefaultServer: server},
	}
}

// ParseState reads a state file.
func ParseState(data []byte) (*State, error) {
	var s State
	if err := toml.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrap(err, "parse state")
	}
	if s.Branches == nil {
		s.Branches = map[string]string{}
	}
	if s.Servers == nil {
		s.Servers = map[string]string{}
	}
	if _, ok := s.Branches[s.Current.Branch]; !ok {
		return nil, errors.Wrapf(ErrBranchNotFound, "parse state: current branch '%s'", s.Current.Branch)
	}
	return &s, nil
}

// Marshal renders the state as TOML. Map keys come out sorted.
func (s *State) Marshal() ([]byte, error) {
	b, err := toml.Marshal(s)
	if err != nil {
		return nil, errors.Wrap(err, "write state")
	}
	return b, nil
}

// Head returns the commit id the current branch points at, NoCommit for an empty branch.
func (s *State) Head() string {
	return s.Branches[s.Current.Branch]
}

// Advance moves the current branch to id.
func (s *State) Advance(id string) {
	s.Branches[s.Current.Branch] = id
}

// CreateBranch starts a branch at the current head and switches to it.
func (s *State) CreateBranch(name string) error {
	if name == "" {
		return ErrEmptyName
	}
	if _, ok := s.Branches[name]; ok {
		return errors.Wrapf(ErrBranchExists, "'%s'", name)
	}
	s.Branches[name] = s.Head()
	s.Current.Branch = name
	return nil
}

// SwitchBranch makes name the current branch.
func (s *State) SwitchBranch(name string) error {
	if _, ok := s.Branches[name]; !ok {
		return errors.Wrapf(ErrBranchNotFound, "'%s'", name)
	}
	s.Current.Branch = name
	return nil
}

// RemoveBranch deletes a branch pointer. The current branch cannot be removed.
func (s *State) RemoveBranch(name string) error {
	if _, ok := s.Branches[name]; !ok {
		return errors.Wrapf(ErrBranchNotFound, "'%s'", name)
	}
	if name == s.Current.Branch {
		return errors.Wrapf(ErrCurrentBranch, "'%s'", name)
	}
	delete(s.Branches, name)
	return nil
}

// SetBranch points name at id, creating the branch if needed. Sync uses it to take over remote
// branch pointers, last write wins.
func (s *State) SetBranch(name, id string) {
	s.Branches[name] = id
}

// AddServer registers a server address under name.
func (s *State) AddServer(name, addr string) error {
	if name == "" || addr == "" {
		return ErrEmptyName
	}
	if _, ok := s.Servers[name]; ok {
		return errors.Wrapf(ErrServerExists, "'%s'", name)
	}
	s.Servers[name] = addr
	return nil
}

// SwitchServer makes name the current server.
func (s *State) SwitchServer(name string) error {
	if _, ok := s.Servers[name]; !ok {
		return errors.Wrapf(ErrServerNotFound, "'%s'", name)
	}
	s.Current.Server = name
	return nil
}

// RemoveServer forgets a server. The current server cannot be removed.
func (s *State) RemoveServer(name string) error {
	if _, ok := s.Servers[name]; !ok {
		return errors.Wrapf(ErrServerNotFound, "'%s'", name)
	}
	if name == s.Current.Server {
		return errors.Wrapf(ErrCurrentServer, "'%s'", name)
	}
	delete(s.Servers, name)
	return nil
}

// Server returns the name and address of the current server.
func (s *State) Server() (name, addr string, err error) {
	addr, ok := s.Servers[s.Current.Server]
	if !ok {
		return "", "", errors.Wrapf(ErrServerNotFound, "'%s'", s.Current.Server)
	}
	return s.Current.Server, addr, nil
}

// BranchNames returns the branch names in order.
func (s *State) BranchNames() []string {
	return sortedKeys(s.Branches)
}

// ServerNames returns the server names in order.
func (s *State) ServerNames() []string {
	return sortedKeys(s.Servers)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
