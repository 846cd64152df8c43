package cmd

import (
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/tit-vcs/tit/api"
	"github.com/tit-vcs/tit/repo"
)

// openRepo finds the repository containing the working directory.
func openRepo() (*repo.Repository, error) {
	return repo.Find(repoDir)
}

func scanOptions() repo.ScanOptions {
	return repo.ScanOptions{ParseSources: viper.GetBool("scan.sources")}
}

// serverClient returns a client for the current server of the repository.
func serverClient(r *repo.Repository) (*api.Client, string, error) {
	state, err := r.State()
	if err != nil {
		return nil, "", err
	}
	name, addr, err := state.Server()
	if err != nil {
		return nil, "", err
	}
	return api.NewClient(addr, viper.GetDuration("sync.timeout")), name, nil
}

// expandPath resolves a leading ~ in a configured path.
func expandPath(p string) (string, error) {
	out, err := homedir.Expand(p)
	if err != nil {
		return "", errors.Wrapf(err, "expand '%s'", p)
	}
	return out, nil
}

// Formats a commit timestamp for display
func commitDate(c *repo.Commit) string {
	return c.Time().UTC().Format(time.UnixDate)
}

// Creates the user visible commit text for a commit.
func createCommitText(id string, c *repo.Commit) string {
	s := numFormat.Sprintf("  commit %s\n", id)
	s += numFormat.Sprintf("  Date: %s\n", commitDate(c))
	s += numFormat.Sprintf("  Changes: %d\n", len(c.Changes))
	if c.Message != "" {
		s += numFormat.Sprintf("\n      %s\n", c.Message)
	}
	return s
}
