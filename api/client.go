package api

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	rq "github.com/parnurzeal/gorequest"
	"github.com/pkg/errors"

	"github.com/tit-vcs/tit/repo"
)

// Client talks to a sync server.
type Client struct {
	base    string
	timeout time.Duration
}

// NewClient returns a client for the server at addr, e.g. "http://127.0.0.1:6969". A zero timeout
// means 30 seconds.
func NewClient(addr string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{base: strings.TrimRight(addr, "/"), timeout: timeout}
}

func (c *Client) url(parts ...string) string {
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = url.PathEscape(p)
	}
	return c.base + "/v1/" + strings.Join(escaped, "/")
}

// check turns a gorequest result into an error. Server errors win over decoding errors, as an
// error body never decodes into the expected struct.
func check(resp rq.Response, body []byte, errs []error) error {
	if resp != nil && (resp.StatusCode < 200 || resp.StatusCode > 299) {
		var e ErrorResponse
		_ = json.Unmarshal(body, &e)
		serr := &StatusError{Code: resp.StatusCode, Message: e.Error}
		switch {
		case resp.StatusCode == http.StatusNotFound && strings.Contains(e.Error, ErrCommitNotFound.Error()):
			return errors.Wrap(ErrCommitNotFound, serr.Error())
		case resp.StatusCode == http.StatusNotFound:
			return errors.Wrap(ErrRepositoryNotFound, serr.Error())
		case resp.StatusCode == http.StatusConflict:
			return errors.Wrap(ErrRepositoryExists, serr.Error())
		}
		return serr
	}
	if len(errs) > 0 {
		return errors.Wrap(errs[0], "request failed")
	}
	return nil
}

// Health asks the server for its status.
func (c *Client) Health() (*HealthResponse, error) {
	var h HealthResponse
	resp, body, errs := rq.New().Get(c.base + "/health").Timeout(c.timeout).EndStruct(&h)
	if err := check(resp, body, errs); err != nil {
		return nil, err
	}
	return &h, nil
}

// List returns the repositories on the server.
func (c *Client) List() ([]RepoInfo, error) {
	var l ListResponse
	resp, body, errs := rq.New().Get(c.url("repos")).Timeout(c.timeout).EndStruct(&l)
	if err := check(resp, body, errs); err != nil {
		return nil, err
	}
	return l.Repos, nil
}

// Create adds a repository, failing with ErrRepositoryExists when it is already there.
func (c *Client) Create(name string) error {
	resp, body, errs := rq.New().Post(c.url("repos", name)).Timeout(c.timeout).EndBytes()
	return check(resp, body, errs)
}

// Ensure creates the repository if needed and reports whether it did.
func (c *Client) Ensure(name string) (bool, error) {
	resp, body, errs := rq.New().Put(c.url("repos", name)).Timeout(c.timeout).EndBytes()
	if err := check(resp, body, errs); err != nil {
		return false, err
	}
	return resp.StatusCode == http.StatusCreated, nil
}

// Index returns the commit ids and branch pointers of a repository.
func (c *Client) Index(name string) (*Index, error) {
	var idx Index
	resp, body, errs := rq.New().Get(c.url("repos", name, "index")).Timeout(c.timeout).EndStruct(&idx)
	if err := check(resp, body, errs); err != nil {
		return nil, err
	}
	if idx.Branches == nil {
		idx.Branches = map[string]string{}
	}
	return &idx, nil
}

// Download fetches a commit and checks that its content matches id.
func (c *Client) Download(name, id string) (*repo.Commit, error) {
	var b CommitBlob
	resp, body, errs := rq.New().Get(c.url("repos", name, "commits", id)).Timeout(c.timeout).EndStruct(&b)
	if err := check(resp, body, errs); err != nil {
		return nil, err
	}
	commit, err := repo.DecodeCommit(b.Data)
	if err != nil {
		return nil, err
	}
	if commit.ID() != id {
		return nil, errors.Wrapf(ErrCommitMismatch, "%s", repo.ShortID(id))
	}
	return commit, nil
}

// Upload sends a commit and returns the id the server stored it under.
func (c *Client) Upload(name string, commit *repo.Commit) (string, error) {
	data, err := commit.Encode()
	if err != nil {
		return "", err
	}
	var reply CommitBlob
	resp, body, errs := rq.New().Post(c.url("repos", name, "commits")).Timeout(c.timeout).
		Send(CommitBlob{ID: commit.ID(), Data: data}).
		EndStruct(&reply)
	if err = check(resp, body, errs); err != nil {
		return "", err
	}
	if reply.ID != commit.ID() {
		return "", errors.Wrapf(ErrCommitMismatch, "server stored %s as %s", repo.ShortID(commit.ID()), repo.ShortID(reply.ID))
	}
	return reply.ID, nil
}

// Offer tells the server which commits and branches the client has, and returns the commits the
// server is missing.
func (c *Client) Offer(name string, offer Offer) ([]string, error) {
	var reply OfferResponse
	resp, body, errs := rq.New().Post(c.url("repos", name, "offer")).Timeout(c.timeout).
		Send(offer).
		EndStruct(&reply)
	if err := check(resp, body, errs); err != nil {
		return nil, err
	}
	return reply.Missing, nil
}
