package repo

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/crypto/sha3"

	"github.com/tit-vcs/tit/internal/blob"
	"github.com/tit-vcs/tit/tree"
)

// IDLength is the length of a hex encoded commit id.
const IDLength = 64

// Commit is an immutable, content addressed changeset. Its id is the SHA3-256 of its canonical
// encoding, so identical fields always give identical ids.
type Commit struct {
	_struct       bool          `codec:",toarray"`
	Message       string        `json:"message"`
	Changes       []tree.Change `json:"changes"`
	Timestamp     uint64        `json:"timestamp"`
	PredecessorID *string       `json:"predecessor,omitempty"`
}

// NewCommit wraps changes into a commit. Timestamp is in milliseconds since the epoch and an
// empty predecessor means the commit starts a history.
func NewCommit(message string, changes []tree.Change, timestamp uint64, predecessor string) *Commit {
	c := &Commit{Message: message, Changes: changes, Timestamp: timestamp}
	if predecessor != "" {
		c.PredecessorID = &predecessor
	}
	return c
}

// Predecessor returns the id of the previous commit, if there is one.
func (c *Commit) Predecessor() (string, bool) {
	if c.PredecessorID == nil {
		return "", false
	}
	return *c.PredecessorID, true
}

// ID derives the commit id from the current field values.
func (c *Commit) ID() string {
	b, err := blob.Marshal(c)
	if err != nil {
		// Every field type is encodable, so this is a programming error
		panic(errors.Wrap(err, "encode commit"))
	}
	sum := sha3.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Time returns the commit timestamp as a time.Time.
func (c *Commit) Time() time.Time {
	return time.UnixMilli(int64(c.Timestamp))
}

// Encode returns the compressed form stored in commit files and sent to servers.
func (c *Commit) Encode() ([]byte, error) {
	return blob.Encode(c)
}

// DecodeCommit reverses Commit.Encode.
func DecodeCommit(data []byte) (*Commit, error) {
	return DecodeCommitLimit(data, blob.MaxSize)
}

// DecodeCommitLimit is DecodeCommit for untrusted input: a commit that inflates to more than limit
// bytes fails with blob.ErrTooLarge.
func DecodeCommitLimit(data []byte, limit int64) (*Commit, error) {
	var c Commit
	if err := blob.DecodeLimit(data, &c, limit); err != nil {
		return nil, errors.Wrap(err, "commit")
	}
	return &c, nil
}

func (c *Commit) String() string {
	return fmt.Sprintf("[%s] %s (%d) (%d changes)", ShortID(c.ID()), c.Message, c.Timestamp, len(c.Changes))
}

// EpochMillis converts t into a commit timestamp.
func EpochMillis(t time.Time) uint64 {
	return uint64(t.UnixMilli())
}

// ShortID abbreviates a commit id for display.
func ShortID(id string) string {
	if len(id) > 7 {
		return id[:7]
	}
	return id
}

// ValidID reports whether id looks like a full commit id.
func ValidID(id string) bool {
	if len(id) != IDLength {
		return false
	}
	for _, r := range id {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}
	return true
}
