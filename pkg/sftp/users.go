package sftp

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/garrison-sh/garrison/pkg/atomicfile"
)

const (
	// uidFloor and gidFloor are the reserved identity floors; allocated
	// ids are strictly greater
	uidFloor = 1000
	gidFloor = 100
)

// Credential is one tenant record in the gateway's users.conf.
// Line format: name:secret:uid:gid:::home (empty shell and chroot fields).
type Credential struct {
	Name   string
	Secret string
	UID    int
	GID    int
	Home   string
}

// Line renders the credential in the on-disk record format
func (c Credential) Line() string {
	return fmt.Sprintf("%s:%s:%d:%d:::%s", c.Name, c.Secret, c.UID, c.GID, c.Home)
}

// parseCredential parses one users.conf line. Returns false for lines
// that do not carry at least name:secret:uid:gid with numeric ids.
func parseCredential(line string) (Credential, bool) {
	parts := strings.Split(line, ":")
	if len(parts) < 4 {
		return Credential{}, false
	}
	uid, err := strconv.Atoi(parts[2])
	if err != nil {
		return Credential{}, false
	}
	gid, err := strconv.Atoi(parts[3])
	if err != nil {
		return Credential{}, false
	}
	c := Credential{Name: parts[0], Secret: parts[1], UID: uid, GID: gid}
	if len(parts) >= 7 {
		c.Home = parts[6]
	}
	return c, true
}

// credentialStore maintains the line-oriented credential table
type credentialStore struct {
	path   string
	logger zerolog.Logger
}

// Exists reports whether a record for subscriptionID is present
func (s *credentialStore) Exists(subscriptionID string) bool {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return false
	}
	prefix := subscriptionID + ":"
	for _, line := range strings.Split(string(data), "\n") {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

// NextIdentity returns the next unused (uid, gid) pair by scanning every
// parsable record for the maximum seen. An unreadable table degrades to
// the floor values rather than blocking provisioning.
func (s *credentialStore) NextIdentity() (int, int) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Cannot read users.conf, using default ids")
		return uidFloor + 1, gidFloor + 1
	}

	maxUID := uidFloor
	maxGID := gidFloor
	for _, line := range strings.Split(string(data), "\n") {
		cred, ok := parseCredential(strings.TrimSpace(line))
		if !ok {
			continue
		}
		if cred.UID > maxUID {
			maxUID = cred.UID
		}
		if cred.GID > maxGID {
			maxGID = cred.GID
		}
	}
	return maxUID + 1, maxGID + 1
}

// Load returns every parsable record in table order
func (s *credentialStore) Load() ([]Credential, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrStoreRead, s.path, err)
	}
	var creds []Credential
	for _, line := range strings.Split(string(data), "\n") {
		if cred, ok := parseCredential(strings.TrimSpace(line)); ok {
			creds = append(creds, cred)
		}
	}
	return creds, nil
}

// Append rewrites the table with the new record added. Existing content,
// including lines the parser does not understand, is carried through
// byte for byte.
func (s *credentialStore) Append(cred Credential) error {
	existing, err := os.ReadFile(s.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: %s: %v", ErrStoreRead, s.path, err)
	}

	var b strings.Builder
	b.Write(existing)
	if len(existing) > 0 && existing[len(existing)-1] != '\n' {
		b.WriteByte('\n')
	}
	b.WriteString(cred.Line())
	b.WriteByte('\n')

	if err := atomicfile.WriteFile(s.path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to append to users.conf: %w", err)
	}
	return nil
}

// Remove rewrites the table excluding records for subscriptionID
func (s *credentialStore) Remove(subscriptionID string) error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrStoreRead, s.path, err)
	}

	prefix := subscriptionID + ":"
	var b strings.Builder
	for _, line := range strings.SplitAfter(string(data), "\n") {
		if strings.HasPrefix(line, prefix) {
			continue
		}
		b.WriteString(line)
	}

	if err := atomicfile.WriteFile(s.path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to rewrite users.conf: %w", err)
	}
	return nil
}
