package sftp

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCredentialStore(t *testing.T) *credentialStore {
	t.Helper()
	return &credentialStore{path: filepath.Join(t.TempDir(), UsersFileName)}
}

func TestParseCredential(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Credential
		ok   bool
	}{
		{
			name: "full record",
			line: "sub-42:s3cret:1001:101:::sub-42",
			want: Credential{Name: "sub-42", Secret: "s3cret", UID: 1001, GID: 101, Home: "sub-42"},
			ok:   true,
		},
		{
			name: "minimal fields",
			line: "sub-1:pw:1002:102",
			want: Credential{Name: "sub-1", Secret: "pw", UID: 1002, GID: 102},
			ok:   true,
		},
		{
			name: "non-numeric uid",
			line: "sub-1:pw:abc:102",
			ok:   false,
		},
		{
			name: "too few fields",
			line: "sub-1:pw",
			ok:   false,
		},
		{
			name: "empty line",
			line: "",
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseCredential(tt.line)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestCredentialLine(t *testing.T) {
	c := Credential{Name: "sub-42", Secret: "pw", UID: 1001, GID: 101, Home: "sub-42"}
	assert.Equal(t, "sub-42:pw:1001:101:::sub-42", c.Line())
}

func TestCredentialStore_ExistsMissingFile(t *testing.T) {
	store := newTestCredentialStore(t)
	assert.False(t, store.Exists("sub-1"))
}

func TestCredentialStore_AppendAndExists(t *testing.T) {
	store := newTestCredentialStore(t)

	cred := Credential{Name: "sub-1", Secret: "pw", UID: 1001, GID: 101, Home: "sub-1"}
	require.NoError(t, store.Append(cred))

	assert.True(t, store.Exists("sub-1"))
	assert.False(t, store.Exists("sub-2"))

	// A record whose name merely prefixes another must not match
	assert.False(t, store.Exists("sub"))
}

func TestCredentialStore_AppendKeepsUnknownLines(t *testing.T) {
	store := newTestCredentialStore(t)
	require.NoError(t, os.WriteFile(store.path, []byte("# managed by garrison\nnot-a-record\n"), 0644))

	cred := Credential{Name: "sub-1", Secret: "pw", UID: 1001, GID: 101, Home: "sub-1"}
	require.NoError(t, store.Append(cred))

	data, err := os.ReadFile(store.path)
	require.NoError(t, err)
	assert.Equal(t, "# managed by garrison\nnot-a-record\nsub-1:pw:1001:101:::sub-1\n", string(data))
}

func TestCredentialStore_Remove(t *testing.T) {
	store := newTestCredentialStore(t)
	require.NoError(t, store.Append(Credential{Name: "sub-1", Secret: "a", UID: 1001, GID: 101, Home: "sub-1"}))
	require.NoError(t, store.Append(Credential{Name: "sub-2", Secret: "b", UID: 1002, GID: 102, Home: "sub-2"}))

	require.NoError(t, store.Remove("sub-1"))

	data, err := os.ReadFile(store.path)
	require.NoError(t, err)
	assert.Equal(t, "sub-2:b:1002:102:::sub-2\n", string(data))
	assert.False(t, store.Exists("sub-1"))
}

func TestCredentialStore_NextIdentity(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantUID int
		wantGID int
	}{
		{
			name:    "empty table",
			content: "",
			wantUID: 1001,
			wantGID: 101,
		},
		{
			name:    "single record",
			content: "sub-1:pw:1001:101:::sub-1\n",
			wantUID: 1002,
			wantGID: 102,
		},
		{
			name:    "gap after removal reuses freed id",
			content: "sub-1:pw:1001:101:::sub-1\nsub-3:pw:1003:103:::sub-3\n",
			wantUID: 1004,
			wantGID: 104,
		},
		{
			name:    "malformed lines skipped",
			content: "garbage\nsub-1:pw:1005:105:::sub-1\nalso:bad:uid:gid\n",
			wantUID: 1006,
			wantGID: 106,
		},
		{
			name:    "ids below floor ignored",
			content: "legacy:pw:500:50:::legacy\n",
			wantUID: 1001,
			wantGID: 101,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestCredentialStore(t)
			require.NoError(t, os.WriteFile(store.path, []byte(tt.content), 0644))

			uid, gid := store.NextIdentity()
			assert.Equal(t, tt.wantUID, uid)
			assert.Equal(t, tt.wantGID, gid)
		})
	}
}

func TestCredentialStore_NextIdentityUnreadableTable(t *testing.T) {
	// Missing file degrades to the defaults instead of failing
	store := newTestCredentialStore(t)

	uid, gid := store.NextIdentity()
	assert.Equal(t, 1001, uid)
	assert.Equal(t, 101, gid)
}

func TestCredentialStore_Load(t *testing.T) {
	store := newTestCredentialStore(t)
	require.NoError(t, os.WriteFile(store.path,
		[]byte("sub-1:a:1001:101:::sub-1\nnoise\nsub-2:b:1002:102:::sub-2\n"), 0644))

	creds, err := store.Load()
	require.NoError(t, err)
	require.Len(t, creds, 2)
	assert.Equal(t, "sub-1", creds[0].Name)
	assert.Equal(t, "sub-2", creds[1].Name)
}
