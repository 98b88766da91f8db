package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/jwtauth/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenCommandIssuesVerifiableToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("auth:\n  jwt_secret: s3cret\n"), 0o600))
	user := uuid.NewString()

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"token", "--config", path, "--user", user})
	require.NoError(t, cmd.Execute())

	var token string
	for _, line := range strings.Split(out.String(), "\n") {
		if rest, ok := strings.CutPrefix(line, "token: "); ok {
			token = rest
		}
	}
	require.NotEmpty(t, token, out.String())

	parsed, err := jwtauth.VerifyToken(jwtauth.New("HS256", []byte("s3cret"), nil), token)
	require.NoError(t, err)
	assert.Equal(t, user, parsed.Subject())
}

func TestTokenCommandRejectsNonUUIDUser(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"token", "--config", filepath.Join(t.TempDir(), "none.yaml"), "--user", "alice"})
	assert.Error(t, cmd.Execute())
}
