package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withBuild(t *testing.T, version, slug string) {
	t.Helper()
	originalVersion, originalSlug := rootCmd.Version, githubRepoSlug
	rootCmd.Version, githubRepoSlug = version, slug
	t.Cleanup(func() {
		rootCmd.Version, githubRepoSlug = originalVersion, originalSlug
	})
}

func TestSelfUpdate_Refusals(t *testing.T) {
	tests := []struct {
		name    string
		version string
		slug    string
		wantErr string
	}{
		{"dev build", "dev", "acme/orbit", "cannot self-update a development version"},
		{"unversioned build", "", "acme/orbit", "cannot self-update a development version"},
		{"dev build without repository", "dev", "", "cannot self-update a development version"},
		{"release without repository", "1.4.0", "", "self-update is not configured for this build"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withBuild(t, tt.version, tt.slug)
			err := runSelfUpdate(nil, nil)
			require.Error(t, err)
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}

func TestSelfUpdate_RepositoryUnsetByDefault(t *testing.T) {
	// Release builds inject the slug with -X orbit/cmd.githubRepoSlug=owner/repo.
	assert.Empty(t, githubRepoSlug)
}

func TestSelfUpdateCommand(t *testing.T) {
	cmd := newSelfUpdateCmd()
	assert.Equal(t, "self-update", cmd.Use)
	require.NotNil(t, cmd.RunE)

	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs([]string{"--help"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "Checks for the latest release of orbit")

	cmd = newSelfUpdateCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"unexpected"})
	assert.Error(t, cmd.Execute(), "self-update takes no arguments")
}
