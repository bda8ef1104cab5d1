package flagx

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestFilterArgs(t *testing.T) {
	config := []string{"-c", "-config"}

	tests := []struct {
		name    string
		args    []string
		allowed []string
		want    []string
	}{
		{
			name:    "separate value",
			args:    []string{"-u", "http://127.0.0.1:54321", "-c", "profilesync.json"},
			allowed: config,
			want:    []string{"-c", "profilesync.json"},
		},
		{
			name:    "equals form",
			args:    []string{"-config=alt.json", "-b", "postgres"},
			allowed: config,
			want:    []string{"-config=alt.json"},
		},
		{
			name:    "order preserved across forms",
			args:    []string{"-config=first.json", "-t", "5s", "-c", "second.json"},
			allowed: config,
			want:    []string{"-config=first.json", "-c", "second.json"},
		},
		{
			name:    "nothing allowed present",
			args:    []string{"-k", "anon", "-token=s3cret", "positional"},
			allowed: config,
			want:    []string{},
		},
		{
			name:    "trailing flag without value",
			args:    []string{"-b", "rest", "-c"},
			allowed: config,
			want:    []string{"-c"},
		},
		{
			name:    "next flag is not consumed as value",
			args:    []string{"-c", "-v", "debug"},
			allowed: config,
			want:    []string{"-c"},
		},
		{
			name:    "several stages share one argument list",
			args:    []string{"-env", ".env.local", "-c", "p.json", "-dsn", "postgres://db"},
			allowed: []string{"-env", "-dsn"},
			want:    []string{"-env", ".env.local", "-dsn", "postgres://db"},
		},
		{
			name:    "empty input",
			args:    nil,
			allowed: config,
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterArgs(tt.args, tt.allowed)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("FilterArgs mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLookupString(t *testing.T) {
	args := []string{"-u", "http://x", "-c", "one.json", "-config=two.json", "-env", ".env.test"}

	require.Equal(t, "two.json", LookupString(args, "c", "config"), "last occurrence wins")
	require.Equal(t, ".env.test", LookupString(args, "env"))
	require.Equal(t, "", LookupString(args, "missing"))
	require.Equal(t, "", LookupString(nil, "c"))
}

func TestConfigFileAndEnvFile(t *testing.T) {
	require.Equal(t, "p.json", ConfigFile([]string{"-b", "rest", "-c", "p.json"}))
	require.Equal(t, "p.json", ConfigFile([]string{"-config", "p.json"}))
	require.Equal(t, "", ConfigFile([]string{"-b", "rest"}))

	require.Equal(t, "local.env", EnvFile([]string{"-env=local.env", "-c", "p.json"}))
	require.Equal(t, "", EnvFile([]string{"-c", "p.json"}))
}
