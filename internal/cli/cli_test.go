package cli

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/graft/internal/app"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name     string
		args     []string
		want     *app.Config
		exit     bool
		exitCode int
	}{
		{
			name: "positional path with defaults",
			args: []string{"docs"},
			want: &app.Config{DocumentPath: "docs", ScanScope: "classpath", LogFormat: "json", LogLevel: "info", Workers: 4},
		},
		{
			name: "every flag",
			args: []string{"-d", "main.hcl", "-repository", "repo", "-scan-scope", "Dependencies", "-log-format", "TEXT", "-log-level", "debug",
				"-workers", "2", "-progress-socket", "http://localhost:3000", "-watch", "-healthcheck-port", "8080"},
			want: &app.Config{
				DocumentPath:    "main.hcl",
				RepositoryPath:  "repo",
				ScanScope:       "dependencies",
				LogFormat:       "text",
				LogLevel:        "debug",
				Workers:         2,
				ProgressSocket:  "http://localhost:3000",
				Watch:           true,
				HealthcheckPort: 8080,
			},
		},
		{name: "doc flag wins over positional", args: []string{"-doc", "a.hcl", "b.hcl"}, want: &app.Config{DocumentPath: "a.hcl", ScanScope: "classpath", LogFormat: "json", LogLevel: "info", Workers: 4}},
		{name: "help", args: []string{"-h"}, exit: true},
		{name: "no path", args: nil, exit: true},
		{name: "unknown flag", args: []string{"-nope"}, exitCode: 2},
		{name: "bad log format", args: []string{"-log-format", "xml", "x.hcl"}, exitCode: 2},
		{name: "bad log level", args: []string{"-log-level", "loud", "x.hcl"}, exitCode: 2},
		{name: "bad scope", args: []string{"-scan-scope", "world", "x.hcl"}, exitCode: 2},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out := &bytes.Buffer{}
			cfg, exit, err := Parse(tc.args, out)
			if tc.exitCode != 0 {
				var exitErr *ExitError
				require.True(t, errors.As(err, &exitErr), "expected ExitError, got %v", err)
				assert.Equal(t, tc.exitCode, exitErr.Code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.exit, exit)
			if tc.exit {
				assert.Nil(t, cfg)
				assert.Contains(t, out.String(), "Usage:")
				return
			}
			assert.Equal(t, tc.want, cfg)
		})
	}
}
