package paths

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultDirsLinux(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("linux-only test")
	}

	tests := []struct {
		name    string
		xdgVar  string
		xdgVal  string
		resolve func() (string, error)
		want    func(home string) string
	}{
		{
			name:    "config dir from XDG_CONFIG_HOME",
			xdgVar:  "XDG_CONFIG_HOME",
			xdgVal:  "/tmp/xdg-config",
			resolve: DefaultConfigDir,
			want:    func(string) string { return "/tmp/xdg-config/classreg" },
		},
		{
			name:    "config dir falls back to ~/.config",
			xdgVar:  "XDG_CONFIG_HOME",
			resolve: DefaultConfigDir,
			want:    func(home string) string { return filepath.Join(home, ".config", "classreg") },
		},
		{
			name:    "data dir from XDG_DATA_HOME",
			xdgVar:  "XDG_DATA_HOME",
			xdgVal:  "/tmp/xdg-data",
			resolve: DefaultDataDir,
			want:    func(string) string { return "/tmp/xdg-data/classreg" },
		},
		{
			name:    "data dir falls back to ~/.local/share",
			xdgVar:  "XDG_DATA_HOME",
			resolve: DefaultDataDir,
			want:    func(home string) string { return filepath.Join(home, ".local", "share", "classreg") },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.xdgVar, tt.xdgVal)
			home, err := os.UserHomeDir()
			require.NoError(t, err)

			got, err := tt.resolve()
			require.NoError(t, err)
			assert.Equal(t, tt.want(home), got)
		})
	}
}

func TestDefaultDirsHomeError(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("linux-only test")
	}
	t.Setenv("XDG_CONFIG_HOME", "")
	orig := platformDir.homeDir
	platformDir.homeDir = func() (string, error) { return "", errors.New("no home") }
	defer func() { platformDir.homeDir = orig }()

	_, err := DefaultConfigDir()
	assert.Error(t, err)
}

func TestResolveConfigDir(t *testing.T) {
	tests := []struct {
		name    string
		flag    string
		envVal  string
		wantSub string
	}{
		{name: "flag wins over env", flag: "/explicit/config", envVal: "/env/config", wantSub: "/explicit/config"},
		{name: "env wins when flag empty", envVal: "/env/config", wantSub: "/env/config"},
		{name: "platform default when both empty", wantSub: "classreg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvConfigDir, tt.envVal)
			got, err := ResolveConfigDir(tt.flag)
			require.NoError(t, err)
			assert.Contains(t, got, tt.wantSub)
		})
	}
}

func TestResolveDataDir(t *testing.T) {
	cwd, err := os.Getwd()
	require.NoError(t, err)

	tests := []struct {
		name        string
		flag        string
		configValue string
		envVal      string
		want        string
	}{
		{name: "flag wins over all", flag: "/flag/data", configValue: "/config/data", envVal: "/env/data", want: "/flag/data"},
		{name: "config wins over env", configValue: "/config/data", envVal: "/env/data", want: "/config/data"},
		{name: "env when flag and config empty", envVal: "/env/data", want: "/env/data"},
		{name: "CWD default when all empty", want: filepath.Join(cwd, DefaultDataDirName)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvDataDir, tt.envVal)
			got, err := ResolveDataDir(tt.flag, tt.configValue)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRelativeOverridesBecomeAbsolute(t *testing.T) {
	t.Setenv(EnvConfigDir, "")
	t.Setenv(EnvDataDir, "")

	got, err := ResolveConfigDir("relative/config")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got), "expected absolute path, got %s", got)

	got, err = ResolveDataDir("", "relative/data")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got), "expected absolute path, got %s", got)
}

func TestConfigFile(t *testing.T) {
	assert.Equal(t, filepath.Join("/etc/classreg", "config.yaml"), ConfigFile("/etc/classreg"))
}
