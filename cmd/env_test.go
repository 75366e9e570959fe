package cmd

import (
	"os"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envFlagSet() (*pflag.FlagSet, *paramFlags, *string) {
	pf := &paramFlags{}
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	pf.register(fs)
	level := fs.String("log", "warn", "")
	return fs, pf, level
}

func TestApplyEnv_FillsUnsetFlags(t *testing.T) {
	// GIVEN seed, workers and log level in the environment
	t.Setenv("STROKE_SIM_SEED", "99")
	t.Setenv("STROKE_SIM_WORKERS", "-1")
	t.Setenv("STROKE_SIM_LOG", "debug")
	fs, pf, level := envFlagSet()
	require.NoError(t, fs.Parse(nil))

	// WHEN applied
	require.NoError(t, applyEnv(fs))

	// THEN the flags take the environment values and count as given
	assert.Equal(t, int64(99), pf.seed)
	assert.Equal(t, -1, pf.workers)
	assert.Equal(t, "debug", *level)
	p, err := pf.build(fs)
	require.NoError(t, err)
	assert.Equal(t, int64(99), p.Run.Seed)
}

func TestApplyEnv_CommandLineWins(t *testing.T) {
	t.Setenv("STROKE_SIM_SEED", "99")
	fs, pf, _ := envFlagSet()
	require.NoError(t, fs.Parse([]string{"--seed", "5"}))
	require.NoError(t, applyEnv(fs))
	assert.Equal(t, int64(5), pf.seed)
}

func TestApplyEnv_BadValue(t *testing.T) {
	t.Setenv("STROKE_SIM_WORKERS", "many")
	fs, _, _ := envFlagSet()
	require.NoError(t, fs.Parse(nil))
	assert.ErrorContains(t, applyEnv(fs), "STROKE_SIM_WORKERS")
}

func TestLoadEnv(t *testing.T) {
	// GIVEN a .env file, an exported log level and no exported seed
	path := writeFile(t, ".env", "STROKE_SIM_SEED=123\nSTROKE_SIM_LOG=info\n")
	t.Setenv("STROKE_SIM_LOG", "error")
	t.Setenv("STROKE_SIM_SEED", "")
	require.NoError(t, os.Unsetenv("STROKE_SIM_SEED"))

	// WHEN loaded
	require.NoError(t, loadEnv(path))

	// THEN the file fills the gap and exported values win
	fs, pf, level := envFlagSet()
	require.NoError(t, fs.Parse(nil))
	require.NoError(t, applyEnv(fs))
	assert.Equal(t, "error", *level)
	assert.Equal(t, int64(123), pf.seed)

	// AND a missing file is ignored
	assert.NoError(t, loadEnv(path+".missing"))
	assert.NoError(t, loadEnv(""))
}
