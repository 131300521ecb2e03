package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/compound/pkg/compound"
)

// resetFlags restores every global flag between command runs.
func resetFlags(t *testing.T) {
	t.Helper()
	flagConfigDir, flagDataDir, flagBackend, flagMetricsFile = "", "", "", ""
	flagJSON, flagVerbose = false, false
	flagLabel, flagCompound, flagModels = "", false, nil
	flagChild, flagParent = "", ""
	flagNoSequence = false
	flagConcurrency, flagResumeFrom = 1, 0
	for _, f := range []*pflag.Flag{
		objectCreateCmd.Flags().Lookup("model"),
		unlinkCmd.Flags().Lookup("child"),
		unlinkCmd.Flags().Lookup("parent"),
	} {
		require.NoError(t, f.Value.(pflag.SliceValue).Replace(nil))
	}
}

type cli struct {
	t         *testing.T
	configDir string
	dataDir   string
}

func newCLI(t *testing.T) *cli {
	dir := t.TempDir()
	return &cli{t: t, configDir: filepath.Join(dir, "config"), dataDir: filepath.Join(dir, "data")}
}

// run executes the root command and returns stdout and the error.
func (c *cli) run(args ...string) (string, error) {
	c.t.Helper()
	resetFlags(c.t)
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(append([]string{"--config-dir", c.configDir, "--data-dir", c.dataDir}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func (c *cli) mustRun(args ...string) string {
	c.t.Helper()
	out, err := c.run(args...)
	require.NoError(c.t, err, "compound %v", args)
	return out
}

func (c *cli) children(parent string) []compound.ChildPart {
	c.t.Helper()
	var parts []compound.ChildPart
	require.NoError(c.t, json.Unmarshal([]byte(c.mustRun("--json", "children", parent)), &parts))
	return parts
}

func TestCommands_LinkReorderUnlink(t *testing.T) {
	c := newCLI(t)
	c.mustRun("init")
	c.mustRun("object", "create", "book:1", "--label", "Book", "--compound")
	for _, page := range []string{"page:1", "page:2", "page:3"} {
		c.mustRun("object", "create", page, "--label", "Page "+page)
		c.mustRun("link", "book:1", "--child", page)
	}

	parts := c.children("book:1")
	require.Len(t, parts, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{parts[0].Sequence, parts[1].Sequence, parts[2].Sequence})

	out := c.mustRun("reorder", "book:1", "page:3=1", "page:1=2", "page:2=3")
	assert.Contains(t, out, "4 succeeded, 0 failed, 4/4 steps")

	parts = c.children("book:1")
	assert.Equal(t, "page:3", parts[0].PID)
	assert.Equal(t, "page:1", parts[1].PID)
	assert.Equal(t, "page:2", parts[2].PID)

	show := c.mustRun("object", "show", "book:1")
	assert.Contains(t, show, "Thumbnail: page:3")

	c.mustRun("unlink", "book:1", "--child", "page:3")
	parts = c.children("book:1")
	require.Len(t, parts, 2)
	assert.Equal(t, "page:1", parts[0].PID)

	c.mustRun("reorder", "book:1")
	parts = c.children("book:1")
	assert.Equal(t, 1, parts[0].Sequence)
	assert.Equal(t, 2, parts[1].Sequence)
}

func TestCommands_ValidationExitCode(t *testing.T) {
	c := newCLI(t)
	c.mustRun("object", "create", "book:1", "--compound")
	c.mustRun("object", "create", "page:1")

	_, err := c.run("link", "book:1", "--child", "book:1")
	require.Error(t, err)
	assert.Equal(t, exitUserError, exitCode(err))

	_, err = c.run("link", "page:1", "--child", "book:1")
	require.Error(t, err, "non-compound objects cannot take children by default")
	assert.Equal(t, exitUserError, exitCode(err))

	_, err = c.run("link", "missing:1", "--parent", "book:1")
	assert.Equal(t, exitUserError, exitCode(err))

	_, err = c.run("link", "book:1")
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestCommands_DeleteCascades(t *testing.T) {
	c := newCLI(t)
	c.mustRun("object", "create", "book:1", "--compound")
	c.mustRun("object", "create", "page:1")
	c.mustRun("link", "page:1", "--parent", "book:1")
	require.Len(t, c.children("book:1"), 1)

	c.mustRun("object", "delete", "page:1")
	assert.Empty(t, c.children("book:1"))

	_, err := c.run("object", "delete", "page:1")
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestCommands_Version(t *testing.T) {
	c := newCLI(t)
	assert.Equal(t, "compound "+compound.Version+"\n", c.mustRun("version"))
}

func TestCommands_ReorderRejectsNonMember(t *testing.T) {
	c := newCLI(t)
	c.mustRun("object", "create", "book:1", "--compound")
	c.mustRun("object", "create", "page:1")
	c.mustRun("object", "create", "loose:1")
	c.mustRun("link", "book:1", "--child", "page:1")

	out, err := c.run("reorder", "book:1", "loose:1=1", "page:1=2")
	require.Error(t, err)
	assert.Equal(t, exitSysError, exitCode(err))
	assert.Contains(t, out, "failed children: loose:1")

	parts := c.children("book:1")
	require.Len(t, parts, 1)
	assert.Equal(t, "page:1", parts[0].PID)
	assert.Equal(t, 2, parts[0].Sequence)
}
