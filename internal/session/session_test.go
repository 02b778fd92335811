package session

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jbweber/vmctl/internal/config"
)

func TestNew_Defaults(t *testing.T) {
	s := New(context.Background(), Options{})

	require.NotNil(t, s.Config)
	assert.Equal(t, config.Default(), s.Config)
	assert.NotNil(t, s.Log)
	assert.NotNil(t, s.Hooks)
	assert.False(t, s.DryRun)
	assert.False(t, s.Runner.DryRun)

	_, err := uuid.Parse(s.RunID)
	assert.NoError(t, err)
}

func TestNew_DryRunReachesRunner(t *testing.T) {
	var out, errOut bytes.Buffer
	s := New(context.Background(), Options{DryRun: true, Stdout: &out, Stderr: &errOut})

	assert.True(t, s.DryRun)
	assert.True(t, s.Runner.DryRun)

	require.NoError(t, s.Runner.Run(s.Ctx, "virsh", "start", "web1"))
	assert.Equal(t, "[dry-run] virsh start web1\n", errOut.String())
	assert.Empty(t, out.String())
}

func TestNew_DistinctRunIDs(t *testing.T) {
	a := New(context.Background(), Options{})
	b := New(context.Background(), Options{})
	assert.NotEqual(t, a.RunID, b.RunID)
}
