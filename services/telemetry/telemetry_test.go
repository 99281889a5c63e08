package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduatipico/portal/core"
)

func TestSetup_disabled(t *testing.T) {
	shutdown, err := Setup(context.Background(), &core.Config{AppName: "test"})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}
