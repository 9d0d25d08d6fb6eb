package migration

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAvailable(t *testing.T) {
	names, err := Available()
	require.NoError(t, err)
	assert.Equal(t, []string{
		"000001_create_users",
		"000002_create_products",
		"000003_create_orders",
		"000004_create_outbox_events",
	}, names)
}

func TestMigrationsHaveRollbacks(t *testing.T) {
	names, err := Available()
	require.NoError(t, err)
	for _, name := range names {
		down, err := migrations.ReadFile("sql/" + name + ".down.sql")
		require.NoError(t, err, name)
		assert.True(t, strings.HasPrefix(string(down), "DROP TABLE"), name)
	}
}
