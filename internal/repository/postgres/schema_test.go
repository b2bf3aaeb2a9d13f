package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaStatements_UsePrefixedTables(t *testing.T) {
	statements, err := schemaStatements(NewTableNames("dev_"))

	require.NoError(t, err)
	require.Len(t, statements, 1)
	assert.Contains(t, statements[0], "CREATE TABLE IF NOT EXISTS dev_conversation_turns")
	assert.Contains(t, statements[0], "ALTER TABLE dev_conversation_turns ADD COLUMN IF NOT EXISTS user_id")
	assert.NotContains(t, statements[0], "{{TABLE}}")
}

func TestNewTableNames(t *testing.T) {
	assert.Equal(t, "conversation_turns", NewTableNames("").ConversationTurns)
	assert.Equal(t, "test_conversation_turns", NewTableNames("test_").ConversationTurns)
}
