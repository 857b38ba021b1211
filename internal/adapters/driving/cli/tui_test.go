package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTUICmd_Use(t *testing.T) {
	assert.Equal(t, "tui", tuiCmd.Use)
	assert.Contains(t, tuiCmd.Long, "Controls:")
}

func TestTUIPorts_AllServices(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()

	ports := tuiPorts()

	assert.Equal(t, ts.Retrieval, ports.Retrieval)
	assert.Equal(t, ts.Answer, ports.Answer)
	assert.Equal(t, ts.Settings, ports.Settings)
	assert.NoError(t, ports.Validate())
}

func TestTUIPorts_MissingServicesStayNil(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	answerService = nil
	settingsService = nil

	ports := tuiPorts()

	assert.Nil(t, ports.Answer)
	assert.Nil(t, ports.Settings)
}

func TestTUICmd_NotConfigured(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	retrievalService = nil

	_, err := executeCommand("tui")

	assert.ErrorIs(t, err, errNotConfigured)
}
