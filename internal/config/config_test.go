package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func Test_Config_Reads_Environment(t *testing.T) {
	req := require.New(t)
	t.Setenv("PORT", "9001")
	t.Setenv("NODE_ID", "node-test")
	t.Setenv("PUSH_TIMEOUT_SECONDS", "2")

	cfg, err := LoadConfig()
	req.NoError(err)
	req.Equal("9001", cfg.Port)
	req.Equal("node-test", cfg.NodeID)
	req.Equal(2*time.Second, cfg.PushTimeout)
}

func Test_Config_Falls_Back_On_Bad_Push_Timeout(t *testing.T) {
	req := require.New(t)
	t.Setenv("PUSH_TIMEOUT_SECONDS", "bogus")

	cfg, err := LoadConfig()
	req.NoError(err)
	req.Equal(5*time.Second, cfg.PushTimeout)
}

func Test_Config_Derives_Node_ID_When_Unset(t *testing.T) {
	req := require.New(t)
	t.Setenv("NODE_ID", "")

	cfg, err := LoadConfig()
	req.NoError(err)
	req.NotEmpty(cfg.NodeID)
}
