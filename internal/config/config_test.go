package config

import (
	"path/filepath"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 校验随仓库发布的示例配置能被正确解析，且各字段与代码约定一致。
func TestSampleConfigDecodes(t *testing.T) {
	var conf Config
	_, err := toml.DecodeFile(filepath.Join("..", "..", "configs", "config_local.toml"), &conf)
	require.NoError(t, err)

	assert.Equal(t, "PricePilot", conf.AppName)
	assert.Equal(t, "products", conf.CollectionName)
	assert.Equal(t, 5, conf.DiversityLimit)
	assert.InDelta(t, 0.5, conf.ScoreThreshold, 1e-6)

	// logPath 是目录；zlog 会在其下拼接 app.log
	assert.Equal(t, "logs", conf.LogPath)
	assert.Empty(t, filepath.Ext(conf.LogPath))
}
