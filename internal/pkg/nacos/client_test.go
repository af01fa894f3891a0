package nacos_test

import (
	"testing"

	"fraudguard/internal/pkg/nacos"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseServerConfigs(t *testing.T) {
	configs, err := nacos.ParseServerConfigs("10.0.0.1:8848, 10.0.0.2:8849")
	require.NoError(t, err)
	require.Len(t, configs, 2)
	assert.Equal(t, "10.0.0.1", configs[0].IpAddr)
	assert.Equal(t, uint64(8849), configs[1].Port)

	_, err = nacos.ParseServerConfigs("10.0.0.1")
	assert.Error(t, err)

	_, err = nacos.ParseServerConfigs("10.0.0.1:port")
	assert.Error(t, err)
}
