package shaders

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenKnownBackends(t *testing.T) {
	assert.Equal(t, []string{"d3d12", "metal", "vulkan"}, Backends())
	for _, backend := range []string{"vulkan", " Metal", "D3D12"} {
		b, err := Open(backend)
		require.NoError(t, err, backend)

		shader, err := b.Shader("Reflective/Visor")
		require.NoError(t, err)
		assert.True(t, shader.Valid())
		assert.Equal(t, b.Backend(), shader.Backend)
		assert.Contains(t, shader.Source, "fn fs_main")
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open("gles")
	assert.ErrorIs(t, err, ErrNoBundle)
	assert.Contains(t, err.Error(), `"gles"`)
}

func TestMissingShader(t *testing.T) {
	b, err := Open("vulkan")
	require.NoError(t, err)
	_, err = b.Shader("Reflective/Window")
	assert.ErrorIs(t, err, ErrNoShader)
}
