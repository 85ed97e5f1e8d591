package affinity

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewService(t *testing.T) {
	t.Run("create new service", func(t *testing.T) {
		tmpDir := filepath.Join(t.TempDir(), "test_db")
		svc, err := NewService(tmpDir)
		require.NoError(t, err)
		require.NotNil(t, svc)
		defer svc.Close()

		// Verify components are initialized
		assert.NotNil(t, svc.Profiles())
		assert.NotNil(t, svc.Matches())
		assert.NotNil(t, svc.ContactLog())
		assert.NotNil(t, svc.provider)
		assert.NotNil(t, svc.logger)
	})

	t.Run("error with invalid path", func(t *testing.T) {
		// Try to open the database at a file path instead of a directory
		tmpFile := filepath.Join(t.TempDir(), "not_a_dir")
		err := os.WriteFile(tmpFile, []byte("test"), 0644)
		require.NoError(t, err)

		svc, err := NewService(tmpFile)
		assert.Error(t, err)
		assert.Nil(t, svc)
	})
}

func TestService_Close(t *testing.T) {
	svc, err := NewService(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, svc)

	err = svc.Close()
	assert.NoError(t, err)
}

func TestService_FactoryMethods(t *testing.T) {
	svc, err := NewService(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, svc)
	defer svc.Close()

	t.Run("can create matching engine", func(t *testing.T) {
		engine, err := svc.NewEngine()
		require.NoError(t, err)
		require.NotNil(t, engine)
	})

	t.Run("can create batch controller", func(t *testing.T) {
		controller, err := svc.NewBatchController(nil)
		require.NoError(t, err)
		require.NotNil(t, controller)
	})

	t.Run("can create ingest pipeline", func(t *testing.T) {
		pipeline, err := svc.NewIngestPipeline()
		require.NoError(t, err)
		require.NotNil(t, pipeline)
		pipeline.Release()
	})
}
