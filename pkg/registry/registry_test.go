package registry

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"specgraph/pkg/nserror"
	"specgraph/pkg/store"
)

const petstore = `openapi: 3.0.0
info:
  title: Pet Store
  version: "1.0"
paths:
  /pets:
    get:
      operationId: listPets
      responses:
        "200":
          description: ok
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/Pets'
components:
  schemas:
    Pets:
      type: array
`

const brokenRef = `openapi: 3.0.0
info:
  title: Broken
paths:
  /x:
    get:
      operationId: x
      responses:
        "200":
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/Nope'
`

func newRegistry(t *testing.T, files map[string]string, validate bool) *Registry {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	logger := zaptest.NewLogger(t)
	s := store.New(store.Options{}, logger)
	return New(s, Options{Dir: dir, ValidateOnLoad: validate}, logger)
}

func TestGetSpecByID(t *testing.T) {
	r := newRegistry(t, map[string]string{"petstore.yaml": petstore}, true)
	require.NoError(t, r.Reload(context.Background()))

	spec, err := r.GetSpecByID("petstore")
	require.NoError(t, err)
	assert.Equal(t, "Pet Store 1.0", spec.Name())

	paths, err := spec.Paths()
	require.NoError(t, err)
	require.NotEmpty(t, paths)
	methods, err := paths[0].Methods()
	require.NoError(t, err)
	require.NotEmpty(t, methods)
	assert.Equal(t, "listPets", methods[0].OperationID())
}

func TestGetSpecByIDNotFound(t *testing.T) {
	r := newRegistry(t, map[string]string{"petstore.yaml": petstore}, false)
	require.NoError(t, r.Reload(context.Background()))

	_, err := r.GetSpecByID("nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, nserror.ErrNotFound))
	assert.Equal(t, `Cannot find api spec with id "nope"`, err.Error())
}

func TestGetAllSpecs(t *testing.T) {
	r := newRegistry(t, map[string]string{
		"petstore.yaml": petstore,
		"broken.yaml":   brokenRef,
	}, false)
	require.NoError(t, r.Reload(context.Background()))

	specs, err := r.GetAllSpecs()
	require.NoError(t, err)
	require.Len(t, specs, 2)
	assert.Equal(t, "broken", specs[0].ID())
	assert.Equal(t, "petstore", specs[1].ID())
	assert.Equal(t, []string{"broken", "petstore"}, r.IDs())
}

func TestResolveRef(t *testing.T) {
	r := newRegistry(t, map[string]string{"petstore.yaml": petstore}, false)
	require.NoError(t, r.Reload(context.Background()))

	v, err := r.ResolveRef(nserror.Namespace{"petstore"}, "#/components/schemas/Pets/type")
	require.NoError(t, err)
	assert.Equal(t, "array", v.Text())

	again, err := r.ResolveRef(nserror.Namespace{"petstore"}, "#/components/schemas/Pets/type")
	require.NoError(t, err)
	assert.True(t, v.Equal(again))

	_, err = r.ResolveRef(nserror.Namespace{"other"}, "#/info")
	require.Error(t, err)
	assert.Equal(t, "[LoadSpec][other] Invalid $ref. #/info (unknown spec)", err.Error())
}

func TestValidateAll(t *testing.T) {
	r := newRegistry(t, map[string]string{
		"petstore.yaml": petstore,
		"broken.yaml":   brokenRef,
	}, false)
	require.NoError(t, r.Reload(context.Background()))

	reports := r.ValidateAll()
	require.Len(t, reports, 2)
	assert.Equal(t, "broken", reports[0].ID)
	require.Error(t, reports[0].Err)
	assert.True(t, errors.Is(reports[0].Err, nserror.ErrReference))
	assert.Equal(t, "petstore", reports[1].ID)
	assert.NoError(t, reports[1].Err)
}

func TestReloadValidatesWhenConfigured(t *testing.T) {
	r := newRegistry(t, map[string]string{"broken.yaml": brokenRef}, true)

	err := r.Reload(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "document broken is invalid")
	assert.True(t, errors.Is(err, nserror.ErrReference))
}

func TestReloadSurfacesLoadErrors(t *testing.T) {
	r := newRegistry(t, map[string]string{"petstore.yaml": "paths: [oops"}, false)

	err := r.Reload(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, nserror.ErrLoad))
}
