package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"specgraph/pkg/nserror"
	"specgraph/pkg/raw"
	"specgraph/pkg/resolver"
)

type docs map[string]raw.Value

func (d docs) Get(id string) (raw.Value, bool) {
	v, ok := d[id]
	return v, ok
}

func parse(t *testing.T, src string) raw.Value {
	t.Helper()
	v, err := raw.Parse([]byte(src))
	require.NoError(t, err)
	return v
}

// load registers src as document id and builds its Specification
func load(t *testing.T, id, src string) (*Specification, error) {
	t.Helper()
	doc := parse(t, src)
	return NewSpecification(id, doc, resolver.New(docs{id: doc}))
}

func mustLoad(t *testing.T, id, src string) *Specification {
	t.Helper()
	spec, err := load(t, id, src)
	require.NoError(t, err)
	return spec
}

const petstore = `
openapi: 3.0.0
info:
  title: Pet Store
  version: "1.0"
  description: Sample store
servers:
  - url: https://{env}.petstore.io/v1
    description: main
    variables:
      env:
        default: api
        enum: [api, staging]
paths:
  /pets:
    summary: all pets
    parameters:
      - $ref: '#/components/parameters/limit'
    get:
      operationId: listPets
      responses:
        "200":
          description: a page of pets
          headers:
            x-next:
              description: next page
              schema:
                type: string
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/Pets'
              example:
                - id: 1
    post:
      operationId: createPet
      requestBody:
        content:
          application/json:
            schema:
              $ref: '#/components/schemas/Pet'
      responses:
        "201":
          description: created
      callbacks:
        onCreate:
          '{$request.body#/callbackUrl}':
            post:
              operationId: petCreated
              responses:
                "200":
                  description: ok
  /pets/{petId}:
    get:
      $ref: '#/components/operations/showPet'
components:
  parameters:
    limit:
      name: limit
      in: query
      required: false
      schema:
        type: integer
      example: 20
  operations:
    showPet:
      operationId: showPetById
      parameters:
        - name: petId
          in: path
          required: true
          schema:
            type: string
      responses:
        "200":
          $ref: '#/components/responses/Pet'
  responses:
    Pet:
      description: one pet
      content:
        application/json:
          schema:
            $ref: '#/components/schemas/Pet'
  schemas:
    Pet:
      type: object
      properties:
        id:
          type: integer
    Pets:
      type: array
      items:
        $ref: '#/components/schemas/Pet'
`

func TestSpecificationEndToEnd(t *testing.T) {
	spec := mustLoad(t, "petstore", `
openapi: 3.0.0
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
`)

	assert.Equal(t, "Pet Store 1.0", spec.Name())
	assert.Equal(t, "petstore", spec.ID())
	assert.Equal(t, "3.0.0", spec.OpenAPI())

	paths, err := spec.Paths()
	require.NoError(t, err)
	require.Len(t, paths, 1)

	methods, err := paths[0].Methods()
	require.NoError(t, err)
	require.Len(t, methods, 1)
	assert.Equal(t, "listPets", methods[0].OperationID())
	assert.Equal(t, MethodGet, methods[0].Method())
}

func TestSpecificationAccessors(t *testing.T) {
	spec := mustLoad(t, "petstore", petstore)

	assert.Equal(t, "Pet Store", spec.Title())
	assert.Equal(t, "1.0", spec.Version())
	assert.Equal(t, "Sample store", spec.Description())
	assert.Equal(t, nserror.Namespace{"petstore"}, spec.Namespace())

	paths, err := spec.Paths()
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.Equal(t, "/pets", paths[0].Path())
	assert.Equal(t, "/pets/{petId}", paths[1].Path())

	servers, err := spec.Servers()
	require.NoError(t, err)
	require.Len(t, servers, 1)
	assert.Equal(t, "https://{env}.petstore.io/v1", servers[0].URL())
}

func TestSpecificationNameWithoutVersion(t *testing.T) {
	spec := mustLoad(t, "s", `
openapi: 3.0.3
info:
  title: Untitled
paths:
  /a:
    head:
      operationId: a
      responses:
        "204": {}
`)
	assert.Equal(t, "Untitled", spec.Name())
	assert.Equal(t, "", spec.Version())
}

func TestSpecificationNumericVersion(t *testing.T) {
	spec := mustLoad(t, "s", `
openapi: 3.0.1
info:
  title: Numbers
  version: 2.10
paths:
  /a:
    get:
      operationId: a
      responses:
        "200": {}
`)
	assert.Equal(t, "Numbers 2.10", spec.Name())
}

func TestSpecificationPathCountMatchesRawKeys(t *testing.T) {
	spec := mustLoad(t, "petstore", petstore)

	rawPaths, ok := spec.Raw().Get("paths").AsMap()
	require.True(t, ok)

	paths, err := spec.Paths()
	require.NoError(t, err)
	assert.Len(t, paths, rawPaths.Len())
}

func TestSpecificationValidation(t *testing.T) {
	const validPaths = `
paths:
  /a:
    get:
      operationId: a
      responses:
        "200": {}
`
	tests := []struct {
		name    string
		src     string
		message string
		code    nserror.Code
	}{
		{
			name:    "not an object",
			src:     `[1, 2]`,
			message: "this is not based on an object",
			code:    nserror.CodeNotAnObject,
		},
		{
			name:    "missing openapi",
			src:     "info: {title: t}\n" + validPaths,
			message: "[openapi] mandatory property missing or empty",
			code:    nserror.CodeMissingMandatoryProperty,
		},
		{
			name:    "unsupported openapi",
			src:     "openapi: 2.0.0\ninfo: {title: t}\n" + validPaths,
			message: `[openapi] "2.0.0" is not a valid value for [openapi]. (Valid values: ["3.0.0", "3.0.1", "3.0.2", "3.0.3"])`,
			code:    nserror.CodeInvalidEnumValue,
		},
		{
			name:    "missing info",
			src:     "openapi: 3.0.0\n" + validPaths,
			message: "[info] mandatory property missing or empty",
			code:    nserror.CodeMissingMandatoryProperty,
		},
		{
			name:    "info not an object",
			src:     "openapi: 3.0.0\ninfo: nope\n" + validPaths,
			message: "[info] is not a object but a string",
			code:    nserror.CodeTypeMismatch,
		},
		{
			name:    "empty title",
			src:     "openapi: 3.0.0\ninfo: {title: ''}\n" + validPaths,
			message: "[info.title] must be a string and not empty",
			code:    nserror.CodeNotAStringOrEmpty,
		},
		{
			name:    "description not a string",
			src:     "openapi: 3.0.0\ninfo: {title: t, description: [x]}\n" + validPaths,
			message: "[info.description] must be null or a string",
			code:    nserror.CodeNotNullOrString,
		},
		{
			name:    "missing paths",
			src:     "openapi: 3.0.0\ninfo: {title: t}\n",
			message: "[paths] mandatory property missing or empty",
			code:    nserror.CodeMissingMandatoryProperty,
		},
		{
			name:    "empty paths",
			src:     "openapi: 3.0.0\ninfo: {title: t}\npaths: {}\n",
			message: "[paths] mandatory property missing or empty",
			code:    nserror.CodeMissingMandatoryProperty,
		},
		{
			name:    "paths is an array",
			src:     "openapi: 3.0.0\ninfo: {title: t}\npaths: [a]\n",
			message: "[paths] must be a map string -> Object",
			code:    nserror.CodeNotARecord,
		},
		{
			name:    "servers not an array",
			src:     "openapi: 3.0.0\ninfo: {title: t}\nservers: {url: x}\n" + validPaths,
			message: "[servers] must be an array",
			code:    nserror.CodeNotAnArray,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := load(t, "doc", tt.src)
			require.Error(t, err)
			assert.True(t, errors.Is(err, nserror.ErrValidation))

			var nsErr *nserror.Error
			require.ErrorAs(t, err, &nsErr)
			assert.Equal(t, tt.message, nsErr.Message)
			assert.Equal(t, tt.code, nsErr.Code)
			assert.Equal(t, nserror.Namespace{"doc"}, nsErr.Namespace)
		})
	}
}

func TestSpecificationEmptyID(t *testing.T) {
	_, err := NewSpecification("", raw.Null(), resolver.New(docs{}))
	require.Error(t, err)
	assert.Equal(t, "[id] must be a string and not empty", err.Error())
}

func TestValidateTree(t *testing.T) {
	spec := mustLoad(t, "petstore", petstore)
	require.NoError(t, ValidateTree(spec))
}

func TestValidateTreeReportsDeepFailure(t *testing.T) {
	spec := mustLoad(t, "broken", `
openapi: 3.0.0
info: {title: Broken}
paths:
  /pets:
    get:
      operationId: listPets
      responses:
        "200":
          content:
            application/json:
              schema:
                $ref: '#/components/schemas/Missing'
components:
  schemas: {}
`)

	err := ValidateTree(spec)
	require.Error(t, err)
	assert.True(t, errors.Is(err, nserror.ErrReference))
	assert.Equal(t,
		"[LoadSpec][broken > path: /pets > method: listPets (get) > response: 200 > content: application/json] "+
			"Invalid $ref. #/components/schemas/Missing (Invalid path: Cannot find Missing)",
		err.Error())
}
