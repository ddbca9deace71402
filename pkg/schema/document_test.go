package schema_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formwork-dev/formwork/pkg/schema"
)

const signupYAML = `
name: signup
fields:
  - path: name
    required: true
    min_len: 3
  - path: age
    required: true
    min: 18
  - path: role
    one_of: [admin, viewer]
`

func TestParse_Fields(t *testing.T) {
	doc, err := schema.Parse([]byte(signupYAML))
	require.NoError(t, err)

	assert.Equal(t, "signup", doc.Name)
	require.Len(t, doc.Fields, 3)
	assert.Equal(t, "name", doc.Fields[0].Path)
	require.NotNil(t, doc.Fields[0].MinLen)
	assert.Equal(t, 3, *doc.Fields[0].MinLen)

	v, err := doc.Validator()
	require.NoError(t, err)

	report, err := v.Validate(context.Background(), map[string]any{
		"name": "Jo", "age": 17, "role": "root",
	})
	require.NoError(t, err)
	assert.False(t, report.Valid)
	assert.Len(t, report.FieldErrors, 3)
}

func TestParse_JSONSchemaBody(t *testing.T) {
	doc, err := schema.Parse([]byte(`
name: signup
schema:
  type: object
  required: [name]
  properties:
    name:
      type: string
      minLength: 3
`))
	require.NoError(t, err)

	v, err := doc.Validator()
	require.NoError(t, err)

	report, err := v.Validate(context.Background(), map[string]any{"name": "John"})
	require.NoError(t, err)
	assert.True(t, report.Valid)
}

func TestParse_UnknownKeysRejected(t *testing.T) {
	_, err := schema.Parse([]byte("name: x\nbogus: true\n"))
	assert.Error(t, err)
}

func TestDocument_EmptyFieldPath(t *testing.T) {
	doc := &schema.Document{Name: "bad", Fields: []schema.FieldSpec{{Required: true}}}
	_, err := doc.Validator()
	assert.Error(t, err)
}

func TestLoadFileAndDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "signup.yaml"), []byte(signupYAML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "unnamed.yml"), []byte("fields: []\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignore.txt"), []byte("not yaml"), 0o644))

	docs, err := schema.LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Contains(t, docs, "signup")
	// Name defaults to the file base name.
	assert.Contains(t, docs, "unnamed")
}

func TestLoadDir_DuplicateNames(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("name: dup\nfields: []\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yaml"), []byte("name: dup\nfields: []\n"), 0o644))

	_, err := schema.LoadDir(dir)
	assert.Error(t, err)
}
