package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TVimala/Packaged-Food-Rating-App/internal/domain"
	"github.com/TVimala/Packaged-Food-Rating-App/internal/policy"
)

// run executes the CLI in an empty working directory
func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	t.Chdir(t.TempDir())

	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestIngredientsCmd(t *testing.T) {
	out, _, err := run(t, "", "ingredients", "Sucrose, Glucose, Sea Salt, Hazelnuts")
	require.NoError(t, err)
	assert.Equal(t, "sugar\nsalt\nhazelnuts\n", out)
}

func TestIngredientsCmd_JSON(t *testing.T) {
	out, _, err := run(t, "", "--json", "ingredients", "Dextrose")
	require.NoError(t, err)

	var terms []string
	require.NoError(t, json.Unmarshal([]byte(out), &terms))
	assert.Equal(t, []string{"sugar"}, terms)
}

func TestTextCmd_Stdin(t *testing.T) {
	out, _, err := run(t, "Energy 250kcal\nFat 12.5g\nSugars 8g\n", "--json", "text", "-")
	require.NoError(t, err)

	var analysis domain.Analysis
	require.NoError(t, json.Unmarshal([]byte(out), &analysis))
	assert.Equal(t, domain.SourceOCR, analysis.Source)
	assert.Equal(t, 8.0, domain.ValueOr(analysis.Nutrients.Sugars, 0))
}

func TestTextCmd_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "label.txt")
	require.NoError(t, os.WriteFile(path, []byte("Protein 12g"), 0o644))

	out, _, err := run(t, "", "text", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Score: ")
	assert.Contains(t, out, "Good protein: 12 g/100g")
}

func TestTextCmd_NoNutrients(t *testing.T) {
	out, errOut, err := run(t, "Keep refrigerated", "text", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "Score: 70/100")
	assert.Contains(t, errOut, "no nutrient values")
}

func TestTextCmd_MissingFile(t *testing.T) {
	_, _, err := run(t, "", "text", filepath.Join(t.TempDir(), "absent.txt"))
	assert.Error(t, err)
}

func TestPolicyCmd(t *testing.T) {
	def, err := policy.Default()
	require.NoError(t, err)

	out, _, err := run(t, "", "policy")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "# digest: "+def.Digest()), "output: %s", out)
	assert.Contains(t, out, "bands:")

	out, _, err = run(t, "", "--json", "policy")
	require.NoError(t, err)
	var response struct {
		Digest string `json:"digest"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &response))
	assert.Equal(t, def.Digest(), response.Digest)
}

func TestBarcodeCmd_InvalidBarcode(t *testing.T) {
	_, _, err := run(t, "", "barcode", "not-a-code")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestWriteCandidates(t *testing.T) {
	var buf bytes.Buffer
	err := writeCandidates(&buf, []domain.ProductCandidate{
		{Product: domain.Product{Barcode: "3017620422003", Name: "Nutella", Brands: "Ferrero"}, Confidence: 89.6},
	}, false)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "BARCODE"))
	assert.Contains(t, lines[1], "Nutella")
	assert.True(t, strings.HasSuffix(lines[1], "90"))
}
