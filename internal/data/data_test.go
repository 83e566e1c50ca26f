package data

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadUnitTable(t *testing.T) {
	p := writeFile(t, "unit_list.yaml", `
units:
  - kind: 1
    name: archer
    fov: 80
  - kind: 0
    name: soldier
    fov: 50
`)
	tbl, err := LoadUnitTable(p)
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.Count())
	assert.Equal(t, "soldier", tbl.Kinds()[0].Name, "kinds are ordered by index")
	assert.Equal(t, float32(80), tbl.FOV(1))
	assert.Zero(t, tbl.FOV(9))

	k, ok := tbl.Lookup("archer")
	require.True(t, ok)
	assert.Equal(t, uint16(1), k)
}

func TestUnitTableRejectsGaps(t *testing.T) {
	_, err := NewUnitTable([]UnitKind{{Kind: 0, Name: "a"}, {Kind: 2, Name: "b"}})
	assert.Error(t, err)

	_, err = NewUnitTable([]UnitKind{{Kind: 0, Name: "a"}, {Kind: 1, Name: "a"}})
	assert.Error(t, err)
}

func TestLoadEffectTable(t *testing.T) {
	p := writeFile(t, "effect_list.yaml", `
effects:
  - kind: 3
    name: shell
    duration_ms: 1500
`)
	tbl, err := LoadEffectTable(p)
	require.NoError(t, err)
	k, ok := tbl.Get(3)
	require.True(t, ok)
	assert.Equal(t, 1500*time.Millisecond, k.Duration())

	_, ok = tbl.Get(0)
	assert.False(t, ok)

	_, err = NewEffectTable([]EffectKind{{Kind: 0, DurationMs: 0}})
	assert.Error(t, err)
}

func TestProtocolKeyDependsOnContent(t *testing.T) {
	a := writeFile(t, "a.yaml", "units: []\n")
	b := writeFile(t, "b.yaml", "units: [] \n")

	ka, err := ProtocolKey(a)
	require.NoError(t, err)
	ka2, err := ProtocolKey(a)
	require.NoError(t, err)
	kb, err := ProtocolKey(b)
	require.NoError(t, err)

	assert.Equal(t, ka, ka2)
	assert.NotEqual(t, ka, kb)

	_, err = ProtocolKey(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestLoadMapData(t *testing.T) {
	p := writeFile(t, "map_list.yaml", `
maps:
  - name: plains
    size: 2000
  - name: ridge
    size: 1000
    height: 40
`)
	tbl, err := LoadMapData(p)
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.Count())

	m := tbl.Get("ridge")
	require.NotNil(t, m)
	assert.Equal(t, float32(500), m.HalfSize())
	assert.Equal(t, float32(40), m.Height)
	assert.Nil(t, tbl.Get("desert"))

	_, err = NewMapDataTable([]MapInfo{{Name: "x", Size: 0}})
	assert.Error(t, err)
	_, err = NewMapDataTable([]MapInfo{{Name: "x", Size: 1}, {Name: "x", Size: 2}})
	assert.Error(t, err)
}

func TestSampleTablesLoad(t *testing.T) {
	dir := filepath.Join("..", "..", "data", "yaml")
	units, err := LoadUnitTable(filepath.Join(dir, "unit_list.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 4, units.Count())

	effects, err := LoadEffectTable(filepath.Join(dir, "effect_list.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 3, effects.Count())

	maps, err := LoadMapData(filepath.Join(dir, "map_list.yaml"))
	require.NoError(t, err)
	require.NotNil(t, maps.Get("plains"))
	assert.Equal(t, float32(2000), maps.Get("plains").HalfSize())
}
