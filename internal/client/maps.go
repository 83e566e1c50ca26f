package client

import (
	"fmt"

	"github.com/tfl/client/internal/data"
	"github.com/tfl/client/internal/geom"
	"github.com/tfl/client/internal/selection"
)

// Map is what the session needs of the map the server announced.
type Map struct {
	Name    string
	Terrain selection.Terrain
	Bounds  geom.Rect
}

// MapLoader resolves a map name from the info message.
type MapLoader interface {
	LoadMap(name string) (Map, error)
}

// CatalogMaps serves maps from the static map list.
type CatalogMaps struct {
	Table *data.MapDataTable
}

func (c CatalogMaps) LoadMap(name string) (Map, error) {
	info := c.Table.Get(name)
	if info == nil {
		return Map{}, fmt.Errorf("map %q is not in the catalog", name)
	}
	half := info.HalfSize()
	return Map{
		Name:    info.Name,
		Terrain: selection.FlatTerrain(info.Height),
		Bounds:  geom.NewRect(geom.Vec2{X: -half, Y: -half}, geom.Vec2{X: half, Y: half}),
	}, nil
}
