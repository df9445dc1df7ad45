package render

import (
	"fmt"
	"image/color"

	"formbreed/internal/config"
	"formbreed/internal/geometry"
)

// Palette maps drawing roles to colors.
type Palette struct {
	Background color.Color
	Label      color.Color
	Roles      map[geometry.Role]color.Color
	LineScale  float64
}

// PaletteFrom parses a style table.
func PaletteFrom(style config.StyleConfig) (Palette, error) {
	parse := func(name, hex string) (color.Color, error) {
		c, err := config.ParseHexColor(hex)
		if err != nil {
			return nil, fmt.Errorf("style %s: %w", name, err)
		}
		return c, nil
	}
	var (
		p   = Palette{Roles: make(map[geometry.Role]color.Color, 5), LineScale: style.LineWidth}
		err error
	)
	if p.Background, err = parse("background", style.Background); err != nil {
		return Palette{}, err
	}
	if p.Label, err = parse("label", style.Label); err != nil {
		return Palette{}, err
	}
	for role, hex := range map[geometry.Role]string{
		geometry.RoleBody:   style.Body,
		geometry.RoleShadow: style.Shadow,
		geometry.RoleLine:   style.Line,
		geometry.RoleDots:   style.Dots,
		geometry.RoleAccent: style.Accent,
	} {
		c, err := parse(string(role), hex)
		if err != nil {
			return Palette{}, err
		}
		p.Roles[role] = c
	}
	if p.LineScale <= 0 {
		p.LineScale = 1
	}
	return p, nil
}

// Color returns the color for role, falling back to the line color.
func (p Palette) Color(role geometry.Role) color.Color {
	if c, ok := p.Roles[role]; ok {
		return c
	}
	if c, ok := p.Roles[geometry.RoleLine]; ok {
		return c
	}
	return color.Black
}
