package report

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/brewer"
	"gonum.org/v1/plot/palette/moreland"
)

// paletteSize is the number of colours a heat map palette is blended to.
const paletteSize = 64

// colorList is a fixed palette.
type colorList []color.Color

func (c colorList) Colors() []color.Color { return c }

func colorMapPalette(cm palette.ColorMap, n int) palette.Palette {
	cm.SetMin(0)
	cm.SetMax(1)
	return cm.Palette(n)
}

// basePalette looks a colour map up by name. Names follow matplotlib where
// an equivalent exists; ColorBrewer names (Blues, Greys, RdBu, ...) are
// matched as well.
func basePalette(name string) (palette.Palette, error) {
	switch strings.ToLower(name) {
	case "gray", "grey":
		return colorList{color.Black, color.White}, nil
	case "heat", "hot":
		return palette.Heat(paletteSize, 1), nil
	case "rainbow", "jet":
		return palette.Rainbow(paletteSize, palette.Blue, palette.Red, 1, 1, 1), nil
	case "coolwarm", "smoothbluered":
		return colorMapPalette(moreland.SmoothBlueRed(), paletteSize), nil
	case "kindlmann":
		return colorMapPalette(moreland.Kindlmann(), paletteSize), nil
	case "blackbody", "inferno":
		return colorMapPalette(moreland.ExtendedBlackBody(), paletteSize), nil
	}
	p, err := brewer.GetPalette(brewer.TypeAny, name, 9)
	if err != nil {
		return nil, fmt.Errorf("unknown colormap %q", name)
	}
	return p, nil
}

// Colormap returns the named palette blended to a smooth gradient. A "_r"
// suffix reverses it. Unknown names fall back to fallback, and the name
// actually used is returned alongside.
func Colormap(name, fallback string) (palette.Palette, string, error) {
	if name == "" {
		name = fallback
	}
	p, err := namedColormap(name)
	if err == nil {
		return p, name, nil
	}
	p, ferr := namedColormap(fallback)
	if ferr != nil {
		return nil, "", ferr
	}
	return p, fallback, nil
}

func namedColormap(name string) (palette.Palette, error) {
	base, reverse := name, false
	if strings.HasSuffix(base, "_r") {
		base, reverse = strings.TrimSuffix(base, "_r"), true
	}
	p, err := basePalette(base)
	if err != nil {
		return nil, err
	}
	cols := blend(p.Colors(), paletteSize)
	if reverse {
		for i, j := 0, len(cols)-1; i < j; i, j = i+1, j-1 {
			cols[i], cols[j] = cols[j], cols[i]
		}
	}
	return cols, nil
}

// blend interpolates the stops in Lab space into n evenly spaced colours.
func blend(stops []color.Color, n int) colorList {
	if len(stops) == 0 {
		return nil
	}
	cs := make([]colorful.Color, len(stops))
	for i, s := range stops {
		cs[i], _ = colorful.MakeColor(s)
	}
	out := make(colorList, n)
	if len(cs) == 1 {
		for i := range out {
			out[i] = cs[0]
		}
		return out
	}
	for i := range out {
		pos := float64(i) / float64(n-1) * float64(len(cs)-1)
		lo := int(pos)
		if lo >= len(cs)-1 {
			lo = len(cs) - 2
		}
		out[i] = cs[lo].BlendLab(cs[lo+1], pos-float64(lo)).Clamped()
	}
	return out
}
