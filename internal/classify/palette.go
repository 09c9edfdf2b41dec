package classify

import (
	"fmt"
	"os"
	"strconv"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// NoDataColor is the fill for regions with no matching record or an invalid
// value.
const NoDataColor = "#cccccc"

// redsRamp is the 9-class sequential reds ramp used both as the discrete
// palette ceiling and as the reference ramp for interpolated palettes.
var redsRamp = []string{
	"#fff5f0", "#fee0d2", "#fcbba1", "#fc9272", "#fb6a4a",
	"#ef3b2c", "#cb181d", "#a50f15", "#67000d",
}

// discretePalettes maps class counts to fixed sequential palettes.
var discretePalettes = map[int][]string{
	1: {"#de2d26"},
	2: {"#fcae91", "#de2d26"},
	3: {"#fee0d2", "#fc9272", "#de2d26"},
	4: {"#fee5d9", "#fcae91", "#fb6a4a", "#cb181d"},
	5: {"#fee5d9", "#fcae91", "#fb6a4a", "#de2d26", "#a50f15"},
	6: {"#fee5d9", "#fcbba1", "#fc9272", "#fb6a4a", "#de2d26", "#a50f15"},
	7: {"#fee5d9", "#fcbba1", "#fc9272", "#fb6a4a", "#ef3b2c", "#cb181d", "#99000d"},
	8: {"#fff5f0", "#fee0d2", "#fcbba1", "#fc9272", "#fb6a4a", "#ef3b2c", "#cb181d", "#99000d"},
	9: {"#fff5f0", "#fee0d2", "#fcbba1", "#fc9272", "#fb6a4a", "#ef3b2c", "#cb181d", "#a50f15", "#67000d"},
}

// DiscretePalette returns the fixed sequential palette for n classes.
// Counts above the discrete ceiling fall through to interpolation.
func DiscretePalette(n int) []string {
	if p, ok := discretePalettes[n]; ok {
		out := make([]string, len(p))
		copy(out, p)
		return out
	}
	return InterpolatedPalette(n)
}

// InterpolatedPalette synthesizes n colors by sampling the reds ramp at
// i/(n-1) for each class.
func InterpolatedPalette(n int) []string {
	if n <= 1 {
		return []string{redsRamp[len(redsRamp)-1]}
	}
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = sampleRamp(redsRamp, float64(i)/float64(n-1))
	}
	return out
}

// sampleRamp linearly interpolates a hex color ramp at t in [0, 1].
func sampleRamp(ramp []string, t float64) string {
	if t <= 0 {
		return ramp[0]
	}
	if t >= 1 {
		return ramp[len(ramp)-1]
	}

	scaled := t * float64(len(ramp)-1)
	lo := int(scaled)
	frac := scaled - float64(lo)

	r0, g0, b0 := parseHex(ramp[lo])
	r1, g1, b1 := parseHex(ramp[lo+1])

	lerp := func(a, b int) int {
		return a + int(frac*float64(b-a)+0.5)
	}
	return fmt.Sprintf("#%02x%02x%02x", lerp(r0, r1), lerp(g0, g1), lerp(b0, b1))
}

func parseHex(hex string) (r, g, b int) {
	if len(hex) != 7 || hex[0] != '#' {
		return 0, 0, 0
	}
	rv, _ := strconv.ParseInt(hex[1:3], 16, 32)
	gv, _ := strconv.ParseInt(hex[3:5], 16, 32)
	bv, _ := strconv.ParseInt(hex[5:7], 16, 32)
	return int(rv), int(gv), int(bv)
}

// paletteFile is the YAML shape for palette overrides.
type paletteFile struct {
	Ramp     []string         `yaml:"ramp"`
	Discrete map[int][]string `yaml:"discrete"`
}

// LoadPaletteFile replaces the built-in ramp and any listed discrete
// palettes with definitions from a YAML file.
func LoadPaletteFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrap(err, "classify: read palette file")
	}

	var pf paletteFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return eris.Wrap(err, "classify: parse palette file")
	}

	if len(pf.Ramp) >= 2 {
		redsRamp = pf.Ramp
	}
	for n, colors := range pf.Discrete {
		if len(colors) == n && n >= 1 {
			discretePalettes[n] = colors
		}
	}

	return nil
}
