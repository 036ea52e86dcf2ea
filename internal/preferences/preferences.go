// Package preferences stores per-user display preferences. Nothing in the
// quiz session core reads them.
package preferences

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"quiz-generator-service/internal/domain"
)

type (
	Theme       string
	ColorScheme string
	Radius      string
	Style       string
)

const (
	ThemeDark   Theme = "dark"
	ThemeLight  Theme = "light"
	ThemeSystem Theme = "system"

	SchemePurple ColorScheme = "purple"
	SchemeBlue   ColorScheme = "blue"
	SchemeGreen  ColorScheme = "green"
	SchemeOrange ColorScheme = "orange"
	SchemeRose   ColorScheme = "rose"
	SchemeViolet ColorScheme = "violet"
	SchemeCustom ColorScheme = "custom"

	RadiusNone Radius = "none"
	RadiusSM   Radius = "sm"
	RadiusMD   Radius = "md"
	RadiusLG   Radius = "lg"
	RadiusFull Radius = "full"

	StyleDefault Style = "default"
	StyleNewYork Style = "new-york"
)

// DefaultForeground is the foreground paired with every primary color.
const DefaultForeground = "210 40% 98%"

// Colors are HSL triples in the "H S% L%" form.
type Colors struct {
	Primary           string `yaml:"primary" json:"primary"`
	PrimaryForeground string `yaml:"primaryForeground" json:"primaryForeground"`
	Ring              string `yaml:"ring" json:"ring"`
}

func presetColors(primary string) Colors {
	return Colors{Primary: primary, PrimaryForeground: DefaultForeground, Ring: primary}
}

// Presets maps every named scheme to its colors.
var Presets = map[ColorScheme]Colors{
	SchemePurple: presetColors("262 83% 58%"),
	SchemeBlue:   presetColors("221 83% 53%"),
	SchemeGreen:  presetColors("142 76% 36%"),
	SchemeOrange: presetColors("24 95% 53%"),
	SchemeRose:   presetColors("346 77% 50%"),
	SchemeViolet: presetColors("263 70% 50%"),
}

var radii = map[Radius]string{
	RadiusNone: "0rem",
	RadiusSM:   "0.3rem",
	RadiusMD:   "0.5rem",
	RadiusLG:   "0.75rem",
	RadiusFull: "1rem",
}

// CSS returns the border radius the option stands for.
func (r Radius) CSS() string {
	return radii[r]
}

// Preferences are one user's display settings.
type Preferences struct {
	Theme        Theme       `yaml:"theme" json:"theme"`
	ColorScheme  ColorScheme `yaml:"colorScheme" json:"colorScheme"`
	CustomColors *Colors     `yaml:"customColors,omitempty" json:"customColors,omitempty"`
	Radius       Radius      `yaml:"radius" json:"radius"`
	Style        Style       `yaml:"style" json:"style"`
}

// Defaults are used for users that never saved anything.
func Defaults() Preferences {
	return Preferences{
		Theme:       ThemeSystem,
		ColorScheme: SchemePurple,
		Radius:      RadiusMD,
		Style:       StyleDefault,
	}
}

// Colors resolves the active colors, falling back to purple when a custom
// scheme has no colors saved.
func (p Preferences) Colors() Colors {
	if p.ColorScheme == SchemeCustom && p.CustomColors != nil {
		return *p.CustomColors
	}
	if c, ok := Presets[p.ColorScheme]; ok {
		return c
	}
	return Presets[SchemePurple]
}

func (p Preferences) Validate() error {
	verr := &domain.ValidationError{}
	switch p.Theme {
	case ThemeDark, ThemeLight, ThemeSystem:
	default:
		verr.Fields = append(verr.Fields, domain.FieldError{Field: "theme", Message: "must be dark, light or system"})
	}
	if _, ok := Presets[p.ColorScheme]; !ok && p.ColorScheme != SchemeCustom {
		verr.Fields = append(verr.Fields, domain.FieldError{Field: "colorScheme", Message: "unknown color scheme"})
	}
	if p.CustomColors != nil {
		for field, value := range map[string]string{
			"customColors.primary":           p.CustomColors.Primary,
			"customColors.primaryForeground": p.CustomColors.PrimaryForeground,
			"customColors.ring":              p.CustomColors.Ring,
		} {
			if _, _, _, err := parseHSL(value); err != nil {
				verr.Fields = append(verr.Fields, domain.FieldError{Field: field, Message: err.Error()})
			}
		}
	}
	if _, ok := radii[p.Radius]; !ok {
		verr.Fields = append(verr.Fields, domain.FieldError{Field: "radius", Message: "must be none, sm, md, lg or full"})
	}
	switch p.Style {
	case StyleDefault, StyleNewYork:
	default:
		verr.Fields = append(verr.Fields, domain.FieldError{Field: "style", Message: "must be default or new-york"})
	}
	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

// Update changes the set fields only. CustomColor is a hex color that becomes
// the custom scheme.
type Update struct {
	Theme       *Theme       `json:"theme,omitempty"`
	ColorScheme *ColorScheme `json:"colorScheme,omitempty"`
	CustomColor *string      `json:"customColor,omitempty"`
	Radius      *Radius      `json:"radius,omitempty"`
	Style       *Style       `json:"style,omitempty"`
}

// Apply returns p with u applied and validated.
func (u Update) Apply(p Preferences) (Preferences, error) {
	if u.Theme != nil {
		p.Theme = *u.Theme
	}
	if u.ColorScheme != nil {
		p.ColorScheme = *u.ColorScheme
	}
	if u.CustomColor != nil {
		hsl, err := HexToHSL(*u.CustomColor)
		if err != nil {
			return p, &domain.ValidationError{Fields: []domain.FieldError{{Field: "customColor", Message: err.Error()}}}
		}
		colors := presetColors(hsl)
		p.CustomColors = &colors
		p.ColorScheme = SchemeCustom
	}
	if u.Radius != nil {
		p.Radius = *u.Radius
	}
	if u.Style != nil {
		p.Style = *u.Style
	}
	return p, p.Validate()
}

var hexPattern = regexp.MustCompile(`^#?([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// HexToHSL converts #RRGGBB or #RGB into "H S% L%".
func HexToHSL(hex string) (string, error) {
	m := hexPattern.FindStringSubmatch(strings.TrimSpace(hex))
	if m == nil {
		return "", fmt.Errorf("invalid hex color %q", hex)
	}
	digits := m[1]
	if len(digits) == 3 {
		digits = string([]byte{digits[0], digits[0], digits[1], digits[1], digits[2], digits[2]})
	}
	v, _ := strconv.ParseUint(digits, 16, 32)
	r := float64(v>>16&0xff) / 255
	g := float64(v>>8&0xff) / 255
	b := float64(v&0xff) / 255

	max := math.Max(r, math.Max(g, b))
	min := math.Min(r, math.Min(g, b))
	l := (max + min) / 2
	var h, s float64
	if max != min {
		d := max - min
		if l > 0.5 {
			s = d / (2 - max - min)
		} else {
			s = d / (max + min)
		}
		switch max {
		case r:
			h = (g - b) / d
			if g < b {
				h += 6
			}
		case g:
			h = (b-r)/d + 2
		default:
			h = (r-g)/d + 4
		}
		h /= 6
	}
	return fmt.Sprintf("%d %d%% %d%%", int(math.Round(h*360)), int(math.Round(s*100)), int(math.Round(l*100))), nil
}

// HSLToHex converts "H S% L%" into #rrggbb; unparsable input yields #000000.
func HSLToHex(hsl string) string {
	h, s, l, err := parseHSL(hsl)
	if err != nil {
		return "#000000"
	}
	h /= 360
	s /= 100
	l /= 100

	var r, g, b float64
	if s == 0 {
		r, g, b = l, l, l
	} else {
		q := l + s - l*s
		if l < 0.5 {
			q = l * (1 + s)
		}
		p := 2*l - q
		r = hueToRGB(p, q, h+1.0/3)
		g = hueToRGB(p, q, h)
		b = hueToRGB(p, q, h-1.0/3)
	}
	return fmt.Sprintf("#%02x%02x%02x", int(math.Round(r*255)), int(math.Round(g*255)), int(math.Round(b*255)))
}

// IsLight reports whether the color needs a dark foreground.
func IsLight(hsl string) bool {
	_, _, l, err := parseHSL(hsl)
	return err == nil && l > 50
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t++
	}
	if t > 1 {
		t--
	}
	switch {
	case t < 1.0/6:
		return p + (q-p)*6*t
	case t < 0.5:
		return q
	case t < 2.0/3:
		return p + (q-p)*(2.0/3-t)*6
	}
	return p
}

var numberPattern = regexp.MustCompile(`[\d.]+`)

func parseHSL(hsl string) (h, s, l float64, err error) {
	parts := numberPattern.FindAllString(hsl, -1)
	if len(parts) < 3 {
		return 0, 0, 0, fmt.Errorf("invalid hsl color %q", hsl)
	}
	values := make([]float64, 3)
	for i := range values {
		values[i], err = strconv.ParseFloat(parts[i], 64)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("invalid hsl color %q", hsl)
		}
	}
	return values[0], values[1], values[2], nil
}
