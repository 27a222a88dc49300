package render

import "image/color"

// Theme represents a color scheme for the editor canvas.
type Theme int

const (
	// ThemeLight is a light background theme
	ThemeLight Theme = iota
	// ThemeDark is a dark background theme
	ThemeDark
)

// ParseTheme maps a config name to a Theme. Unknown names give ThemeLight.
func ParseTheme(name string) Theme {
	if name == "dark" {
		return ThemeDark
	}
	return ThemeLight
}

// Colors defines the colors used to draw the canvas.
type Colors struct {
	Background color.NRGBA
	Grid       color.NRGBA

	Wire        color.NRGBA
	PendingWire color.NRGBA

	Body       color.NRGBA
	BodyFill   color.NRGBA
	Symbol     color.NRGBA
	Text       color.NRGBA
	Port       color.NRGBA
	PortLinked color.NRGBA
	PortHover  color.NRGBA

	Selection color.NRGBA
	Power     color.NRGBA // accent for power sources
	LampOn    color.NRGBA
}

// ColorsFor returns the color scheme for the given theme.
func ColorsFor(theme Theme) *Colors {
	if theme == ThemeDark {
		return darkColors()
	}
	return lightColors()
}

func lightColors() *Colors {
	return &Colors{
		Background:  color.NRGBA{R: 250, G: 250, B: 250, A: 255},
		Grid:        color.NRGBA{R: 225, G: 225, B: 225, A: 255},
		Wire:        color.NRGBA{R: 0, G: 100, B: 200, A: 255},
		PendingWire: color.NRGBA{R: 0, G: 100, B: 200, A: 140},
		Body:        color.NRGBA{R: 60, G: 60, B: 60, A: 255},
		BodyFill:    color.NRGBA{R: 255, G: 255, B: 255, A: 255},
		Symbol:      color.NRGBA{R: 30, G: 30, B: 30, A: 255},
		Text:        color.NRGBA{R: 80, G: 80, B: 80, A: 255},
		Port:        color.NRGBA{R: 200, G: 60, B: 60, A: 255},
		PortLinked:  color.NRGBA{R: 40, G: 160, B: 70, A: 255},
		PortHover:   color.NRGBA{R: 255, G: 170, B: 0, A: 255},
		Selection:   color.NRGBA{R: 33, G: 150, B: 243, A: 255},
		Power:       color.NRGBA{R: 230, G: 120, B: 20, A: 255},
		LampOn:      color.NRGBA{R: 255, G: 235, B: 120, A: 255},
	}
}

func darkColors() *Colors {
	return &Colors{
		Background:  color.NRGBA{R: 30, G: 30, B: 34, A: 255},
		Grid:        color.NRGBA{R: 48, G: 48, B: 54, A: 255},
		Wire:        color.NRGBA{R: 90, G: 170, B: 255, A: 255},
		PendingWire: color.NRGBA{R: 90, G: 170, B: 255, A: 140},
		Body:        color.NRGBA{R: 200, G: 200, B: 200, A: 255},
		BodyFill:    color.NRGBA{R: 45, G: 45, B: 52, A: 255},
		Symbol:      color.NRGBA{R: 235, G: 235, B: 235, A: 255},
		Text:        color.NRGBA{R: 180, G: 180, B: 180, A: 255},
		Port:        color.NRGBA{R: 240, G: 90, B: 90, A: 255},
		PortLinked:  color.NRGBA{R: 80, G: 200, B: 110, A: 255},
		PortHover:   color.NRGBA{R: 255, G: 190, B: 40, A: 255},
		Selection:   color.NRGBA{R: 100, G: 180, B: 255, A: 255},
		Power:       color.NRGBA{R: 255, G: 150, B: 50, A: 255},
		LampOn:      color.NRGBA{R: 180, G: 160, B: 40, A: 255},
	}
}
