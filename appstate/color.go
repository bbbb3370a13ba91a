package appstate

import (
	"fmt"
	"math"
	"strconv"
)

func clamp(v float64) float64 {
	return math.Min(255, math.Max(0, v))
}

// TempToColor maps a color temperature in kelvin to a CSS rgb() string.
func TempToColor(kelvin float64) string {
	kelvin /= 100
	var red, green, blue float64
	if kelvin <= 66 {
		red = 255
		green = clamp(99.4708025861*math.Log(kelvin) - 161.1195681661)
		if kelvin <= 19 {
			blue = 0
		} else {
			blue = clamp(138.5177312231*math.Log(kelvin-10) - 305.0447927307)
		}
	} else {
		red = clamp(329.698727446 * math.Pow(kelvin-60, -0.1332047592))
		green = clamp(288.1221695283 * math.Pow(kelvin-60, -0.0755148492))
		blue = 255
	}
	return fmt.Sprintf("rgb(%s, %s, %s)", formatChannel(red), formatChannel(green), formatChannel(blue))
}

func formatChannel(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
