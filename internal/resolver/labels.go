package resolver

// WeatherIcon returns the condition icon for a WMO weather code.
func WeatherIcon(code int) string {
	switch {
	case code == 0:
		return "☀️"
	case code <= 3:
		return "⛅"
	case code <= 48:
		return "🌫️"
	case code <= 67:
		return "🌧️"
	case code <= 77:
		return "🌨️"
	case code <= 82:
		return "🌦️"
	case code <= 99:
		return "⛈️"
	default:
		return "☁️"
	}
}

// WeatherLabel returns the Turkish condition label for a WMO weather code.
func WeatherLabel(code int) string {
	switch {
	case code == 0:
		return "Açık"
	case code == 1 || code == 2:
		return "Az bulutlu"
	case code == 3:
		return "Kapalı"
	case code == 45 || code == 48:
		return "Sisli"
	case code >= 51 && code <= 67:
		return "Yağmurlu"
	case code >= 71 && code <= 77:
		return "Karlı"
	case code >= 80 && code <= 82:
		return "Sağanak"
	case code == 85 || code == 86:
		return "Kar sağanağı"
	case isStorm(code):
		return "Fırtına"
	default:
		return "Değişken"
	}
}
