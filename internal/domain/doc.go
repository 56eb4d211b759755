// Package domain models weather readings for the 81 Turkish provinces.
//
// # Identity
//
// A province is identified solely by its plate code, a zero-padded two-digit
// string from "01" to "81". Upstream payloads sometimes carry the code as a
// number or without padding ("6" for Ankara); [NormalizeCode] maps both forms
// to the canonical key. Names are display data only and never used as keys
// inside this package.
//
// # Data Source
//
// Readings come from the weather backend:
//
//	GET /api/weather/snapshot?date=YYYY-MM-DD&time=HH:MM
//	    one reading per province for a single date-time
//	GET /api/weather?province=NN&start_date=...&end_date=...&hourly=true
//	    hourly and daily series for one province
//	GET /api/provinces
//	    the static province catalog
//
// Weather codes follow the WMO interpretation used by Open-Meteo:
//
//	0       clear sky
//	1-3     mainly clear, partly cloudy, overcast
//	45,48   fog
//	51-67   drizzle and rain
//	71-77   snow
//	80-82   rain showers
//	85,86   snow showers
//	95-99   thunderstorm
//
// # Time Conventions
//
// Dates use "YYYY-MM-DD" and wall-clock times use "HH:MM" in the reference
// timezone (Europe/Istanbul by default). "Today" and "now" are always computed
// in the reference timezone through a [Clock], never from the host's local zone.
// Hourly series timestamps are "YYYY-MM-DDTHH:MM" or "YYYY-MM-DDTHH:MM:SS".
//
// # Coverage
//
// A snapshot may not contain every province. Coverage is resolved/expected,
// where expected is the server-reported total when positive and the catalog
// size otherwise. Entries with a missing code or a non-numeric temperature are
// dropped before a [Snapshot] is built.
package domain
