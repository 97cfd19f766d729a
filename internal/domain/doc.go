// Package domain models smoke dispersion from agricultural burns and the
// PM2.5 health scale used to report it.
//
// # Estimation Model
//
// The estimator is a box model: a steady particulate release is mixed
// uniformly into a box whose cross-section is the plume width times the
// mixing height, and the box is carried along by the wind.
//
//	C = P / (U × W × b)
//
//	P  emission rate, mass per second
//	U  wind speed at 10 m, m/s
//	W  effective plume width, m
//	b  mixing (boundary-layer) height, m
//
// Burn area is entered in rai, the Thai land unit:
//
//	1 rai = 0.39525691699605 acre
//	1 acre = 4046.85642 m²
//
// The emission factor of 4e7 per unit area per day is pre-divided to a
// per-second rate and the release is spread over a nominal 24-hour burn,
// giving P = (4e7 / 86400) × area_m² / 86400. The plume width treats the
// square burn plot as a diagonal effective width, W = √area_m² × √2/2.
// The result of the division is in mg/m³ and is reported in µg/m³.
//
// Worked example: 100 rai, U = 2 m/s, b = 500 m gives about 3.03 µg/m³.
//
// # Health Scale
//
// Concentrations are classified with inclusive upper bounds:
//
//	≤ 12     ดีมาก               (very good)      green
//	≤ 35.4   ปานกลาง             (moderate)       goldenrod
//	≤ 55.4   เริ่มมีผลต่อสุขภาพ      (affects health) orange
//	≤ 150.4  ไม่ดี                (poor)           red
//	> 150.4  อันตราย              (hazardous)      purple
//
// A value exactly on a boundary falls into the lower bucket.
//
// # Meteorology
//
// Readings come from a [WeatherSource] for a single hour. Wind direction is
// the direction the wind blows from, in degrees. Required fields are
// pointers so a missing value is never confused with zero.
package domain
