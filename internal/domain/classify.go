package domain

// Classification is a PM2.5 health category. Color is a semantic display
// token, not a pixel value.
type Classification struct {
	Code  string `json:"code"`
	Label string `json:"label"`
	Color string `json:"color"`
}

// Band is one row of the health scale with the display range shown in legends.
type Band struct {
	Classification
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
	UpperBound float64 `json:"-"` // inclusive; unused for the last band
}

var (
	LevelVeryGood      = Classification{Code: "very_good", Label: "ดีมาก", Color: "green"}
	LevelModerate      = Classification{Code: "moderate", Label: "ปานกลาง", Color: "goldenrod"}
	LevelAffectsHealth = Classification{Code: "affects_health", Label: "เริ่มมีผลต่อสุขภาพ", Color: "orange"}
	LevelPoor          = Classification{Code: "poor", Label: "ไม่ดี", Color: "red"}
	LevelHazardous     = Classification{Code: "hazardous", Label: "อันตราย", Color: "purple"}
)

var bands = []Band{
	{Classification: LevelVeryGood, Min: 0, Max: 12, UpperBound: 12},
	{Classification: LevelModerate, Min: 12.1, Max: 35.4, UpperBound: 35.4},
	{Classification: LevelAffectsHealth, Min: 35.5, Max: 55.4, UpperBound: 55.4},
	{Classification: LevelPoor, Min: 55.5, Max: 150.4, UpperBound: 150.4},
	{Classification: LevelHazardous, Min: 150.5, Max: 500},
}

// Classify maps a concentration in µg/m³ to its health category.
// Bounds are inclusive, so 12 is very good and 12.01 is moderate.
func Classify(ugM3 float64) Classification {
	for _, b := range bands[:len(bands)-1] {
		if ugM3 <= b.UpperBound {
			return b.Classification
		}
	}
	return LevelHazardous
}

// Levels returns the health scale in ascending order for legends.
func Levels() []Band {
	out := make([]Band, len(bands))
	copy(out, bands)
	return out
}
