package coverletter

// Band is the qualitative range a slider value falls into
type Band int

const (
	BandLow Band = iota
	BandModerate
	BandHigh
)

func (b Band) String() string {
	switch b {
	case BandLow:
		return "low"
	case BandModerate:
		return "moderate"
	default:
		return "high"
	}
}

// BandFor compares numerically: 0-29 low, 30-69 moderate, 70 and above high
func BandFor(value int) Band {
	switch {
	case value < 30:
		return BandLow
	case value < 70:
		return BandModerate
	default:
		return BandHigh
	}
}

var inventivenessDirectives = map[Band]string{
	BandLow:      "Keep it traditional and straightforward",
	BandModerate: "Add some creative elements while maintaining professionalism",
	BandHigh:     "Feel free to be innovative and unique",
}

var humorDirectives = map[Band]string{
	BandLow:      "Keep it strictly professional",
	BandModerate: "Add subtle wit where appropriate",
	BandHigh:     "Can include light humor and playful elements",
}

func InventivenessDirective(value int) string {
	return inventivenessDirectives[BandFor(value)]
}

func HumorDirective(value int) string {
	return humorDirectives[BandFor(value)]
}
