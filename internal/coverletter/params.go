package coverletter

// SamplingParams are the completion parameters derived from the style sliders
type SamplingParams struct {
	Temperature     float64
	PresencePenalty float64
}

// DeriveParams maps inventiveness onto temperature [0.3, 1.0] and humor onto presence penalty [0, 0.5]
func DeriveParams(inventiveness, humor int) SamplingParams {
	return SamplingParams{
		Temperature:     0.3 + (float64(inventiveness)/100)*0.7,
		PresencePenalty: (float64(humor) / 100) * 0.5,
	}
}
