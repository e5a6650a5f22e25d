package evolve

// Summary condenses one ranked generation.
type Summary struct {
	Size  int
	Best  float64
	Mean  float64
	Worst float64
}

// Summarize expects evaluations ranked by descending score, as Evaluate
// returns them.
func Summarize(evaluated []Evaluation) Summary {
	if len(evaluated) == 0 {
		return Summary{}
	}
	s := Summary{
		Size:  len(evaluated),
		Best:  evaluated[0].Score,
		Worst: evaluated[len(evaluated)-1].Score,
	}
	for _, e := range evaluated {
		s.Mean += e.Score
	}
	s.Mean /= float64(len(evaluated))
	return s
}
