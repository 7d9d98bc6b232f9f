package scoring

// Classify maps a total score to a tier by walking the tier table in
// ascending order and returning the first band whose MaxScore is >= total.
// Bounds are inclusive, so a score on a boundary lands in the lower band.
// Scores above every bound land in the last (terminal) band.
//
// An empty table yields the zero Tier; Validate rejects such configurations.
func Classify(total Points, cfg *Configuration) Tier {
	t := cfg.TierThresholds
	i := band(len(t), func(i int) *Points { return t[i].MaxScore }, total)
	if i < 0 {
		return Tier{}
	}
	return Tier{
		Label:    t[i].Tier,
		Color:    t[i].Color,
		Rank:     i,
		Terminal: i == len(t)-1,
	}
}
