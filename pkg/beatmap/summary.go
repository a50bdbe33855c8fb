package beatmap

// Summary is the flat description of a beatmap used by exports and the
// beatmap index.
type Summary struct {
	Artist        string `yaml:"artist" json:"artist"`
	Title         string `yaml:"title" json:"title"`
	Creator       string `yaml:"creator" json:"creator"`
	Version       string `yaml:"version" json:"version"`
	BeatmapID     int32  `yaml:"beatmap_id" json:"beatmap_id"`
	BeatmapSetID  int32  `yaml:"beatmap_set_id" json:"beatmap_set_id"`
	FormatVersion int32  `yaml:"format_version" json:"format_version"`
	AudioFilename string `yaml:"audio_filename" json:"audio_filename"`

	ApproachRate      float32 `yaml:"approach_rate" json:"approach_rate"`
	CircleSize        float32 `yaml:"circle_size" json:"circle_size"`
	HPDrain           float32 `yaml:"hp_drain" json:"hp_drain"`
	OverallDifficulty float32 `yaml:"overall_difficulty" json:"overall_difficulty"`
	SliderMultiplier  float64 `yaml:"slider_multiplier" json:"slider_multiplier"`
	SliderTickRate    float64 `yaml:"slider_tick_rate" json:"slider_tick_rate"`

	CircleCount  int   `yaml:"circles" json:"circles"`
	SliderCount  int   `yaml:"sliders" json:"sliders"`
	SpinnerCount int   `yaml:"spinners" json:"spinners"`
	LengthMs     int32 `yaml:"length_ms" json:"length_ms"`
	Warnings     int   `yaml:"warnings" json:"warnings"`
}

// Summary returns the summary of b.
func (b *Beatmap) Summary() Summary {
	d := b.Difficulty
	return Summary{
		Artist:            b.Artist,
		Title:             b.Title,
		Creator:           b.Creator,
		Version:           b.Version,
		BeatmapID:         b.BeatmapID,
		BeatmapSetID:      b.BeatmapSetID,
		FormatVersion:     b.FormatVersion,
		AudioFilename:     b.AudioFilename,
		ApproachRate:      d.ApproachRate,
		CircleSize:        d.CircleSize,
		HPDrain:           d.HPDrain,
		OverallDifficulty: d.OverallDifficulty,
		SliderMultiplier:  d.SliderMultiplier,
		SliderTickRate:    d.SliderTickRate,
		CircleCount:       b.CircleCount,
		SliderCount:       b.SliderCount,
		SpinnerCount:      b.SpinnerCount,
		LengthMs:          b.Length(),
		Warnings:          len(b.Warnings),
	}
}
