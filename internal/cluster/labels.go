package cluster

// interpretCluster maps a cluster's mean feature values to a mood label.
// Rules are checked in order; the first match wins. Thresholds apply to
// cluster means, not individual tracks, so a cluster can be "Energetic &
// Happy" while containing the odd mellow outlier.
func interpretCluster(means map[string]float64) string {
	energy := means["energy"]
	valence := means["valence"]
	dance := means["danceability"]
	acoustic := means["acousticness"]

	switch {
	case energy > 0.6 && valence > 0.6 && dance > 0.6:
		return "Energetic & Happy"
	case energy > 0.6 && valence < 0.4:
		return "Intense & Dark"
	case energy < 0.4 && valence > 0.6:
		return "Calm & Peaceful"
	case energy < 0.4 && valence < 0.4:
		return "Melancholic"
	case dance > 0.7:
		return "Party & Dance"
	case acoustic > 0.6:
		return "Acoustic & Mellow"
	}
	return "Balanced & Versatile"
}
