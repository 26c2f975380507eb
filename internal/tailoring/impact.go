package tailoring

// Thresholds for EstimateImpact.
const (
	highMatchScore      = 80
	highChangeCount     = 5
	highATSScore        = 85
	highMatchedKeywords = 10
	lowMatchScore       = 60
	lowChangeCount      = 3
	lowATSScore         = 70
)

// EstimateImpact maps tailoring metrics to an impact level. The function is
// pure so the same inputs always yield the same level, regardless of what
// the model claimed.
func EstimateImpact(matchScore float64, changeCount, matchedKeywords int, atsScore float64) string {
	if matchScore >= highMatchScore &&
		(changeCount >= highChangeCount || atsScore >= highATSScore) &&
		matchedKeywords >= highMatchedKeywords {
		return ImpactHigh
	}
	if matchScore < lowMatchScore || (changeCount < lowChangeCount && atsScore < lowATSScore) {
		return ImpactLow
	}
	return ImpactMedium
}
