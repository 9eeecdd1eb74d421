package match

import "strings"

// noVisaPatterns mark postings that explicitly rule out visa sponsorship.
var noVisaPatterns = []string{
	"no visa sponsorship",
	"will not sponsor",
	"cannot sponsor",
	"not able to sponsor",
	"unable to sponsor",
	"does not sponsor",
	"won't sponsor",
	"not sponsor visa",
	"sponsorship not available",
	"sponsorship is not available",
	"no sponsorship",
	"must be authorized to work",
	"must have work authorization",
	"must have existing work authorization",
	"without sponsorship",
	"work authorization required",
}

// citizenshipPatterns mark postings restricted to US citizens. Clearance and
// export-control phrases are included because they imply citizenship in
// practice.
var citizenshipPatterns = []string{
	"us citizen",
	"u.s. citizen",
	"united states citizen",
	"american citizen",
	"citizenship required",
	"must be a citizen",
	"citizens only",
	"us nationals only",
	"u.s. nationals",
	"security clearance required",
	"secret clearance",
	"top secret clearance",
	"ts/sci clearance",
	"must be able to obtain security clearance",
	"us persons only",
	"u.s. persons only",
	"itar restricted",
	"export control",
}

// CheckEligibility decides whether a posting is open to international
// candidates. It scans the description for the first disqualifying phrase and
// returns it; an empty description passes. Runs before any scoring call so
// ineligible jobs never cost an API request.
func CheckEligibility(description string) (bool, string) {
	if description == "" {
		return true, ""
	}
	lower := strings.ToLower(description)
	for _, p := range noVisaPatterns {
		if strings.Contains(lower, p) {
			return false, "no visa sponsorship: " + p
		}
	}
	for _, p := range citizenshipPatterns {
		if strings.Contains(lower, p) {
			return false, "citizenship required: " + p
		}
	}
	return true, ""
}
