package export

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"carbon-offset/offset-portal/offset-portal-backend/internal/planner"
)

// SupportedLanguages lists the summary languages, default first
var SupportedLanguages = []language.Tag{language.English, language.Hindi}

var languageMatcher = language.NewMatcher(SupportedLanguages)

const (
	msgTitle      = "Offset plan for %s (%s, %s)"
	msgTarget     = "Annual offset target: %.2f tonnes CO2"
	msgTrees      = "Trees required: %d (teak %d, acacia %d, pioneer %d)"
	msgBudget     = "Estimated budget: INR %.0f"
	msgLand       = "Land required: %.2f ha of %.2f ha available (%s)"
	msgCredits    = "Carbon credit revenue potential: INR %.0f"
	msgWater      = "Water conserved: %.0f kL per year"
	msgSimulated  = "This plan is simulated and not derived from site data."
	msgWarningFmt = "Warning: %s"
)

func init() {
	hi := language.Hindi
	message.SetString(hi, msgTitle, "%s के लिए ऑफसेट योजना (%s, %s)")
	message.SetString(hi, msgTarget, "वार्षिक ऑफसेट लक्ष्य: %.2f टन CO2")
	message.SetString(hi, msgTrees, "आवश्यक पेड़: %d (सागौन %d, बबूल %d, अग्रणी प्रजातियाँ %d)")
	message.SetString(hi, msgBudget, "अनुमानित बजट: INR %.0f")
	message.SetString(hi, msgLand, "आवश्यक भूमि: %.2f हेक्टेयर, उपलब्ध %.2f हेक्टेयर (%s)")
	message.SetString(hi, msgCredits, "कार्बन क्रेडिट से संभावित आय: INR %.0f")
	message.SetString(hi, msgWater, "जल संरक्षण: %.0f किलोलीटर प्रति वर्ष")
	message.SetString(hi, msgSimulated, "यह योजना सिम्युलेटेड है और साइट डेटा पर आधारित नहीं है।")
	message.SetString(hi, msgWarningFmt, "चेतावनी: %s")
}

// ParseLanguage picks the closest supported summary language for a tag such
// as "hi" or "en-IN". Unknown or empty tags fall back to English.
func ParseLanguage(tag string) language.Tag {
	if tag == "" {
		return language.English
	}
	desired, err := language.Parse(tag)
	if err != nil {
		return language.English
	}
	_, idx, _ := languageMatcher.Match(desired)
	return SupportedLanguages[idx]
}

// Summarize renders a short plain-text summary of the plan in lang
func Summarize(plan *planner.OffsetPlan, lang language.Tag) string {
	p := message.NewPrinter(lang)
	k := plan.KPIs
	t := plan.TreePlan

	lines := []string{
		p.Sprintf(msgTitle, plan.Metadata.MineName, plan.Metadata.District, plan.Metadata.State),
		p.Sprintf(msgTarget, k.AnnualOffsetTargetTonnes),
		p.Sprintf(msgTrees, k.TotalTreesRequired, t.Teak.Count, t.Acacia.Count, t.Pioneer.Count),
		p.Sprintf(msgBudget, k.EstimatedBudgetINR),
		p.Sprintf(msgLand, k.LandRequiredHa, k.LandAvailableHa, k.LandStatus),
		p.Sprintf(msgCredits, plan.CarbonCredits.TotalRevenuePotentialINR),
		p.Sprintf(msgWater, plan.WaterConservation.TotalWaterConservedKilolitres),
	}
	for _, w := range plan.Metadata.Warnings {
		lines = append(lines, p.Sprintf(msgWarningFmt, w))
	}
	if plan.Metadata.Status == planner.StatusSimulation {
		lines = append(lines, p.Sprintf(msgSimulated))
	}
	return strings.Join(lines, "\n") + "\n"
}
