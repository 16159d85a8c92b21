// Package plans holds the static plan-limit table. It is read-only
// configuration: the checker uses it to gate alerts and retention, the API
// uses it to gate monitor creation.
package plans

// Feature is a plan feature flag.
type Feature string

// Plan features
const (
	FeatureEmailAlerts    Feature = "email_alerts"
	FeatureWebhookAlerts  Feature = "webhook_alerts"
	FeatureCustomBranding Feature = "custom_branding"
	FeatureSSLMonitoring  Feature = "ssl_monitoring"
	FeatureCustomDomain   Feature = "custom_domain"
	FeatureTeamMembers    Feature = "team_members"
	FeatureAPIAccess      Feature = "api_access"
)

// Limits describes what a plan tier allows.
type Limits struct {
	MaxMonitors      int
	MinCheckInterval int // seconds
	RetentionHours   int
	Features         map[Feature]bool
}

// Has reports whether the plan includes the given feature.
func (l Limits) Has(f Feature) bool {
	return l.Features[f]
}

var planLimits = map[string]Limits{
	"free": {
		MaxMonitors:      5,
		MinCheckInterval: 300,
		RetentionHours:   24,
		Features: map[Feature]bool{
			FeatureEmailAlerts: true,
		},
	},
	"pro": {
		MaxMonitors:      50,
		MinCheckInterval: 60,
		RetentionHours:   90 * 24,
		Features: map[Feature]bool{
			FeatureEmailAlerts:    true,
			FeatureWebhookAlerts:  true,
			FeatureCustomBranding: true,
			FeatureSSLMonitoring:  true,
		},
	},
	"business": {
		MaxMonitors:      999999, // effectively unlimited
		MinCheckInterval: 30,
		RetentionHours:   365 * 24,
		Features: map[Feature]bool{
			FeatureEmailAlerts:    true,
			FeatureWebhookAlerts:  true,
			FeatureCustomBranding: true,
			FeatureSSLMonitoring:  true,
			FeatureCustomDomain:   true,
			FeatureTeamMembers:    true,
			FeatureAPIAccess:      true,
		},
	},
}

// ForPlan returns the limits for a plan tier. Unknown tiers fall back to
// the free plan.
func ForPlan(plan string) Limits {
	if limits, ok := planLimits[plan]; ok {
		return limits
	}
	return planLimits["free"]
}
