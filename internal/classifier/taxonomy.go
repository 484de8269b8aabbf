package classifier

// Level1 is a top-level feedback category.
type Level1 string

const (
	L1ProductFeedback    Level1 = "Product Feedback (Feature/Functionality)"
	L1CustomerExperience Level1 = "Customer Experience (CX) & Support"
	L1TechnicalIssues    Level1 = "Technical Issues / Bugs"
	L1TrustSecurity      Level1 = "Trust, Security, and Transparency"
	L1Onboarding         Level1 = "Onboarding and Account Setup"
	L1Payments           Level1 = "Payments and Cash Out"
	L1Notifications      Level1 = "Notifications and Communication"
	L1GeneralSentiment   Level1 = "General Sentiment"
	L1NonRelevant        Level1 = "Non-relevant or Ambiguous"
)

// Level2 is a second-level feedback category. Each Level2 maps to exactly
// one destination Slack channel.
type Level2 string

const (
	L2CashOut           Level2 = "Cash Out"
	L2BalanceShield     Level2 = "Balance Shield"
	L2EarninCard        Level2 = "EarnIn Card / Tip Jar"
	L2LightningSpeed    Level2 = "Lightning Speed / Transfer Mechanism"
	L2InsightsTools     Level2 = "Insights & Financial Tools"
	L2BankConnections   Level2 = "Bank Connections"
	L2Notifications     Level2 = "Notifications & Reminders"
	L2AppUXPerformance  Level2 = "App UX / Performance"
	L2CustomerSupport   Level2 = "Customer Support"
	L2SecurityComplianc Level2 = "Security / Compliance"
	L2NonRelevant       Level2 = "Non-relevant or Ambiguous"
)

// Taxonomy is the immutable keyword/channel configuration the classifier
// scores against. Built once at startup; inject an alternate one in tests.
type Taxonomy struct {
	// Level1Order fixes the scoring iteration order and therefore the
	// tie-break priority between equally scored categories.
	Level1Order    []Level1
	Level1Keywords map[Level1][]string

	Level2Order    []Level2
	Level2Keywords map[Level2][]string
	// ValidLevel2 restricts which Level2 categories may be chosen under a
	// given Level1.
	ValidLevel2 map[Level1][]Level2
	// DefaultLevel2 is the fallback when no Level2 keyword clears the
	// threshold.
	DefaultLevel2 map[Level1]Level2

	// Channels maps Level2 to the destination Slack channel ID. A missing
	// entry or empty string means "do not publish".
	Channels map[Level2]string

	PositiveKeywords []string
	NegativeKeywords []string
	// ProblemPhrases force negative sentiment when present, regardless of
	// surrounding positive language. Treated as configuration.
	ProblemPhrases []string

	// HighSignalTerms get a x2.0 keyword weight boost, ProblemTerms x1.5.
	HighSignalTerms map[string]struct{}
	ProblemTerms    map[string]struct{}
}

// DefaultTaxonomy returns the production taxonomy: the fixed two-level
// EarnIn feedback categories, their keyword lists and the Level2 to Slack
// channel routing table. Cash Out and Balance Shield deliberately share the
// cashout-experience channel.
func DefaultTaxonomy() *Taxonomy {
	return &Taxonomy{
		Level1Order: []Level1{
			L1Payments,
			L1TechnicalIssues,
			L1TrustSecurity,
			L1CustomerExperience,
			L1Onboarding,
			L1ProductFeedback,
			L1Notifications,
		},
		Level1Keywords: map[Level1][]string{
			L1Payments: {
				"cash out", "cashout", "instant cash", "transfer", "withdraw", "deposit",
				"fee", "fees", "cost", "charge", "payment", "balance", "funds",
				"not able to cashout", "unable to cashout", "cashout issue", "cashout problem",
			},
			L1ProductFeedback: {
				"feature", "functionality", "tip jar", "earnin card", "insights", "analytics",
				"financial tools", "interface", "ui", "ux", "design", "navigation",
				"product", "earnin product",
			},
			L1TechnicalIssues: {
				"bug", "error", "crash", "freeze", "slow", "loading", "connection", "network",
				"technical", "issue", "problem", "broken", "not working", "glitch",
			},
			L1CustomerExperience: {
				"support", "help", "customer service", "assistance", "response", "wait time",
				"experience", "satisfaction", "frustrated", "confused", "unclear", "customer support",
			},
			L1TrustSecurity: {
				"security", "privacy", "trust", "safe", "secure", "personal information",
				"fraud", "scam", "suspicious", "identity", "security features", "exposed",
			},
			L1Onboarding: {
				"sign up", "signup", "register", "account setup", "verification", "setup",
				"onboarding", "bank account", "verify", "document", "bank connection", "kyc",
			},
			L1Notifications: {
				"notification", "alert", "reminder", "email", "sms", "push",
				"communication", "newsletter",
			},
		},
		Level2Order: []Level2{
			L2CashOut,
			L2BalanceShield,
			L2LightningSpeed,
			L2EarninCard,
			L2InsightsTools,
			L2BankConnections,
			L2AppUXPerformance,
			L2CustomerSupport,
			L2SecurityComplianc,
			L2Notifications,
		},
		Level2Keywords: map[Level2][]string{
			L2CashOut: {
				"cash out", "cashout", "instant cash", "withdraw", "transfer money",
				"fee", "fees", "cost", "charge", "fast", "slow", "delay",
				"not able to cashout", "unable to cashout", "cashout issue", "cashout problem",
			},
			L2BalanceShield: {
				"balance shield", "shield", "overdraft",
			},
			L2EarninCard: {
				"earnin card", "tip jar", "tips", "card", "debit", "spending", "tip", "jar",
			},
			L2LightningSpeed: {
				"lightning speed", "instant", "fast transfer", "quick", "speed", "delay",
			},
			L2InsightsTools: {
				"insights", "analytics", "financial tools", "spending", "budget", "tracking",
			},
			L2BankConnections: {
				"bank", "account", "connect", "link", "verification", "plaid", "connection", "connecting",
			},
			L2AppUXPerformance: {
				"app", "interface", "ui", "ux", "navigation", "crash", "slow", "performance", "confusing",
			},
			L2CustomerSupport: {
				"support", "help", "customer service", "assistance", "response", "customer support",
			},
			L2SecurityComplianc: {
				"security", "privacy", "safe", "secure", "fraud", "verification", "security features",
			},
			L2Notifications: {
				"notification", "alert", "reminder", "email", "sms", "push",
			},
		},
		ValidLevel2: map[Level1][]Level2{
			L1Payments:           {L2CashOut, L2LightningSpeed, L2BalanceShield},
			L1TechnicalIssues:    {L2AppUXPerformance},
			L1TrustSecurity:      {L2SecurityComplianc},
			L1CustomerExperience: {L2CustomerSupport},
			L1Onboarding:         {L2BankConnections},
			L1ProductFeedback:    {L2AppUXPerformance, L2EarninCard, L2InsightsTools},
			L1Notifications:      {L2Notifications},
		},
		DefaultLevel2: map[Level1]Level2{
			L1Payments:           L2CashOut,
			L1ProductFeedback:    L2AppUXPerformance,
			L1TechnicalIssues:    L2AppUXPerformance,
			L1CustomerExperience: L2CustomerSupport,
			L1TrustSecurity:      L2SecurityComplianc,
			L1Onboarding:         L2BankConnections,
			L1Notifications:      L2Notifications,
		},
		Channels: map[Level2]string{
			L2CashOut:           "C09LBDF1MT8", // help-cashout-experience
			L2BalanceShield:     "C09LBDF1MT8", // help-cashout-experience (shared on purpose)
			L2EarninCard:        "C09L73ZDGSF", // help-earnin-card
			L2LightningSpeed:    "C09L740CY0K", // help-money-movement
			L2InsightsTools:     "C09L74151R9", // help-analytics
			L2BankConnections:   "C09LA2A5HUM", // help-edx-accountverification
			L2Notifications:     "C09LDGARC9Y", // help-marketing
			L2AppUXPerformance:  "C09LA2F4S05", // help-performance-ux
			L2CustomerSupport:   "C09M7Q7SC0Y", // help-cx
			L2SecurityComplianc: "C09LSD9UG2D", // help-security
			L2NonRelevant:       "",
		},
		PositiveKeywords: []string{
			"love", "great", "awesome", "amazing", "perfect", "excellent", "good",
			"thanks", "thank you", "wonderful", "fantastic", "brilliant", "outstanding",
			"helpful", "useful", "satisfied", "happy", "pleased", "impressed",
			"recommend", "best", "exceeded", "delighted",
		},
		NegativeKeywords: []string{
			"hate", "terrible", "awful", "horrible", "bad", "worst", "disappointed",
			"frustrated", "angry", "annoyed", "upset", "disgusted", "displeased",
			"broken", "bug", "error", "issue", "problem", "complaint", "concern",
			"unhappy", "unsatisfied", "poor", "fail", "failed", "failure",
			"slow", "crashed", "freeze", "glitch", "malfunction", "defective",
		},
		ProblemPhrases: []string{
			"not working", "not getting", "not able to", "cannot", "can't", "unable to",
			"couldn't", "could not", "not receiving", "not processing", "not loading",
			"not responding", "not functioning", "not accessible", "not available",
			"not connecting", "not syncing", "not updating", "not sending",
			"not displaying", "not showing",
		},
		HighSignalTerms: map[string]struct{}{
			"cashout":        {},
			"cash out":       {},
			"instant cash":   {},
			"withdraw":       {},
			"transfer money": {},
		},
		ProblemTerms: map[string]struct{}{
			"issue":       {},
			"problem":     {},
			"bug":         {},
			"error":       {},
			"broken":      {},
			"not working": {},
		},
	}
}
