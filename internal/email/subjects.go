package email

const (
	subjectLeadReceivedFmt        = "New lead: %s"
	subjectLeadAssignedFmt        = "New lead assigned: %s"
	subjectSubscriptionChangedFmt = "Your subscription was %s"
)
