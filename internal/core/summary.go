package core

// Dashboard is the landing-page bundle.
type Dashboard struct {
	Members        DashboardMembers        `json:"members"`
	Reimbursements DashboardReimbursements `json:"reimbursements"`
	Events         DashboardEvents         `json:"events"`
	RecentActivity RecentActivity          `json:"recentActivity"`
}

type DashboardMembers struct {
	Total       int   `json:"total"`
	DuesOwed    Money `json:"duesOwed"`
	DuesPaid    Money `json:"duesPaid"`
	Outstanding Money `json:"outstanding"`
}

type DashboardReimbursements struct {
	Pending       int   `json:"pending"`
	PendingAmount Money `json:"pendingAmount"`
}

type DashboardEvents struct {
	Upcoming int `json:"upcoming"`
}

type RecentActivity struct {
	Payments       []Payment       `json:"payments"`
	Reimbursements []Reimbursement `json:"reimbursements"`
}

// DashboardMemberTotals sums dues across active members.
func DashboardMemberTotals(members []Member) DashboardMembers {
	var d DashboardMembers
	for _, m := range members {
		if m.Status != MemberActive {
			continue
		}
		d.Total++
		d.DuesOwed = d.DuesOwed.Add(m.DuesOwed)
		d.DuesPaid = d.DuesPaid.Add(m.DuesPaid)
		d.Outstanding = d.Outstanding.Add(m.OutstandingBalance)
	}
	return d
}
