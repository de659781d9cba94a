package dashboard

// Row shapes of the backend's /dashboard/<widget>/ endpoints.

type TotalUsers struct {
	Total  int     `json:"total"`
	Growth float64 `json:"growth"`
}

type ActiveAuthor struct {
	Name     string `json:"name"`
	Role     string `json:"role"`
	Progress int    `json:"progress"`
	Trend    string `json:"trend"`
}

type NewDesignation struct {
	Title   string `json:"title"`
	Date    string `json:"date"`
	Company string `json:"company"`
	Color   string `json:"color"`
}

type NewUser struct {
	Name      string `json:"name"`
	Role      string `json:"role"`
	Emoji     string `json:"emoji"`
	TimeAdded string `json:"time_added"`
}

// NewUserRow is a NewUser with its relative time label resolved.
type NewUserRow struct {
	NewUser
	TimeLabel string `json:"time_label"`
}

type ProjectTask struct {
	Icon   string `json:"icon"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// ProjectProgress.Progress is nil when the backend has no figure yet.
type ProjectProgress struct {
	Name     string        `json:"name"`
	Progress *int          `json:"progress"`
	DueDays  int           `json:"due_days"`
	Tasks    []ProjectTask `json:"tasks"`
}

type CitySales struct {
	City  string  `json:"city"`
	Sales float64 `json:"sales"`
}

type TrafficSource struct {
	Name     string `json:"name"`
	Visitors int    `json:"visitors"`
}

type MonthlyActivity struct {
	Month       string `json:"month"`
	ActiveUsers int    `json:"active_users"`
	NewUsers    int    `json:"new_users"`
}

const (
	WidgetTotalUsers        = "total-users"
	WidgetActiveAuthors     = "active-authors"
	WidgetNewDesignations   = "new-designations"
	WidgetNewUsers          = "new-users"
	WidgetProjectProgress   = "project-progress"
	WidgetSalesDistribution = "sales-distribution"
	WidgetTrafficSources    = "traffic-sources"
	WidgetUserActivity      = "user-activity"
)
