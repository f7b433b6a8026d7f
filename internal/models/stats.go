package models

// GlobalStats is the rollup over a visible set of cells.
type GlobalStats struct {
	UserCount  int `json:"userCount" yaml:"user_count"`
	TotalHours int `json:"totalHours" yaml:"total_hours"` // primary metric / 60, rounded
	AvgMin     int `json:"avgMin" yaml:"avg_min"`         // primary metric per user, rounded
	TotalBinge int `json:"totalBinge" yaml:"total_binge"`
}

// CategoryStats is the rollup of one category column.
type CategoryStats struct {
	Category     string  `json:"category" yaml:"category"`
	Label        string  `json:"label" yaml:"label"`
	Cells        int     `json:"cells" yaml:"cells"`
	Minutes      float64 `json:"minutes" yaml:"minutes"`
	BingeCount   int     `json:"binge_count" yaml:"binge_count"`
	Completed    int     `json:"completed" yaml:"completed"`
	Recommended  int     `json:"recommended" yaml:"recommended"`
	ShareOfTotal float64 `json:"share_of_total" yaml:"share_of_total"`
}

// Spread describes the distribution of per-user minutes.
type Spread struct {
	Users  int     `json:"users" yaml:"users"`
	Mean   float64 `json:"mean" yaml:"mean"`
	StdDev float64 `json:"std_dev" yaml:"std_dev"`
	Min    float64 `json:"min" yaml:"min"`
	Max    float64 `json:"max" yaml:"max"`
}
