package models

// DashboardStats are the counters shown on the front desk dashboard for one day.
type DashboardStats struct {
	Date               string  `json:"date"`
	TotalPatientsToday int     `json:"total_patients_today"`
	PendingPatients    int     `json:"pending_patients"`
	CompletedToday     int     `json:"completed_today"`
	RevenueToday       float64 `json:"revenue_today"`
}
