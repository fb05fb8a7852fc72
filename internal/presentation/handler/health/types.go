package health

// healthResponse represents the health status of the API
type healthResponse struct {
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	Uptime      string `json:"uptime"`
	Connections int    `json:"connections"`
}
