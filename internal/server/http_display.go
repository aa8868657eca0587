package server

import "fmt"

// displayServerInfo shows server configuration information
func (s *Server) displayServerInfo() {
	s.displayEndpoints()
	s.displayAuthInfo()
	s.displayRequestLimitInfo()
	s.displayRateLimitInfo()
}

// displayEndpoints shows available API endpoints
func (s *Server) displayEndpoints() {
	fmt.Println("Available endpoints:")
	fmt.Println("  GET    /health                                          - Health check")
	fmt.Println("  GET    /stats                                           - Server statistics")
	fmt.Println("  POST   /api/analyses                                    - Score a resume and create an analysis")
	fmt.Println("  GET    /api/analyses                                    - List analyses (paginated)")
	fmt.Println("  GET    /api/analyses/{id}                               - Fetch a full analysis")
	fmt.Println("  DELETE /api/analyses/{id}                               - Delete an analysis")
	fmt.Println("  GET    /api/analyses/{id}/summary                       - Condensed analysis view")
	fmt.Println("  POST   /api/analyses/{id}/versions                      - Add a revised resume version")
	fmt.Println("  POST   /api/analyses/{id}/complete                      - Mark an analysis completed")
	fmt.Println("  POST   /api/analyses/{id}/suggestions/{sid}/implement   - Mark a suggestion implemented")
	fmt.Println("  GET    /api/analyses/{id}/suggestions/high-priority     - Pending high-priority suggestions")
	fmt.Println("  GET    /api/usage                                       - Quota usage for the caller")
	fmt.Println("  GET    /api/analytics                                   - Aggregate analysis statistics")
}

// displayAuthInfo shows authentication configuration
func (s *Server) displayAuthInfo() {
	if len(s.APIKeys) > 0 {
		fmt.Printf("API authentication: ENABLED (%d keys configured)\n", len(s.APIKeys))
		fmt.Println("Include 'X-API-Key: <your-key>' header in requests to /api endpoints")
	} else {
		fmt.Println("API authentication: DISABLED (no API keys configured)")
		fmt.Println("WARNING: API endpoints are publicly accessible!")
	}
}

// displayRequestLimitInfo shows request size limit configuration
func (s *Server) displayRequestLimitInfo() {
	if s.MaxRequestSize > 0 {
		fmt.Printf("Request size limit: %d bytes (%.1f MB)\n", s.MaxRequestSize, float64(s.MaxRequestSize)/(1024*1024))
	} else {
		fmt.Println("Request size limit: DISABLED")
		fmt.Println("WARNING: No request size limits configured!")
	}
}

// displayRateLimitInfo shows rate limiting configuration
func (s *Server) displayRateLimitInfo() {
	if s.RateLimit != nil && s.RateLimit.Enabled {
		fmt.Printf("Rate limiting: ENABLED (%d requests/min, burst: %d)\n",
			s.RateLimit.RequestsPerMin, s.RateLimit.BurstCapacity)
		if s.RateLimit.ByUser {
			fmt.Println("  - Per user rate limiting enabled")
		}
		if s.RateLimit.ByAPIKey {
			fmt.Println("  - Per API key rate limiting enabled")
		}
		if s.RateLimit.ByIP {
			fmt.Println("  - Per IP address rate limiting enabled")
		}
	} else {
		fmt.Println("Rate limiting: DISABLED")
		fmt.Println("WARNING: No rate limiting configured!")
	}
}
