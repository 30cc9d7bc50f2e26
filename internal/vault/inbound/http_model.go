package inbound

import (
	"net/http"
	"time"
)

type HealthResponse struct {
	Status string `json:"status"`
}

func (HealthResponse) Message() string { return "Service is healthy" }

type SiteResponse struct {
	Name string `json:"name"`
}

type ListSitesResponse struct {
	Sites []SiteResponse `json:"sites"`

	page, size, total int
}

func (r ListSitesResponse) Meta() map[string]any {
	return map[string]any{"page": r.page, "size": r.size, "total": r.total}
}

type CodeResponse struct {
	SiteName         string    `json:"site_name"`
	Code             string    `json:"code"`
	RemainingSeconds int       `json:"remaining_seconds"`
	GeneratedAt      time.Time `json:"generated_at"`
}

type AddSiteRequest struct {
	SiteName string `json:"site_name"`
	Secret   string `json:"secret"`
}

type AddSiteResponse struct {
	Name string `json:"name"`
}

func (AddSiteResponse) StatusCode() int { return http.StatusCreated }

func (AddSiteResponse) Message() string { return "Site has been added" }

type GenerateSecretResponse struct {
	SiteName string `json:"site_name"`
	Secret   string `json:"secret"`
	URI      string `json:"uri"`
}

func (GenerateSecretResponse) StatusCode() int { return http.StatusCreated }

func (GenerateSecretResponse) Message() string { return "Secret has been generated" }

type DeleteSiteResponse struct{}

func (DeleteSiteResponse) StatusCode() int { return http.StatusNoContent }
