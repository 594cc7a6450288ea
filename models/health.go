package models

type HealthGetResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}
