package models

import "time"

// PodCredits is the reward score for a pNode, sourced from the external
// credits ledger and keyed by pubkey.
type PodCredits struct {
	Pubkey        string    `json:"pubkey" bson:"pubkey"`
	Credits       int64     `json:"credits" bson:"credits"`
	Network       string    `json:"network" bson:"network"`
	Rank          int       `json:"rank,omitempty" bson:"rank,omitempty"`
	CreditsChange int64     `json:"credits_change,omitempty" bson:"credits_change,omitempty"`
	LastUpdated   time.Time `json:"last_updated" bson:"last_updated"`
}

// PodCreditsResponse is the wire shape of the credits API.
type PodCreditsResponse struct {
	PodsCredits []PodCreditsEntry `json:"pods_credits"`
	Status      string            `json:"status"`
}

type PodCreditsEntry struct {
	PodID   string `json:"pod_id"`
	Credits int64  `json:"credits"`
}

// Validate rejects payloads that do not match the credits API contract.
func (cr *PodCreditsResponse) Validate() error {
	if cr.Status == "" {
		return errMissingField("status")
	}
	if cr.PodsCredits == nil {
		return errMissingField("pods_credits")
	}
	return nil
}
