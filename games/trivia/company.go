/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package trivia

// Company is the profile served by GET /company. Only Name, Description and
// Rank are required; the rest is shown when the backend provides it.
type Company struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Rank        int    `json:"rank"`

	Ticker            string `json:"ticker,omitempty"`
	Year              int    `json:"year,omitempty"`
	Industry          string `json:"industry,omitempty"`
	Sector            string `json:"sector,omitempty"`
	HeadquartersCity  string `json:"headquarters_city,omitempty"`
	HeadquartersState string `json:"headquarters_state,omitempty"`
}

// Tier is the threshold table for this company.
func (c Company) Tier() Tier {
	return TierFor(c.Rank)
}

func (c Company) valid() bool {
	return c.Name != "" && c.Rank > 0
}
