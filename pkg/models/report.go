package models

// Report summarizes one reconciliation run. Callers may assert on these
// counts; they are part of the driver's contract, not just log output.
type Report struct {
	PrimaryCount     int `json:"primary_count"`
	SecondaryCount   int `json:"secondary_count"`
	DroppedPrimary   int `json:"dropped_primary"`
	DroppedSecondary int `json:"dropped_secondary"`
	IDMerges         int `json:"id_merges"`
	FuzzyMerges      int `json:"fuzzy_merges"`
	NoIdentityCount  int `json:"no_identity_count"`
	OutputCount      int `json:"output_count"`
}
