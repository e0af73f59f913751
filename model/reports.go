package model

// LeadQualityReport counts applications by derived lead quality. The three
// buckets always sum to Total because the derivation is a total function.
type LeadQualityReport struct {
	Good     int `json:"good"`
	Average  int `json:"average"`
	Rejected int `json:"rejected"`
	Total    int `json:"total"`
}

// KYCReport summarizes KYC completion across stored applications.
type KYCReport struct {
	Completed      int     `json:"completed"`
	Pending        int     `json:"pending"`
	VKYCDone       int     `json:"vkyc_done"`
	CardApproved   int     `json:"card_approved"`
	Total          int     `json:"total"`
	CompletionRate float64 `json:"completion_rate"`
}

// FunnelStage is one checkpoint of the conversion funnel. At counts records
// currently at the stage; Reached counts records at or beyond its rank.
type FunnelStage struct {
	Stage   string `json:"stage"`
	Rank    int    `json:"rank"`
	At      int    `json:"at"`
	Reached int    `json:"reached"`
}

// StageFunnelReport is the full journey funnel in stage-rank order.
type StageFunnelReport struct {
	Stages []FunnelStage `json:"stages"`
	Total  int           `json:"total"`
}
