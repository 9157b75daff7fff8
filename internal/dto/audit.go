package dto

// AuditQuery filters audit log reads.
type AuditQuery struct {
	ActorEmail string `form:"actorEmail"`
	ActionType string `form:"actionType"`
	Limit      int    `form:"limit"`
}

// StudentQuery filters student listings.
type StudentQuery struct {
	Search   string `form:"search"`
	ClassID  string `form:"classId"`
	Program  string `form:"program"`
	Page     int    `form:"page"`
	PageSize int    `form:"pageSize"`
}
