package req

// CreateFeatureRequest requires both keys to be present; empty strings are
// accepted.
type CreateFeatureRequest struct {
	Name *string `json:"name" binding:"required"`
	Type *string `json:"type" binding:"required"`
}

type AuditListRequest struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=1000"`
}
