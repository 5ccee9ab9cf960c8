package payload

type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

type (
	// ListReqQuery is the shared pagination query. Additional filters are
	// declared directly on the handler's own request struct; gin binding
	// does not see embedded fields.
	ListReqQuery struct {
		PageIndex *int `form:"page_index" binding:"required"`
		PageSize  *int `form:"page_size" binding:"required"`
	}
	ListResp[T any] struct {
		Rows  []T   `json:"rows"`
		Count int64 `json:"count"`
	}
)
