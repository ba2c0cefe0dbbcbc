package types

// ResponseBase is the envelope shared by every AURA response body.
type ResponseBase struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// DataResponse wraps a single payload.
type DataResponse struct {
	ResponseBase
	Data interface{} `json:"data"`
}

// PaginationResponse wraps a list payload plus paging metadata.
type PaginationResponse struct {
	ResponseBase
	Data       interface{} `json:"data"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	TotalPages int         `json:"total_pages"`
}

// ErrorResponse is returned for every failed request.
type ErrorResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Detail  interface{} `json:"detail,omitempty"`
}

func NewDataResponse(message string, data interface{}) DataResponse {
	return DataResponse{
		ResponseBase: ResponseBase{Success: true, Message: message},
		Data:         data,
	}
}

func NewPaginationResponse(message string, data interface{}, total int64, page, pageSize int) PaginationResponse {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return PaginationResponse{
		ResponseBase: ResponseBase{Success: true, Message: message},
		Data:         data,
		Total:        total,
		Page:         page,
		PageSize:     pageSize,
		TotalPages:   totalPages,
	}
}

func NewErrorResponse(message string, detail interface{}) ErrorResponse {
	return ErrorResponse{Success: false, Message: message, Detail: detail}
}
