package api

// routeHandlers contains all the handlers for different route types
type routeHandlers struct {
	healthHandler  healthHandler
	authHandler    authHandler
	projectHandler projectHandler
	productHandler productHandler
	orderHandler   orderHandler
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

type listMeta struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

type listResponse[T any] struct {
	Data []T      `json:"data"`
	Meta listMeta `json:"meta"`
}

func newListResponse[T any](data []T, page pagination) listResponse[T] {
	if data == nil {
		data = []T{}
	}
	return listResponse[T]{Data: data, Meta: listMeta{Limit: page.limit, Offset: page.offset}}
}
