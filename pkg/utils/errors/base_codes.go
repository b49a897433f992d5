package errors

import (
	"net/http"

	"google.golang.org/grpc/codes"
)

// Common errors shared by all components (service code 00).
var (
	// ErrInvalidParam indicates an invalid parameter.
	ErrInvalidParam = Register(&Errno{
		Code:      MakeCode(ServiceCommon, CategoryRequest, 1),
		HTTP:      http.StatusBadRequest,
		GRPCCode:  codes.InvalidArgument,
		MessageEN: "Invalid parameter",
		MessageZH: "参数无效",
	})

	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = Register(&Errno{
		Code:      MakeCode(ServiceCommon, CategoryResource, 1),
		HTTP:      http.StatusNotFound,
		GRPCCode:  codes.NotFound,
		MessageEN: "Resource not found",
		MessageZH: "资源不存在",
	})

	// ErrInternal indicates an internal server error.
	ErrInternal = Register(&Errno{
		Code:      MakeCode(ServiceCommon, CategoryInternal, 1),
		HTTP:      http.StatusInternalServerError,
		GRPCCode:  codes.Internal,
		MessageEN: "Internal server error",
		MessageZH: "内部服务错误",
	})

	// ErrDatabase indicates a database operation failure.
	ErrDatabase = Register(&Errno{
		Code:      MakeCode(ServiceInfraDB, CategoryDatabase, 1),
		HTTP:      http.StatusInternalServerError,
		GRPCCode:  codes.Internal,
		MessageEN: "Database error",
		MessageZH: "数据库错误",
	})

	// ErrCache indicates a cache operation failure.
	ErrCache = Register(&Errno{
		Code:      MakeCode(ServiceInfraCache, CategoryCache, 1),
		HTTP:      http.StatusInternalServerError,
		GRPCCode:  codes.Internal,
		MessageEN: "Cache error",
		MessageZH: "缓存错误",
	})

	// ErrTimeout indicates an operation deadline was exceeded.
	ErrTimeout = Register(&Errno{
		Code:      MakeCode(ServiceCommon, CategoryTimeout, 1),
		HTTP:      http.StatusGatewayTimeout,
		GRPCCode:  codes.DeadlineExceeded,
		MessageEN: "Operation timeout",
		MessageZH: "操作超时",
	})

	// ErrConfig indicates an invalid or incomplete configuration.
	ErrConfig = Register(&Errno{
		Code:      MakeCode(ServiceCommon, CategoryConfig, 1),
		HTTP:      http.StatusInternalServerError,
		GRPCCode:  codes.FailedPrecondition,
		MessageEN: "Configuration error",
		MessageZH: "配置错误",
	})
)
