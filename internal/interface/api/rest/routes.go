package rest

const (
	// auth
	RouteUser         = "/user"
	RouteUserRegister = RouteUser + "/register"
	RouteUserLogin    = RouteUser + "/login"
	RouteUserLogout   = RouteUser + "/logout"

	// files
	RouteHome           = "/"
	RouteUpload         = "/upload"
	RouteDownloadByKey  = "/download/*path"
	RouteDownloadByID   = "/files/:id/download"
	RouteDeleteUserFile = "/delete/:id"

	// ops
	RouteHealth  = "/healthz"
	RouteMetrics = "/metrics"
)
