package httpapi

import (
	"net/http"

	"github.com/R3E-Network/orders_service/internal/httputil"
)

func writeNotFound(w http.ResponseWriter) {
	httputil.WriteError(w, http.StatusNotFound, "NotFound", "resource not found")
}

func writeMethodNotAllowed(w http.ResponseWriter) {
	httputil.WriteError(w, http.StatusMethodNotAllowed, "MethodNotAllowed", "method not allowed")
}
