// Package httputil provides JSON response helpers, strict request decoding
// and the middleware stack shared by the API and ops servers.
//
//	var in pets.Input
//	if err := httputil.ParseStrictJSON(r, &in); err != nil {
//		httputil.WriteBadRequest(w, err.Error())
//		return
//	}
//	httputil.WriteJSON(w, http.StatusCreated, resp)
//
// Middleware is composed with Chain, outermost first:
//
//	handler := httputil.Chain(
//		httputil.RequestIDMiddleware(logger),
//		httputil.LoggingMiddleware,
//		httputil.RecoveryMiddleware,
//	)(router)
package httputil
