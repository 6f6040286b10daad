package middleware

import (
    "log/slog"
    "time"

    "github.com/labstack/echo/v4"
)

// RequestLogger logs one line per request.  Server errors are logged at
// error level, client errors at warn.
func RequestLogger(log *slog.Logger) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            err := next(c)
            if err != nil {
                // let the error handler write the response so the status is final
                c.Error(err)
            }
            status := c.Response().Status
            level := slog.LevelInfo
            switch {
            case status >= 500:
                level = slog.LevelError
            case status >= 400:
                level = slog.LevelWarn
            }
            attrs := []slog.Attr{
                slog.String("method", c.Request().Method),
                slog.String("path", c.Request().URL.Path),
                slog.String("route", c.Path()),
                slog.Int("status", status),
                slog.Duration("latency", time.Since(start)),
                slog.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
                slog.String("ip", c.RealIP()),
            }
            if err != nil {
                attrs = append(attrs, slog.Any("error", err))
            }
            log.LogAttrs(c.Request().Context(), level, "request", attrs...)
            return nil
        }
    }
}
