package transport

import (
	"net"
	"net/http"
	"time"
)

// NewHTTPClient возвращает http.Client с таймаутом и базовым транспортом.
// Каждый бэкенд получает собственный клиент со своим таймаутом:
// hosted-API отвечает быстрее, чем локальный инференс.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   5 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   5 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}
