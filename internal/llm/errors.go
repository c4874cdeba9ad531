package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	// ErrNotConfigured бэкенд не настроен: нет ключа или адреса.
	ErrNotConfigured = errors.New("backend is not configured")
	// ErrTimeout запрос к бэкенду не уложился в таймаут.
	ErrTimeout = errors.New("backend request timed out")
	// ErrUnavailable транспортная ошибка или не-2xx ответ бэкенда.
	ErrUnavailable = errors.New("backend unavailable")
	// ErrProtocol бэкенд вернул ответ неожиданной формы.
	ErrProtocol = errors.New("unexpected backend response")
)

// wrapTransportError классифицирует ошибку выполнения HTTP-запроса:
// таймауты отделяются от прочих транспортных сбоев.
func wrapTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
