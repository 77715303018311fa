package notifier

import "errors"

var (
	// ErrEncodeEvent возвращается при ошибке сериализации события
	ErrEncodeEvent = errors.New("notifier: failed to encode event")

	// ErrPublish возвращается при ошибке отправки события в Redis
	ErrPublish = errors.New("notifier: failed to publish event")
)
