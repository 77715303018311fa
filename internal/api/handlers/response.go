package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
)

// SessionHeader заголовок с идентификатором сессии оформления
const SessionHeader = "X-Session-ID"

const (
	msgInternalError       = "внутренняя ошибка сервера"
	msgValidation          = "некорректные данные запроса"
	msgNotFound            = "объект не найден"
	msgCapacityExceeded    = "недостаточно свободных мест в слоте"
	msgEmployeeUnavailable = "сотрудник недоступен в выбранное время"
	msgLockExpired         = "срок блокировки слота истек"
	msgLockMismatch        = "блокировка принадлежит другой сессии"
	msgInvalidSlot         = "для услуги нет активного расписания"
	msgTransient           = "конфликт параллельных операций, повторите запрос"
)

// ErrorResponse тело ответа с ошибкой
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// DecodeJSON декодирует тело запроса, запрещая неизвестные поля
func DecodeJSON(r *http.Request, v interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

// RespondJSON отправляет JSON ответ
func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

// RespondError отправляет ошибку с кодом и сообщением
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, ErrorResponse{Code: status, Message: message})
}

func RespondBadRequest(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusBadRequest, message)
}

func RespondNotFound(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusNotFound, message)
}

func RespondForbidden(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusForbidden, message)
}

func RespondInternalError(w http.ResponseWriter) {
	RespondError(w, http.StatusInternalServerError, msgInternalError)
}

// StatusFor код ответа для вида доменной ошибки
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidSlot):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrCapacityExceeded), errors.Is(err, domain.ErrEmployeeUnavailable):
		return http.StatusConflict
	case errors.Is(err, domain.ErrLockExpired):
		return http.StatusGone
	case errors.Is(err, domain.ErrLockMismatch):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrTransient):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func messageFor(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidSlot):
		return msgInvalidSlot
	case errors.Is(err, domain.ErrValidation):
		return msgValidation
	case errors.Is(err, domain.ErrNotFound):
		return msgNotFound
	case errors.Is(err, domain.ErrCapacityExceeded):
		return msgCapacityExceeded
	case errors.Is(err, domain.ErrEmployeeUnavailable):
		return msgEmployeeUnavailable
	case errors.Is(err, domain.ErrLockExpired):
		return msgLockExpired
	case errors.Is(err, domain.ErrLockMismatch):
		return msgLockMismatch
	case errors.Is(err, domain.ErrTransient):
		return msgTransient
	default:
		return msgInternalError
	}
}

// RespondDomainError отправляет ошибку usecase или сервиса
// Сообщение переопределяется, если для ошибки есть более точный текст
func RespondDomainError(w http.ResponseWriter, err error, messages map[error]string) {
	status := StatusFor(err)
	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "1")
	}
	if status == http.StatusInternalServerError {
		RespondInternalError(w)
		return
	}
	for target, msg := range messages {
		if errors.Is(err, target) {
			RespondError(w, status, msg)
			return
		}
	}
	RespondError(w, status, messageFor(err))
}

// PathInt64 положительный числовой параметр пути
func PathInt64(r *http.Request, name string) (int64, error) {
	value, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil {
		return 0, err
	}
	if value <= 0 {
		return 0, strconv.ErrRange
	}
	return value, nil
}

// QueryInt64 необязательный числовой параметр строки запроса
func QueryInt64(r *http.Request, name string) (*int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, err
	}
	return &value, nil
}

// QueryBool необязательный флаг строки запроса
func QueryBool(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	return strconv.ParseBool(raw)
}

// SessionID идентификатор сессии из заголовка
func SessionID(r *http.Request) string {
	return r.Header.Get(SessionHeader)
}
